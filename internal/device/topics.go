package device

import "fmt"

// Topics derives the MQTT identifiers for one device. The bridge routes by
// these exact paths, so they are kept in one place and never assembled
// ad hoc.
type Topics struct {
	projectID string
	region    string
	registry  string
	deviceID  string
}

// NewTopics builds the topic set for a device in a registry.
func NewTopics(projectID, region, registry, deviceID string) Topics {
	return Topics{
		projectID: projectID,
		region:    region,
		registry:  registry,
		deviceID:  deviceID,
	}
}

// ClientID is the fully qualified device path the bridge authenticates.
func (t Topics) ClientID() string {
	return fmt.Sprintf("projects/%s/locations/%s/registries/%s/devices/%s",
		t.projectID, t.region, t.registry, t.deviceID)
}

// Events is the telemetry publish topic.
func (t Topics) Events() string {
	return fmt.Sprintf("/devices/%s/events", t.deviceID)
}

// State is the device state publish topic.
func (t Topics) State() string {
	return fmt.Sprintf("/devices/%s/state", t.deviceID)
}

// Config is the configuration subscribe topic.
func (t Topics) Config() string {
	return fmt.Sprintf("/devices/%s/config", t.deviceID)
}

// Commands is the command subscribe filter, covering all subfolders.
func (t Topics) Commands() string {
	return fmt.Sprintf("/devices/%s/commands/#", t.deviceID)
}

// commandPrefix is the topic prefix shared by all command deliveries, used
// to extract the subfolder from an incoming message topic.
func (t Topics) commandPrefix() string {
	return fmt.Sprintf("/devices/%s/commands", t.deviceID)
}
