package main

import "errors"

// KnownMetrics is the set of metric names exported by the device client
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"iotlab_http_request_duration_seconds": true,
	"iotlab_http_requests_total":           true,

	// Health metrics.
	"iotlab_healthz_up": true,
	"iotlab_readyz_up":  true,

	// Bridge connection metrics.
	"iotlab_mqtt_connects_total":        true,
	"iotlab_mqtt_connection_lost_total": true,
	"iotlab_mqtt_connected":             true,

	// Publish metrics.
	"iotlab_publishes_total":          true,
	"iotlab_publish_failures_total":   true,
	"iotlab_publish_duration_seconds": true,

	// Inbound message metrics.
	"iotlab_config_updates_total": true,
	"iotlab_commands_total":       true,

	// Auth metrics.
	"iotlab_token_refreshes_total": true,

	// Journal metrics.
	"iotlab_journal_appends_total": true,
	"iotlab_journal_errors_total":  true,

	// Recording rules.
	"iotlab:http_requests:rate5m":    true,
	"iotlab:http_errors:rate5m":      true,
	"iotlab:publishes:rate5m":        true,
	"iotlab:publish_failures:rate5m": true,
	"iotlab:commands:rate5m":         true,
	"iotlab:connection_lost:rate5m":  true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
