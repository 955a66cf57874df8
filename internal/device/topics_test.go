package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopics(t *testing.T) {
	t.Parallel()

	topics := NewTopics("iot-lab-prod", "europe-west1", "iotlab-registry", "edge-01")

	assert.Equal(t,
		"projects/iot-lab-prod/locations/europe-west1/registries/iotlab-registry/devices/edge-01",
		topics.ClientID(),
	)
	assert.Equal(t, "/devices/edge-01/events", topics.Events())
	assert.Equal(t, "/devices/edge-01/state", topics.State())
	assert.Equal(t, "/devices/edge-01/config", topics.Config())
	assert.Equal(t, "/devices/edge-01/commands/#", topics.Commands())
}
