package device

import (
	"sync"
	"time"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// Snapshot is a point-in-time view of the running device, served by the
// status endpoint and the shutdown summary.
type Snapshot struct {
	DeviceID        string               `json:"device_id"`
	Registry        string               `json:"registry_id"`
	Region          string               `json:"cloud_region"`
	ProjectID       string               `json:"project_id"`
	Connected       bool                 `json:"connected"`
	StartedAt       time.Time            `json:"started_at"`
	LastPublishAt   time.Time            `json:"last_publish_at,omitzero"`
	EventsPublished uint64               `json:"events_published"`
	StatesPublished uint64               `json:"states_published"`
	PublishFailures uint64               `json:"publish_failures"`
	Temperature     float64              `json:"temperature"`
	TokenValidUntil time.Time            `json:"token_valid_until,omitzero"`
	LastConfig      *domain.ConfigUpdate `json:"last_config,omitempty"`
	LastCommand     *domain.Command      `json:"last_command,omitempty"`
}

// tracker accumulates the snapshot under a lock. All Client callbacks write
// through it; readers get a copy.
type tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func newTracker(projectID, region, registry, deviceID string, startedAt time.Time) *tracker {
	return &tracker{
		snap: Snapshot{
			DeviceID:  deviceID,
			Registry:  registry,
			Region:    region,
			ProjectID: projectID,
			StartedAt: startedAt,
		},
	}
}

func (t *tracker) setConnected(up bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Connected = up
}

func (t *tracker) recordPublish(mt domain.MessageType, at time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !ok {
		t.snap.PublishFailures++
		return
	}
	t.snap.LastPublishAt = at
	if mt == domain.MessageState {
		t.snap.StatesPublished++
		return
	}
	t.snap.EventsPublished++
}

func (t *tracker) recordTemperature(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Temperature = v
}

func (t *tracker) recordTokenValidity(until time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.TokenValidUntil = until
}

func (t *tracker) recordConfig(upd domain.ConfigUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.LastConfig = &upd
}

func (t *tracker) recordCommand(cmd domain.Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.LastCommand = &cmd
}

func (t *tracker) view() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
