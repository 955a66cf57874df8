package fleet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamahiro5/iotlab-edge/internal/config"
)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFleetConfig(deviceIDs ...string) *config.Config {
	devices := make([]config.DeviceConfig, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		devices = append(devices, config.DeviceConfig{DeviceID: id})
	}
	return &config.Config{
		ProjectID: "iot-lab-test",
		Region:    "europe-west1",
		Registry:  "iotlab-registry",
		Devices:   devices,
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	orc := New(testFleetConfig("edge-01"))
	assert.NotNil(t, orc.log)
	assert.NotNil(t, orc.runner)
}

func TestNew_WithOptions(t *testing.T) {
	t.Parallel()

	l := quietLogger()
	called := false
	orc := New(testFleetConfig("edge-01"),
		WithLogger(l),
		WithRunner(func(context.Context, config.Session) error {
			called = true
			return nil
		}),
	)

	assert.Same(t, l, orc.log)
	require.NoError(t, orc.runner(context.Background(), config.Session{}))
	assert.True(t, called)
}

func TestRun_AllSessions(t *testing.T) {
	t.Parallel()

	cfg := testFleetConfig("edge-01", "edge-02", "edge-03")

	var (
		mu  sync.Mutex
		ran []string
	)

	orc := New(cfg,
		WithLogger(quietLogger()),
		WithRunner(func(_ context.Context, sess config.Session) error {
			mu.Lock()
			ran = append(ran, sess.DeviceID)
			mu.Unlock()
			return nil
		}),
	)

	err := orc.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"edge-01", "edge-02", "edge-03"}, ran)
}

func TestRun_StaggersStarts(t *testing.T) {
	t.Parallel()

	cfg := testFleetConfig("edge-01", "edge-02")
	cfg.StaggerOffset = 150 * time.Millisecond

	var (
		mu     sync.Mutex
		starts = map[string]time.Time{}
	)

	orc := New(cfg,
		WithLogger(quietLogger()),
		WithRunner(func(_ context.Context, sess config.Session) error {
			mu.Lock()
			starts[sess.DeviceID] = time.Now()
			mu.Unlock()
			return nil
		}),
	)

	require.NoError(t, orc.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 2)
	gap := starts["edge-02"].Sub(starts["edge-01"])
	assert.GreaterOrEqual(t, gap, 100*time.Millisecond)
}

func TestRun_AggregatesErrors(t *testing.T) {
	t.Parallel()

	cfg := testFleetConfig("edge-01", "edge-02", "edge-03")

	errBroken := errors.New("bridge unreachable")

	orc := New(cfg,
		WithLogger(quietLogger()),
		WithRunner(func(_ context.Context, sess config.Session) error {
			if sess.DeviceID == "edge-01" {
				return nil
			}
			return errBroken
		}),
	)

	err := orc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "device edge-02")
	assert.Contains(t, err.Error(), "device edge-03")
	assert.NotContains(t, err.Error(), "device edge-01")
}

func TestRun_CancelSkipsDelayedSessions(t *testing.T) {
	t.Parallel()

	cfg := testFleetConfig("edge-01", "edge-02")
	cfg.StaggerOffset = time.Hour

	var (
		mu  sync.Mutex
		ran []string
	)
	started := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orc := New(cfg,
		WithLogger(quietLogger()),
		WithRunner(func(_ context.Context, sess config.Session) error {
			mu.Lock()
			ran = append(ran, sess.DeviceID)
			mu.Unlock()
			close(started)
			return nil
		}),
	)

	go func() {
		<-started
		cancel()
	}()

	err := orc.Run(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"edge-01"}, ran)
}
