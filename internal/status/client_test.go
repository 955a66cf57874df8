package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamahiro5/iotlab-edge/internal/device"
	"github.com/tamahiro5/iotlab-edge/pkg/logger"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := NewClient("http://127.0.0.1:1") // nothing listening
	_, err := c.Device(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Device(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status server error (HTTP 500)")
}

func TestClient_Device(t *testing.T) {
	t.Parallel()

	// A real status server behind the client, not a canned response.
	view := &fakeView{
		snap: device.Snapshot{
			DeviceID:        "edge-01",
			Registry:        "iotlab-registry",
			Connected:       true,
			StartedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			EventsPublished: 7,
			Temperature:     18.2,
		},
		connected: true,
	}
	srv := httptest.NewServer(NewServer("127.0.0.1:0", view, logger.Nop()).Handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	snap, err := c.Device(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edge-01", snap.DeviceID)
	assert.Equal(t, "iotlab-registry", snap.Registry)
	assert.Equal(t, uint64(7), snap.EventsPublished)
	assert.InDelta(t, 18.2, snap.Temperature, 0.001)
}

func TestClient_Ready(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		connected bool
		want      bool
	}{
		{name: "connected", connected: true, want: true},
		{name: "disconnected", connected: false, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			view := &fakeView{connected: tt.connected}
			srv := httptest.NewServer(NewServer("127.0.0.1:0", view, logger.Nop()).Handler())
			defer srv.Close()

			ready, err := NewClient(srv.URL).Ready(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ready)
		})
	}
}

func TestClient_Ready_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 418")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := NewClient("http://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, c.httpClient)
}
