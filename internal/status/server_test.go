package status

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamahiro5/iotlab-edge/internal/device"
	"github.com/tamahiro5/iotlab-edge/pkg/logger"
)

type fakeView struct {
	snap      device.Snapshot
	connected bool
}

func (v *fakeView) Snapshot() device.Snapshot { return v.snap }
func (v *fakeView) Connected() bool           { return v.connected }

func testServer(view *fakeView) *Server {
	return NewServer("127.0.0.1:0", view, logger.Nop())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := testServer(&fakeView{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		connected  bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "connected",
			connected:  true,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "disconnected",
			connected:  false,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := testServer(&fakeView{connected: tt.connected})

			req := httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestDeviceEndpoint(t *testing.T) {
	t.Parallel()

	view := &fakeView{
		snap: device.Snapshot{
			DeviceID:        "edge-01",
			Registry:        "iotlab-registry",
			Region:          "europe-west1",
			ProjectID:       "iot-lab-prod",
			Connected:       true,
			StartedAt:       time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC),
			EventsPublished: 42,
			Temperature:     21.5,
		},
		connected: true,
	}
	s := testServer(view)

	req := httptest.NewRequest(http.MethodGet, "/v1/device", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"device_id":"edge-01"`)
	assert.Contains(t, body, `"events_published":42`)
	assert.Contains(t, body, `"temperature":21.5`)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := testServer(&fakeView{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "iotlab_mqtt_connects_total")
}
