package main

import "testing"

func TestDeviceTopic(t *testing.T) {
	tests := []struct {
		deviceID string
		kind     string
		want     string
	}{
		{"edge-01", "events", "/devices/edge-01/events"},
		{"edge-01", "state", "/devices/edge-01/state"},
		{"edge-01", "config", "/devices/edge-01/config"},
		{"bench-device", "events", "/devices/bench-device/events"},
	}

	for _, tt := range tests {
		if got := deviceTopic(tt.deviceID, tt.kind); got != tt.want {
			t.Errorf("deviceTopic(%q, %q)=%q, want %q", tt.deviceID, tt.kind, got, tt.want)
		}
	}
}

func TestCommandTopic(t *testing.T) {
	tests := []struct {
		deviceID  string
		subfolder string
		want      string
	}{
		{"edge-01", "", "/devices/edge-01/commands"},
		{"edge-01", "reboot", "/devices/edge-01/commands/reboot"},
		{"edge-01", "firmware/update", "/devices/edge-01/commands/firmware/update"},
	}

	for _, tt := range tests {
		if got := commandTopic(tt.deviceID, tt.subfolder); got != tt.want {
			t.Errorf("commandTopic(%q, %q)=%q, want %q", tt.deviceID, tt.subfolder, got, tt.want)
		}
	}
}

func TestPayloadPreview(t *testing.T) {
	if got := payloadPreview([]byte(`{"power":true}`)); got != `{"power":true}` {
		t.Errorf("payloadPreview=%q, want the JSON text back", got)
	}

	if got := payloadPreview([]byte{0xff, 0xfe, 0x01}); got != "<3 bytes>" {
		t.Errorf("payloadPreview=%q, want <3 bytes>", got)
	}
}
