package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "iot-lab-prod", cfg.ProjectID)
				assert.Equal(t, "europe-west1", cfg.Region)
				assert.Equal(t, "iotlab-registry", cfg.Registry)
				require.Len(t, cfg.Devices, 1)
				assert.Equal(t, "edge-01", cfg.Devices[0].DeviceID)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "mqtt.googleapis.com", cfg.Bridge.Host)
				assert.Equal(t, 8883, cfg.Bridge.Port)
				assert.Equal(t, "/var/key/rsa_private.pem", cfg.Defaults.KeyFile)
				assert.Equal(t, "RS256", cfg.Defaults.Algorithm)
				assert.Equal(t, "event", cfg.Defaults.MessageType)
				// Interval defaults are applied per session by the device
				// client, not at the fleet level.
				assert.Zero(t, cfg.Defaults.PublishInterval)
				assert.Zero(t, cfg.Defaults.StateInterval)
				assert.Equal(t, 2*time.Second, cfg.StaggerOffset)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
project_id: "${TEST_FLEET_PROJECT}"
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
`,
			envVars: map[string]string{
				"TEST_FLEET_PROJECT": "substituted-project",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "substituted-project", cfg.ProjectID)
			},
		},
		{
			name: "missing required project_id",
			yaml: `
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
`,
			wantErr: "project_id is required",
		},
		{
			name: "missing required cloud_region",
			yaml: `
project_id: iot-lab-prod
registry_id: iotlab-registry
devices:
  - device_id: edge-01
`,
			wantErr: "cloud_region is required",
		},
		{
			name: "missing devices",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
`,
			wantErr: "at least one device is required",
		},
		{
			name: "device without id",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
  - module: bench
`,
			wantErr: "devices[1].device_id is required",
		},
		{
			name: "duplicate device ids",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
  - device_id: edge-01
`,
			wantErr: `devices[1].device_id "edge-01" is duplicated`,
		},
		{
			name: "invalid default algorithm",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
defaults:
  algorithm: HS256
devices:
  - device_id: edge-01
`,
			wantErr: "defaults.algorithm",
		},
		{
			name: "invalid device message type",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: iotlab-registry
devices:
  - device_id: edge-01
    message_type: telemetry
`,
			wantErr: "devices[0].message_type",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing fleet YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
project_id: iot-lab-prod
cloud_region: europe-west1
registry_id: bench-registry
bridge:
  host: broker.internal
  port: 1883
  disable_tls: true
defaults:
  key_file: /etc/iotlab/default.pem
  algorithm: ES256
  publish_interval: 2s
  state_interval: 10s
  num_messages: 50
stagger_offset: 500ms
devices:
  - device_id: edge-01
    module: bench-a
    key_file: /etc/iotlab/edge-01.pem
    algorithm: RS256
    publish_interval: 1s
  - device_id: edge-02
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "broker.internal", cfg.Bridge.Host)
				assert.Equal(t, 1883, cfg.Bridge.Port)
				assert.True(t, cfg.Bridge.DisableTLS)
				assert.Equal(t, 500*time.Millisecond, cfg.StaggerOffset)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)

				sessions := cfg.Sessions()
				require.Len(t, sessions, 2)

				assert.Equal(t, "edge-01", sessions[0].DeviceID)
				assert.Equal(t, "bench-a", sessions[0].Module)
				assert.Equal(t, "/etc/iotlab/edge-01.pem", sessions[0].KeyFile)
				assert.Equal(t, domain.AlgorithmRS256, sessions[0].Algorithm)
				assert.Equal(t, time.Second, sessions[0].PublishInterval)
				assert.Equal(t, 10*time.Second, sessions[0].StateInterval)
				assert.Equal(t, 50, sessions[0].NumMessages)

				assert.Equal(t, "edge-02", sessions[1].DeviceID)
				assert.Equal(t, "edge-02", sessions[1].Module)
				assert.Equal(t, "/etc/iotlab/default.pem", sessions[1].KeyFile)
				assert.Equal(t, domain.AlgorithmES256, sessions[1].Algorithm)
				assert.Equal(t, 2*time.Second, sessions[1].PublishInterval)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "fleet.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/fleet.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fleet file")
}
