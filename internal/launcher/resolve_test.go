package launcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// mapLookup builds an environment lookup from a plain map, so tests never
// touch the real process environment.
func mapLookup(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

func staticHostname(name string, err error) func() (string, error) {
	return func() (string, error) {
		return name, err
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       map[string]string
		args      []string
		hostname  func() (string, error)
		wantErr   string
		checkFunc func(t *testing.T, p *Params)
	}{
		{
			name: "all defaults",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
			},
			hostname: staticHostname("edge-01.internal.example.com", nil),
			checkFunc: func(t *testing.T, p *Params) {
				t.Helper()
				assert.Equal(t, "iot-lab-prod", p.ProjectID)
				assert.Equal(t, "europe-west1", p.Region)
				assert.Equal(t, "iotlab-registry", p.Registry)
				assert.Equal(t, "edge-01", p.DeviceID)
				assert.Equal(t, "/var/key/rsa_private.pem", p.KeyFile)
				assert.Equal(t, domain.MessageEvent, p.MessageType)
				assert.Equal(t, domain.AlgorithmRS256, p.Algorithm)
			},
		},
		{
			name: "registry from positional argument",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
			},
			args:     []string{"bench-registry"},
			hostname: staticHostname("edge-01", nil),
			checkFunc: func(t *testing.T, p *Params) {
				t.Helper()
				assert.Equal(t, "bench-registry", p.Registry)
			},
		},
		{
			name: "empty positional argument falls back to default registry",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
			},
			args:     []string{""},
			hostname: staticHostname("edge-01", nil),
			checkFunc: func(t *testing.T, p *Params) {
				t.Helper()
				assert.Equal(t, "iotlab-registry", p.Registry)
			},
		},
		{
			name: "HOST overrides hostname",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
				"HOST":       "bench-device-7",
			},
			hostname: staticHostname("edge-01", nil),
			checkFunc: func(t *testing.T, p *Params) {
				t.Helper()
				assert.Equal(t, "bench-device-7", p.DeviceID)
			},
		},
		{
			name: "KEY_FILE overrides default key path",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
				"KEY_FILE":   "/etc/iotlab/ec_private.pem",
			},
			hostname: staticHostname("edge-01", nil),
			checkFunc: func(t *testing.T, p *Params) {
				t.Helper()
				assert.Equal(t, "/etc/iotlab/ec_private.pem", p.KeyFile)
			},
		},
		{
			name: "unqualified hostname used verbatim",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
			},
			hostname: staticHostname("edge-01", nil),
			checkFunc: func(t *testing.T, p *Params) {
				t.Helper()
				assert.Equal(t, "edge-01", p.DeviceID)
			},
		},
		{
			name: "missing PROJECT_ID",
			env: map[string]string{
				"MY_REGION": "europe-west1",
			},
			hostname: staticHostname("edge-01", nil),
			wantErr:  "required environment variable missing: PROJECT_ID",
		},
		{
			name: "empty PROJECT_ID treated as missing",
			env: map[string]string{
				"PROJECT_ID": "",
				"MY_REGION":  "europe-west1",
			},
			hostname: staticHostname("edge-01", nil),
			wantErr:  "required environment variable missing: PROJECT_ID",
		},
		{
			name: "missing MY_REGION",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
			},
			hostname: staticHostname("edge-01", nil),
			wantErr:  "required environment variable missing: MY_REGION",
		},
		{
			name:     "both required variables missing",
			env:      map[string]string{},
			hostname: staticHostname("edge-01", nil),
			wantErr:  "required environment variable missing: PROJECT_ID, MY_REGION",
		},
		{
			name: "hostname failure",
			env: map[string]string{
				"PROJECT_ID": "iot-lab-prod",
				"MY_REGION":  "europe-west1",
			},
			hostname: staticHostname("", errors.New("no hostname")),
			wantErr:  "resolving local hostname",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewResolver(
				WithLookup(mapLookup(tt.env)),
				WithHostname(tt.hostname),
			)

			p, err := r.Resolve(tt.args)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, p)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, p)

			if tt.checkFunc != nil {
				tt.checkFunc(t, p)
			}
		})
	}
}

func TestResolve_MissingEnvTyped(t *testing.T) {
	t.Parallel()

	r := NewResolver(
		WithLookup(mapLookup(nil)),
		WithHostname(staticHostname("edge-01", nil)),
	)

	_, err := r.Resolve(nil)
	require.Error(t, err)

	var missing *MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"PROJECT_ID", "MY_REGION"}, missing.Vars)
}

func TestResolve_RequiredCheckedBeforeHostname(t *testing.T) {
	t.Parallel()

	calls := 0
	r := NewResolver(
		WithLookup(mapLookup(map[string]string{"MY_REGION": "europe-west1"})),
		WithHostname(func() (string, error) {
			calls++
			return "", errors.New("should not be reached")
		}),
	)

	_, err := r.Resolve(nil)

	var missing *MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Zero(t, calls, "hostname must not be consulted before required vars pass")
}

func TestResolve_HostnameNotConsultedWhenHostSet(t *testing.T) {
	t.Parallel()

	calls := 0
	r := NewResolver(
		WithLookup(mapLookup(map[string]string{
			"PROJECT_ID": "iot-lab-prod",
			"MY_REGION":  "europe-west1",
			"HOST":       "bench-device-7",
		})),
		WithHostname(func() (string, error) {
			calls++
			return "edge-01", nil
		}),
	)

	p, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "bench-device-7", p.DeviceID)
	assert.Zero(t, calls)
}

func TestResolve_HostnameResolvedPerCall(t *testing.T) {
	t.Parallel()

	names := []string{"edge-01.example.com", "edge-02.example.com"}
	calls := 0
	r := NewResolver(
		WithLookup(mapLookup(map[string]string{
			"PROJECT_ID": "iot-lab-prod",
			"MY_REGION":  "europe-west1",
		})),
		WithHostname(func() (string, error) {
			name := names[calls]
			calls++
			return name, nil
		}),
	)

	first, err := r.Resolve(nil)
	require.NoError(t, err)
	second, err := r.Resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, "edge-01", first.DeviceID)
	assert.Equal(t, "edge-02", second.DeviceID)
	assert.Equal(t, 2, calls)
}
