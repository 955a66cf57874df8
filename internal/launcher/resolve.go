// Package launcher resolves the sample-client launch parameters from the
// process environment and invokes the client binary with a fixed flag set.
// Resolution is a pure function over an injected environment lookup so the
// required/optional/default rules stay testable without mutating the real
// environment.
package launcher

import (
	"fmt"
	"os"
	"strings"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// Environment variables consumed by the launcher.
const (
	EnvProjectID = "PROJECT_ID"
	EnvRegion    = "MY_REGION"
	EnvHost      = "HOST"
	EnvKeyFile   = "KEY_FILE"
)

// Defaults applied when the optional inputs are absent.
const (
	DefaultRegistry = "iotlab-registry"
	DefaultKeyFile  = "/var/key/rsa_private.pem"
)

// Params is the resolved launch record. It is constructed once per
// invocation and never mutated afterwards.
type Params struct {
	ProjectID   string
	Region      string
	Registry    string
	DeviceID    string
	KeyFile     string
	MessageType domain.MessageType
	Algorithm   domain.Algorithm
}

// MissingEnvError reports required environment variables that are unset or
// empty. It maps to the configuration-error exit code.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return "required environment variable missing: " + strings.Join(e.Vars, ", ")
}

// HostnameError reports a failure to determine the local hostname while
// defaulting the device ID. Treated as a configuration error.
type HostnameError struct {
	Err error
}

func (e *HostnameError) Error() string {
	return fmt.Sprintf("resolving local hostname for device id: %v", e.Err)
}

func (e *HostnameError) Unwrap() error {
	return e.Err
}

// Resolver turns an environment and positional arguments into Params.
type Resolver struct {
	lookup   func(string) string
	hostname func() (string, error)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookup overrides the environment lookup (default os.Getenv).
func WithLookup(fn func(string) string) ResolverOption {
	return func(r *Resolver) {
		r.lookup = fn
	}
}

// WithHostname overrides the hostname source (default os.Hostname).
func WithHostname(fn func() (string, error)) ResolverOption {
	return func(r *Resolver) {
		r.hostname = fn
	}
}

// NewResolver creates a Resolver backed by the real process environment.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup:   os.Getenv,
		hostname: os.Hostname,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve validates required configuration and fills defaults for the rest.
// args carries the positional arguments (at most one: the registry name).
//
// Required values are checked before anything else is resolved: on a
// MissingEnvError no other field has been touched and no side effect has
// occurred. The hostname is resolved per call, never cached.
func (r *Resolver) Resolve(args []string) (*Params, error) {
	var missing []string
	if r.lookup(EnvProjectID) == "" {
		missing = append(missing, EnvProjectID)
	}
	if r.lookup(EnvRegion) == "" {
		missing = append(missing, EnvRegion)
	}
	if len(missing) > 0 {
		return nil, &MissingEnvError{Vars: missing}
	}

	p := &Params{
		ProjectID:   r.lookup(EnvProjectID),
		Region:      r.lookup(EnvRegion),
		Registry:    DefaultRegistry,
		KeyFile:     DefaultKeyFile,
		MessageType: domain.MessageEvent,
		Algorithm:   domain.AlgorithmRS256,
	}

	if len(args) > 0 && args[0] != "" {
		p.Registry = args[0]
	}

	if host := r.lookup(EnvHost); host != "" {
		p.DeviceID = host
	} else {
		name, err := r.hostname()
		if err != nil {
			return nil, &HostnameError{Err: err}
		}
		p.DeviceID = shortHostname(name)
	}

	if kf := r.lookup(EnvKeyFile); kf != "" {
		p.KeyFile = kf
	}

	return p, nil
}

// shortHostname reduces a fully qualified name to its first label,
// matching `hostname -s`.
func shortHostname(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
