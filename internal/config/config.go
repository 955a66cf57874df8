// Package config loads and validates the fleet file: a YAML document
// describing a set of simulated devices to run in one process, with
// environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// Config is the top-level fleet configuration.
type Config struct {
	ProjectID     string         `yaml:"project_id"`
	Region        string         `yaml:"cloud_region"`
	Registry      string         `yaml:"registry_id"`
	Bridge        BridgeConfig   `yaml:"bridge"`
	Defaults      DeviceDefaults `yaml:"defaults"`
	StaggerOffset time.Duration  `yaml:"stagger_offset"`
	Devices       []DeviceConfig `yaml:"devices"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// BridgeConfig defines the MQTT bridge endpoint shared by the fleet.
type BridgeConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CACerts    string `yaml:"ca_certs"`
	DisableTLS bool   `yaml:"disable_tls"`
}

// DeviceDefaults are the per-device settings applied where a device entry
// does not override them.
type DeviceDefaults struct {
	KeyFile         string        `yaml:"key_file"`
	Algorithm       string        `yaml:"algorithm"`
	MessageType     string        `yaml:"message_type"`
	PublishInterval time.Duration `yaml:"publish_interval"`
	StateInterval   time.Duration `yaml:"state_interval"`
	NumMessages     int           `yaml:"num_messages"`
}

// DeviceConfig is one fleet member. Zero-valued fields inherit from
// Defaults.
type DeviceConfig struct {
	DeviceID        string        `yaml:"device_id"`
	Module          string        `yaml:"module"`
	KeyFile         string        `yaml:"key_file"`
	Algorithm       string        `yaml:"algorithm"`
	MessageType     string        `yaml:"message_type"`
	PublishInterval time.Duration `yaml:"publish_interval"`
	StateInterval   time.Duration `yaml:"state_interval"`
	NumMessages     int           `yaml:"num_messages"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Session is the fully merged launch settings for one device.
type Session struct {
	DeviceID        string
	Module          string
	KeyFile         string
	Algorithm       domain.Algorithm
	MessageType     domain.MessageType
	PublishInterval time.Duration
	StateInterval   time.Duration
	NumMessages     int
}

// Load reads and parses a fleet file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fleet file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing fleet YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating fleet config: %w", err)
	}

	return cfg, nil
}

// Sessions merges Defaults into each device entry and returns the launch
// settings, in file order.
func (c *Config) Sessions() []Session {
	sessions := make([]Session, 0, len(c.Devices))

	for _, d := range c.Devices {
		s := Session{
			DeviceID:        d.DeviceID,
			Module:          pick(d.Module, d.DeviceID),
			KeyFile:         pick(d.KeyFile, c.Defaults.KeyFile),
			Algorithm:       domain.Algorithm(pick(d.Algorithm, c.Defaults.Algorithm)),
			MessageType:     domain.MessageType(pick(d.MessageType, c.Defaults.MessageType)),
			PublishInterval: pickDuration(d.PublishInterval, c.Defaults.PublishInterval),
			StateInterval:   pickDuration(d.StateInterval, c.Defaults.StateInterval),
			NumMessages:     d.NumMessages,
		}
		if s.NumMessages == 0 {
			s.NumMessages = c.Defaults.NumMessages
		}
		sessions = append(sessions, s)
	}

	return sessions
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func pickDuration(override, fallback time.Duration) time.Duration {
	if override != 0 {
		return override
	}
	return fallback
}

func applyDefaults(cfg *Config) {
	applyBridgeDefaults(&cfg.Bridge)
	applyDeviceDefaults(&cfg.Defaults)
	applyLoggingDefaults(&cfg.Logging)

	if cfg.StaggerOffset == 0 {
		cfg.StaggerOffset = 2 * time.Second
	}
}

func applyBridgeDefaults(b *BridgeConfig) {
	if b.Host == "" {
		b.Host = "mqtt.googleapis.com"
	}
	if b.Port == 0 {
		b.Port = 8883
	}
}

// applyDeviceDefaults fills the fields the validator needs. Intervals are
// left zero so the device client derives them from the message type.
func applyDeviceDefaults(d *DeviceDefaults) {
	if d.KeyFile == "" {
		d.KeyFile = "/var/key/rsa_private.pem"
	}
	if d.Algorithm == "" {
		d.Algorithm = string(domain.AlgorithmRS256)
	}
	if d.MessageType == "" {
		d.MessageType = string(domain.MessageEvent)
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.ProjectID == "" {
		errs = append(errs, fmt.Errorf("project_id is required"))
	}
	if cfg.Region == "" {
		errs = append(errs, fmt.Errorf("cloud_region is required"))
	}
	if cfg.Registry == "" {
		errs = append(errs, fmt.Errorf("registry_id is required"))
	}
	if len(cfg.Devices) == 0 {
		errs = append(errs, fmt.Errorf("at least one device is required"))
	}

	if _, err := domain.ParseAlgorithm(cfg.Defaults.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("defaults.algorithm: %w", err))
	}
	if _, err := domain.ParseMessageType(cfg.Defaults.MessageType); err != nil {
		errs = append(errs, fmt.Errorf("defaults.message_type: %w", err))
	}

	seen := make(map[string]struct{}, len(cfg.Devices))
	for i, d := range cfg.Devices {
		if d.DeviceID == "" {
			errs = append(errs, fmt.Errorf("devices[%d].device_id is required", i))
			continue
		}
		if _, dup := seen[d.DeviceID]; dup {
			errs = append(errs, fmt.Errorf("devices[%d].device_id %q is duplicated", i, d.DeviceID))
		}
		seen[d.DeviceID] = struct{}{}

		if d.Algorithm != "" {
			if _, err := domain.ParseAlgorithm(d.Algorithm); err != nil {
				errs = append(errs, fmt.Errorf("devices[%d].algorithm: %w", i, err))
			}
		}
		if d.MessageType != "" {
			if _, err := domain.ParseMessageType(d.MessageType); err != nil {
				errs = append(errs, fmt.Errorf("devices[%d].message_type: %w", i, err))
			}
		}
	}

	return errors.Join(errs...)
}
