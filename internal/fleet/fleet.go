// Package fleet runs a set of simulated devices from a single fleet
// config, one MQTT session per device, with staggered startup so the
// bridge is not hit by a burst of simultaneous connects.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tamahiro5/iotlab-edge/internal/auth"
	"github.com/tamahiro5/iotlab-edge/internal/config"
	"github.com/tamahiro5/iotlab-edge/internal/device"
	"github.com/tamahiro5/iotlab-edge/internal/telemetry"
)

// SessionRunner runs a single device session until ctx is canceled or the
// session's message budget is spent.
type SessionRunner func(ctx context.Context, sess config.Session) error

// Orchestrator fans the fleet config out into concurrent device sessions.
type Orchestrator struct {
	cfg    *config.Config
	log    *slog.Logger
	runner SessionRunner
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithRunner substitutes the per-session runner, primarily for testing.
func WithRunner(r SessionRunner) Option {
	return func(o *Orchestrator) {
		o.runner = r
	}
}

// New creates an Orchestrator for cfg.
func New(cfg *config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg: cfg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runner == nil {
		o.runner = o.runSession
	}
	return o
}

// Run starts every device session and blocks until all of them return.
// Session i waits i*stagger_offset before connecting. A failed session does
// not stop the others; Run returns the joined errors once the whole fleet
// has wound down.
func (o *Orchestrator) Run(ctx context.Context) error {
	sessions := o.cfg.Sessions()

	o.log.Info("starting fleet",
		"devices", len(sessions),
		"registry", o.cfg.Registry,
		"stagger_offset", o.cfg.StaggerOffset,
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for i, sess := range sessions {
		delay := time.Duration(i) * o.cfg.StaggerOffset

		wg.Add(1)
		go func(sess config.Session, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}

			log := o.log.With("device_id", sess.DeviceID)
			log.Info("starting device session")

			if err := o.runner(ctx, sess); err != nil {
				log.Error("device session failed", "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("device %s: %w", sess.DeviceID, err))
				mu.Unlock()
				return
			}

			log.Info("device session finished")
		}(sess, delay)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// runSession is the production runner: it builds the token source, the
// telemetry simulator, and the bridge client for one device and runs it.
func (o *Orchestrator) runSession(ctx context.Context, sess config.Session) error {
	tokens, err := auth.NewJWTSource(o.cfg.ProjectID, sess.KeyFile, sess.Algorithm)
	if err != nil {
		return fmt.Errorf("building token source: %w", err)
	}

	sim := telemetry.NewSimulator(sess.DeviceID, sess.Module)

	client, err := device.New(
		device.Config{
			ProjectID:       o.cfg.ProjectID,
			Region:          o.cfg.Region,
			Registry:        o.cfg.Registry,
			DeviceID:        sess.DeviceID,
			Module:          sess.Module,
			BridgeHost:      o.cfg.Bridge.Host,
			BridgePort:      o.cfg.Bridge.Port,
			CACerts:         o.cfg.Bridge.CACerts,
			DisableTLS:      o.cfg.Bridge.DisableTLS,
			MessageType:     sess.MessageType,
			NumMessages:     sess.NumMessages,
			PublishInterval: sess.PublishInterval,
			StateInterval:   sess.StateInterval,
		},
		tokens,
		sim,
		device.WithLogger(o.log.With("device_id", sess.DeviceID)),
	)
	if err != nil {
		return fmt.Errorf("building device client: %w", err)
	}

	return client.Run(ctx)
}
