package device

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// stateReporter periodically publishes the device state document, off the
// cadence of the telemetry loop. State changes rarely, so it is reported
// far less often than events.
type stateReporter struct {
	cron   *cron.Cron
	client *Client
	log    *slog.Logger
}

func newStateReporter(c *Client, interval time.Duration, log *slog.Logger) (*stateReporter, error) {
	cr := cron.New()

	r := &stateReporter{
		cron:   cr,
		client: c,
		log:    log,
	}

	if _, err := cr.AddFunc("@every "+interval.String(), r.report); err != nil {
		return nil, err
	}

	return r, nil
}

// Start begins the reporting schedule.
func (r *stateReporter) Start() {
	r.log.Debug("state reporter started")
	r.cron.Start()
}

// Stop halts the schedule. The returned context is done once any in-flight
// report has finished.
func (r *stateReporter) Stop() context.Context {
	r.log.Debug("state reporter stopping")
	return r.cron.Stop()
}

func (r *stateReporter) report() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.client.PublishState(ctx); err != nil {
		r.log.Error("state report failed", "error", err)
	}
}
