// Package telemetry generates the simulated sensor documents a device
// publishes. A given device ID always produces the same reading sequence,
// which keeps fleet runs reproducible and diffable across restarts.
package telemetry

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// Schema describes the telemetry document columns for warehouse ingestion.
const Schema = "datetime:STRING," +
	"module:STRING," +
	"channel0:FLOAT," +
	"channel1:FLOAT," +
	"channel2:FLOAT," +
	"channel3:FLOAT," +
	"channel4:FLOAT," +
	"channel5:FLOAT," +
	"channel6:FLOAT," +
	"channel7:FLOAT," +
	"channel8:FLOAT," +
	"channel9:INTEGER"

// Temperature walk parameters. The walk models a slow ambient drift: each
// reading moves by a normally distributed step in a fixed per-device
// direction.
const (
	tempBase      = 10.0
	tempSpread    = 20.0
	tempStepMean  = 0.01
	tempStepSigma = 0.005
)

// Simulator produces telemetry points from a device-seeded random source.
// Safe for concurrent use.
type Simulator struct {
	module  string
	nowFunc func() time.Time

	mu    sync.Mutex
	rng   *rand.Rand
	temp  float64
	trend float64
}

// SimOption configures a Simulator.
type SimOption func(*Simulator)

// WithNowFunc overrides the clock used for document timestamps.
func WithNowFunc(f func() time.Time) SimOption {
	return func(s *Simulator) {
		s.nowFunc = f
	}
}

// NewSimulator seeds a simulator from the device ID. module is the value
// stamped into each document's module field.
func NewSimulator(deviceID, module string, opts ...SimOption) *Simulator {
	h := fnv.New64a()
	h.Write([]byte(deviceID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	s := &Simulator{
		module:  module,
		nowFunc: time.Now,
		rng:     rng,
		temp:    tempBase + rng.Float64()*tempSpread,
		trend:   -1,
	}
	if rng.Float64() > 0.5 {
		s.trend = 1
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next advances the temperature walk and returns the next telemetry
// document.
func (s *Simulator) Next() domain.TelemetryPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temp += s.trend * (tempStepMean + s.rng.NormFloat64()*tempStepSigma)

	return domain.TelemetryPoint{
		Datetime: s.nowFunc().Format(domain.TelemetryTimeLayout),
		Module:   s.module,
		Channel0: roundTo(s.uniform(0.1, 0.2), 2),
		Channel1: roundTo(s.uniform(0.1, 0.9), 2),
		Channel2: roundTo(s.uniform(1.1, 2.9), 6),
		Channel3: roundTo(s.uniform(0.2, 2.9), 1),
		Channel4: roundTo(s.uniform(0.2, 2.9), 2),
		Channel5: roundTo(s.uniform(0.2, 5.9), 3),
		Channel6: roundTo(s.uniform(0.2, 3.9), 1),
		Channel7: roundTo(s.uniform(0.2, 2.9), 6),
		Channel8: roundTo(s.uniform(0.2, 3.9), 1),
		Channel9: s.rng.Intn(10),
	}
}

// Temperature reports the current value of the simulated temperature walk.
func (s *Simulator) Temperature() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temp
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
