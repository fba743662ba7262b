// Package controller runs the fixed-rate acquisition loop that turns sensor
// readings into flight metric snapshots.
package controller

import (
	"context"
	"log"
	"time"

	"github.com/itohio/thruststand/pkg/clock"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/itohio/thruststand/pkg/sample"
)

// Acquirer produces one sample per cycle.
type Acquirer interface {
	Acquire(now time.Time) sample.Sample
}

// Publisher receives every snapshot, e.g. a telemetry transport.
type Publisher interface {
	Publish(meter.Snapshot) error
}

// Recorder persists every snapshot.
type Recorder interface {
	Append(meter.Snapshot) error
}

var (
	_ Acquirer = (*sample.Acquirer)(nil)
)

// Controller owns the per-cycle derivations and hands each snapshot to the
// publishers and the recorder.
type Controller struct {
	clock   clock.Clock
	period  time.Duration
	verbose bool

	acq       Acquirer
	stability meter.Stability
	burn      *meter.BurnDetector
	maxHeight meter.MaxHeight
	session   *meter.TestSession

	publishers []Publisher
	recorder   Recorder

	boot time.Time
}

// New creates a controller. rec may be nil.
func New(clk clock.Clock, period time.Duration, acq Acquirer, burn *meter.BurnDetector, session *meter.TestSession, rec Recorder, publishers ...Publisher) *Controller {
	return &Controller{
		clock:      clk,
		period:     period,
		acq:        acq,
		burn:       burn,
		session:    session,
		publishers: publishers,
		recorder:   rec,
		boot:       clk.Now(),
	}
}

// SetVerbose enables the per-cycle console line.
func (c *Controller) SetVerbose(v bool) {
	c.verbose = v
}

// Step runs one cycle and returns its snapshot. Publisher and recorder
// failures are logged and never interrupt the cycle.
func (c *Controller) Step() meter.Snapshot {
	now := c.clock.Now()
	s := c.acq.Acquire(now)

	c.stability.Update(s.Thrust)
	c.burn.Update(s.Thrust, now)
	c.maxHeight.Update(s.Height)
	running, testTime := c.session.Status()

	origin := c.boot
	if start := c.burn.StartTime(); !start.IsZero() {
		origin = start
	}

	snap := meter.Snapshot{
		Timestamp:    now,
		Time:         now.Sub(origin).Truncate(time.Millisecond),
		Thrust:       s.Thrust,
		Height:       s.Height,
		Pressure:     s.Pressure,
		Temperature:  s.Temperature,
		Stability:    c.stability.Stability(),
		TestTime:     testTime,
		TestRunning:  running,
		Burning:      c.burn.State() == meter.Burning,
		BurnDuration: c.burn.LastBurnDuration(),
		MaxHeight:    c.maxHeight.Value(),
	}

	for _, p := range c.publishers {
		if err := p.Publish(snap); err != nil {
			log.Printf("Failed to publish snapshot: %v", err)
		}
	}
	if c.recorder != nil {
		if err := c.recorder.Append(snap); err != nil {
			log.Printf("Failed to record snapshot: %v", err)
		}
	}

	if c.verbose {
		log.Printf("Time: %d ms, Thrust: %.2f N, Height: %.2f m, Stability: %.2f",
			snap.Time.Milliseconds(), snap.Thrust, snap.Height, snap.Stability)
	}

	return snap
}

// Run executes cycles until ctx is cancelled. After each cycle it sleeps for
// whatever remains of the period; a cycle that overruns starts the next one
// immediately. Cancellation is observed between cycles.
func (c *Controller) Run(ctx context.Context) {
	log.Printf("Control loop started (period %v)", c.period)
	defer log.Printf("Control loop stopped")

	for ctx.Err() == nil {
		start := c.clock.Now()
		c.Step()
		if wait := c.period - c.clock.Since(start); wait > 0 {
			c.clock.Sleep(wait)
		}
	}
}
