package meter

import "time"

// Snapshot is the set of flight metrics produced by one control cycle.
type Snapshot struct {
	// Timestamp is the wall-clock time of the cycle (or of receipt, on the
	// observer side). It is not part of the telemetry.
	Timestamp time.Time

	// Time is measured from the start of the most recent burn, or from boot
	// when no burn has started yet. Millisecond resolution.
	Time        time.Duration
	Thrust      float64 // N
	Height      float64 // m above baseline
	Pressure    float64 // Pa
	Temperature float64 // °C
	Stability   float64 // N, population std dev of the last StabilityWindow readings

	TestTime    time.Duration
	TestRunning bool

	Burning      bool
	BurnDuration time.Duration // last completed burn
	MaxHeight    float64
}
