package meter

import "time"

// BurnState is the motor burn state.
type BurnState int

const (
	Idle BurnState = iota
	Burning
)

func (s BurnState) String() string {
	if s == Burning {
		return "burning"
	}
	return "idle"
}

// BurnDetector detects motor burns by comparing thrust against a threshold.
// Thrust exactly at the threshold never changes state.
type BurnDetector struct {
	threshold float64

	state        BurnState
	start        time.Time
	lastDuration time.Duration
	burns        int
}

// NewBurnDetector creates an idle detector.
func NewBurnDetector(threshold float64) *BurnDetector {
	return &BurnDetector{threshold: threshold}
}

// Update advances the detector with the thrust measured at now.
func (d *BurnDetector) Update(thrust float64, now time.Time) {
	switch d.state {
	case Idle:
		if thrust > d.threshold {
			d.state = Burning
			d.start = now
		}
	case Burning:
		if thrust < d.threshold {
			d.state = Idle
			d.lastDuration = now.Sub(d.start)
			d.burns++
		}
	}
}

// State returns the current burn state.
func (d *BurnDetector) State() BurnState { return d.state }

// StartTime returns when the current or most recent burn started. It is
// zero until the first burn.
func (d *BurnDetector) StartTime() time.Time { return d.start }

// LastBurnDuration returns the duration of the last completed burn. It is
// kept until the next burn completes.
func (d *BurnDetector) LastBurnDuration() time.Duration { return d.lastDuration }

// Burns returns the number of completed burns.
func (d *BurnDetector) Burns() int { return d.burns }
