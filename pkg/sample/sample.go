package sample

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/itohio/thruststand/pkg/sensor"
)

// Sample is one acquisition cycle's reading of every channel.
type Sample struct {
	Timestamp   time.Time
	Thrust      float64 // N
	Height      float64 // m above the baseline taken at startup
	Pressure    float64 // Pa
	Temperature float64 // °C
}

// Channel identifies one of the acquired sensor channels.
type Channel int

const (
	Thrust Channel = iota
	Height
	Pressure
	Temperature
	numChannels
)

func (c Channel) String() string {
	switch c {
	case Thrust:
		return "thrust"
	case Height:
		return "height"
	case Pressure:
		return "pressure"
	case Temperature:
		return "temperature"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Acquirer reads the stand's peripherals once per cycle. A channel that
// cannot be read keeps its last valid value.
type Acquirer struct {
	periph      sensor.Peripherals
	seaLevelHPa float64
	baseline    float64

	last  Sample
	stale [numChannels]uint64
}

// New creates an Acquirer and records the current altitude as the height
// baseline. The baseline read must succeed.
func New(periph sensor.Peripherals, seaLevelHPa float64) (*Acquirer, error) {
	baseline, err := periph.ReadAltitude(seaLevelHPa)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline altitude: %w", err)
	}

	return &Acquirer{
		periph:      periph,
		seaLevelHPa: seaLevelHPa,
		baseline:    baseline,
	}, nil
}

// Baseline returns the absolute altitude heights are measured from.
func (a *Acquirer) Baseline() float64 {
	return a.baseline
}

// Stale returns how many reads of ch fell back to the previous value.
func (a *Acquirer) Stale(ch Channel) uint64 {
	return a.stale[ch]
}

// Acquire reads every channel and returns the resulting sample. It never
// fails; missing readings are substituted.
func (a *Acquirer) Acquire(now time.Time) Sample {
	s := a.last
	s.Timestamp = now

	a.read(Thrust, &s.Thrust, a.periph.ReadThrust)
	a.read(Height, &s.Height, func() (float64, error) {
		alt, err := a.periph.ReadAltitude(a.seaLevelHPa)
		return alt - a.baseline, err
	})
	a.read(Pressure, &s.Pressure, a.periph.ReadPressure)
	a.read(Temperature, &s.Temperature, a.periph.ReadTemperature)

	a.last = s
	return s
}

func (a *Acquirer) read(ch Channel, dst *float64, fn func() (float64, error)) {
	v, err := fn()
	if err == nil {
		*dst = v
		return
	}

	a.stale[ch]++
	n := a.stale[ch]
	// Only the first and every 100th miss are logged.
	if n == 1 || n%100 == 0 {
		if errors.Is(err, sensor.ErrUnavailable) {
			log.Printf("%s unavailable (%d stale reads), reusing %.3f", ch, n, *dst)
		} else {
			log.Printf("%s read failed (%d stale reads), reusing %.3f: %v", ch, n, *dst, err)
		}
	}
}
