package sample

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/itohio/thruststand/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePeripherals replays scripted readings. A NaN entry fails that read.
type fakePeripherals struct {
	thrust, altitude, pressure, temperature []float64
	i                                       int
	seaLevel                                float64
}

func (f *fakePeripherals) next(vals []float64) (float64, error) {
	if len(vals) == 0 {
		return 0, sensor.ErrUnavailable
	}
	idx := f.i
	if idx >= len(vals) {
		idx = len(vals) - 1
	}
	v := vals[idx]
	if math.IsNaN(v) {
		return 0, fmt.Errorf("scripted: %w", sensor.ErrUnavailable)
	}
	return v, nil
}

func (f *fakePeripherals) ReadThrust() (float64, error) { return f.next(f.thrust) }
func (f *fakePeripherals) ReadAltitude(seaLevelHPa float64) (float64, error) {
	f.seaLevel = seaLevelHPa
	return f.next(f.altitude)
}
func (f *fakePeripherals) ReadPressure() (float64, error)    { return f.next(f.pressure) }
func (f *fakePeripherals) ReadTemperature() (float64, error) { return f.next(f.temperature) }

var nan = math.NaN()

func TestNew_BaselineFailure(t *testing.T) {
	p := &fakePeripherals{altitude: []float64{nan}}
	a, err := New(p, 1013.25)
	assert.Nil(t, a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sensor.ErrUnavailable))
}

func TestNew_Baseline(t *testing.T) {
	p := &fakePeripherals{altitude: []float64{312.5}}
	a, err := New(p, 1009)
	require.NoError(t, err)
	assert.Equal(t, 312.5, a.Baseline())
	assert.Equal(t, 1009.0, p.seaLevel)
}

func TestAcquire_HeightRelativeToBaseline(t *testing.T) {
	p := &fakePeripherals{
		thrust:      []float64{1.5},
		altitude:    []float64{100, 100, 102.25},
		pressure:    []float64{101000},
		temperature: []float64{22},
	}
	a, err := New(p, 1013.25)
	require.NoError(t, err)

	now := time.Now()
	p.i = 1
	s := a.Acquire(now)
	assert.Equal(t, now, s.Timestamp)
	assert.Equal(t, 1.5, s.Thrust)
	assert.Equal(t, 0.0, s.Height)
	assert.Equal(t, 101000.0, s.Pressure)
	assert.Equal(t, 22.0, s.Temperature)

	p.i = 2
	s = a.Acquire(now.Add(100 * time.Millisecond))
	assert.InDelta(t, 2.25, s.Height, 1e-9)
}

func TestAcquire_ReusesLastValidValue(t *testing.T) {
	p := &fakePeripherals{
		thrust:      []float64{0, 3, nan, nan, 4},
		altitude:    []float64{50, 51, 52, nan, 53},
		pressure:    []float64{0, 100, nan, 101, 102},
		temperature: []float64{0, nan, 20, 21, nan},
	}
	a, err := New(p, 1013.25)
	require.NoError(t, err)

	want := []Sample{
		{Thrust: 3, Height: 1, Pressure: 100, Temperature: 0},
		{Thrust: 3, Height: 2, Pressure: 100, Temperature: 20},
		{Thrust: 3, Height: 2, Pressure: 101, Temperature: 21},
		{Thrust: 4, Height: 3, Pressure: 102, Temperature: 21},
	}

	now := time.Now()
	for i, w := range want {
		p.i = i + 1
		got := a.Acquire(now)
		w.Timestamp = now
		assert.Equal(t, w, got, "cycle %d", i)
	}

	assert.Equal(t, uint64(2), a.Stale(Thrust))
	assert.Equal(t, uint64(1), a.Stale(Height))
	assert.Equal(t, uint64(1), a.Stale(Pressure))
	assert.Equal(t, uint64(2), a.Stale(Temperature))
}

func TestAcquire_InitialValuesAreZero(t *testing.T) {
	p := &fakePeripherals{altitude: []float64{10, nan}}
	a, err := New(p, 1013.25)
	require.NoError(t, err)

	p.i = 1
	s := a.Acquire(time.Now())
	assert.Equal(t, 0.0, s.Thrust)
	assert.Equal(t, 0.0, s.Height)
	assert.Equal(t, 0.0, s.Pressure)
	assert.Equal(t, 0.0, s.Temperature)
}

func TestChannel_String(t *testing.T) {
	assert.Equal(t, "thrust", Thrust.String())
	assert.Equal(t, "height", Height.String())
	assert.Equal(t, "pressure", Pressure.String())
	assert.Equal(t, "temperature", Temperature.String())
	assert.Equal(t, "channel(9)", Channel(9).String())
}
