package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/thruststand/pkg/baro"
	"github.com/itohio/thruststand/pkg/clock"
	"github.com/itohio/thruststand/pkg/config"
)

// Stand adapts a streaming Device to Peripherals. It keeps the most recent
// frame and answers reads from it; frames older than the configured
// staleness bound are treated as unavailable.
type Stand struct {
	dev        Device
	clock      clock.Clock
	fullScale  float64
	staleAfter time.Duration

	mu     sync.RWMutex
	latest RawFrame
	have   bool

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

// NewStand creates a Stand reading from dev. Call Start once dev is connected.
func NewStand(dev Device, clk clock.Clock, cfg config.SensorConfig) *Stand {
	return &Stand{
		dev:        dev,
		clock:      clk,
		fullScale:  cfg.ThrustFullScale,
		staleAfter: cfg.StaleAfter,
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins consuming frames from the device.
func (s *Stand) Start() {
	go s.consume()
}

func (s *Stand) consume() {
	defer close(s.done)
	for frame := range s.dev.Frames() {
		s.mu.Lock()
		s.latest = frame
		s.have = true
		s.mu.Unlock()

		if frame.PressureOK && frame.TemperatureOK {
			s.readyOnce.Do(func() { close(s.ready) })
		}
	}
}

// WaitReady blocks until a frame with every channel present has arrived.
func (s *Stand) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return fmt.Errorf("device stopped before first complete frame")
	case <-ctx.Done():
		return fmt.Errorf("no complete frame from device: %w", ctx.Err())
	}
}

// Close closes the device and waits for the frame consumer to finish.
func (s *Stand) Close() error {
	err := s.dev.Close()
	<-s.done
	return err
}

// frame returns the latest frame if it is fresh enough.
func (s *Stand) frame() (RawFrame, error) {
	s.mu.RLock()
	frame, have := s.latest, s.have
	s.mu.RUnlock()

	if !have {
		return RawFrame{}, fmt.Errorf("no frame received: %w", ErrUnavailable)
	}
	if age := s.clock.Since(frame.Timestamp); age > s.staleAfter {
		return RawFrame{}, fmt.Errorf("latest frame is %v old: %w", age, ErrUnavailable)
	}
	return frame, nil
}

// ReadThrust returns the load cell force in Newtons.
func (s *Stand) ReadThrust() (float64, error) {
	frame, err := s.frame()
	if err != nil {
		return 0, err
	}
	return ThrustFromADC(frame.Thrust, s.fullScale), nil
}

// ReadPressure returns the barometric pressure in Pa.
func (s *Stand) ReadPressure() (float64, error) {
	frame, err := s.frame()
	if err != nil {
		return 0, err
	}
	if !frame.PressureOK {
		return 0, fmt.Errorf("pressure: %w", ErrUnavailable)
	}
	return frame.Pressure, nil
}

// ReadTemperature returns the barometer temperature in °C.
func (s *Stand) ReadTemperature() (float64, error) {
	frame, err := s.frame()
	if err != nil {
		return 0, err
	}
	if !frame.TemperatureOK {
		return 0, fmt.Errorf("temperature: %w", ErrUnavailable)
	}
	return frame.Temperature, nil
}

// ReadAltitude returns the absolute barometric altitude in meters.
func (s *Stand) ReadAltitude(seaLevelHPa float64) (float64, error) {
	p, err := s.ReadPressure()
	if err != nil {
		return 0, err
	}
	return float64(baro.Altitude(float32(p), float32(seaLevelHPa))), nil
}

// ThrustFromADC converts a 12-bit load cell reading to Newtons.
func ThrustFromADC(adc uint16, fullScale float64) float64 {
	return float64(adc) * fullScale / ADCMax
}
