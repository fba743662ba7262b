package sensor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/thruststand/pkg/baro"
	"github.com/itohio/thruststand/pkg/config"
)

// Mock simulates the acquisition board with periodic motor firings.
type Mock struct {
	cfg       *config.MockConfig
	fullScale float64

	frames    chan RawFrame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	startTime   time.Time
	temperature float64
}

// NewMock creates a new simulated board. fullScale is the thrust in Newtons
// that maps to ADCMax.
func NewMock(cfg *config.MockConfig, fullScale float64) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	if fullScale <= 0 {
		fullScale = config.Default().Sensor.ThrustFullScale
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		fullScale: fullScale,
		frames:    make(chan RawFrame, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect starts generating frames.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()
	m.temperature = 21.0

	go m.generateFrames()

	return nil
}

// Close stops the simulated board.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false

	return nil
}

// Frames returns the channel of generated frames.
func (m *Mock) Frames() <-chan RawFrame {
	return m.frames
}

// IsConnected returns whether the simulated board is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generateFrames() {
	defer close(m.frames)

	ticker := time.NewTicker(m.cfg.FramePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			frame := m.generateFrame(now.Sub(m.startTime))
			frame.Timestamp = now
			select {
			case m.frames <- frame:
			case <-m.ctx.Done():
				return
			default:
			}
		}
	}
}

// generateFrame builds the frame for elapsed time since Connect.
func (m *Mock) generateFrame(elapsed time.Duration) RawFrame {
	t := elapsed.Seconds()
	thrust := m.thrustAt(elapsed)
	thrust += (math.Sin(t*37.0) + math.Cos(t*53.0)) * m.cfg.Noise * 0.5

	// Motor case heating, relaxing back to ambient.
	target := 21.0
	if thrust > 1 {
		target += thrust * 0.2
	}
	m.temperature += (target - m.temperature) * 0.01

	// The stand does not fly; altitude only wanders by a few centimeters.
	altitude := 0.05 * math.Sin(t*0.3)
	pressure := float64(baro.Pressure(float32(altitude), float32(m.cfg.GroundHPa)))

	return RawFrame{
		DeviceMicros:  elapsed.Microseconds(),
		Thrust:        m.thrustToADC(thrust),
		Pressure:      pressure,
		PressureOK:    true,
		Temperature:   m.temperature,
		TemperatureOK: true,
	}
}

// thrustAt returns the simulated motor thrust in Newtons. The first firing
// starts one FirePeriod after Connect. A firing is a short spike to
// PeakThrust followed by a sustain phase at 40% that tails off linearly.
func (m *Mock) thrustAt(elapsed time.Duration) float64 {
	if elapsed < m.cfg.FirePeriod {
		return 0
	}
	inBurn := (elapsed - m.cfg.FirePeriod) % m.cfg.FirePeriod
	if inBurn >= m.cfg.BurnDuration {
		return 0
	}

	phase := float64(inBurn) / float64(m.cfg.BurnDuration)
	switch {
	case phase < 0.1:
		return m.cfg.PeakThrust * phase / 0.1
	case phase < 0.2:
		return m.cfg.PeakThrust * (1 - 6*(phase-0.1))
	case phase < 0.8:
		return m.cfg.PeakThrust * 0.4
	default:
		return m.cfg.PeakThrust * 0.4 * (1 - phase) / 0.2
	}
}

func (m *Mock) thrustToADC(thrust float64) uint16 {
	val := thrust / m.fullScale * ADCMax
	if val < 0 {
		val = 0
	} else if val > ADCMax {
		val = ADCMax
	}
	return uint16(val)
}
