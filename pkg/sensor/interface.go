package sensor

import "errors"

// ErrUnavailable is returned by Peripherals reads when no fresh value exists
// for the requested channel.
var ErrUnavailable = errors.New("sensor reading unavailable")

// Device defines the interface for acquisition boards (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan RawFrame
	IsConnected() bool
}

// Peripherals is the pull-style view of the stand's sensors. Every read is
// fallible and returns ErrUnavailable (possibly wrapped) when the value is
// missing or stale. Units are Newtons, meters, Pa and °C.
type Peripherals interface {
	ReadThrust() (float64, error)
	ReadAltitude(seaLevelHPa float64) (float64, error)
	ReadPressure() (float64, error)
	ReadTemperature() (float64, error)
}

var (
	_ Device      = (*Serial)(nil)
	_ Device      = (*Mock)(nil)
	_ Peripherals = (*Stand)(nil)
)
