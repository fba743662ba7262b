// Package telemetry streams flight metrics to remote observers over
// WebSocket and accepts their test commands.
package telemetry

import (
	"time"

	"github.com/itohio/thruststand/pkg/meter"
)

// Message is the wire form of a meter.Snapshot. Durations are integer
// milliseconds. The same field names are used for JSON and CBOR.
type Message struct {
	Time        int64   `json:"time"`
	Thrust      float64 `json:"thrust"`
	Height      float64 `json:"height"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
	Stability   float64 `json:"stability"`
	TestTime    int64   `json:"testtime"`
	TestRunning bool    `json:"testRunning"`
	Burning     bool    `json:"burning"`
	BurnTime    int64   `json:"burnTime"`
	MaxHeight   float64 `json:"maxHeight"`
}

// FromSnapshot converts s to its wire form.
func FromSnapshot(s meter.Snapshot) Message {
	return Message{
		Time:        s.Time.Milliseconds(),
		Thrust:      s.Thrust,
		Height:      s.Height,
		Pressure:    s.Pressure,
		Temperature: s.Temperature,
		Stability:   s.Stability,
		TestTime:    s.TestTime.Milliseconds(),
		TestRunning: s.TestRunning,
		Burning:     s.Burning,
		BurnTime:    s.BurnDuration.Milliseconds(),
		MaxHeight:   s.MaxHeight,
	}
}

// Snapshot converts m back to a meter.Snapshot stamped with receivedAt.
func (m Message) Snapshot(receivedAt time.Time) meter.Snapshot {
	return meter.Snapshot{
		Timestamp:    receivedAt,
		Time:         time.Duration(m.Time) * time.Millisecond,
		Thrust:       m.Thrust,
		Height:       m.Height,
		Pressure:     m.Pressure,
		Temperature:  m.Temperature,
		Stability:    m.Stability,
		TestTime:     time.Duration(m.TestTime) * time.Millisecond,
		TestRunning:  m.TestRunning,
		Burning:      m.Burning,
		BurnDuration: time.Duration(m.BurnTime) * time.Millisecond,
		MaxHeight:    m.MaxHeight,
	}
}
