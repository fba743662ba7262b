package baro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAltitude_SeaLevel(t *testing.T) {
	assert.InDelta(t, 0, Altitude(101325, StandardSeaLevelHPa), 0.01)
}

func TestAltitude_KnownPoints(t *testing.T) {
	tests := []struct {
		name     string
		pressure float32
		want     float32
	}{
		{name: "roughly 111m", pressure: 100000, want: 110.9},
		{name: "roughly 988m", pressure: 90000, want: 988.5},
		{name: "below sea level", pressure: 102000, want: -56.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Altitude(tt.pressure, StandardSeaLevelHPa), 1.0)
		})
	}
}

func TestPressure_InvertsAltitude(t *testing.T) {
	for _, alt := range []float32{0, 1, 5, 120, 850} {
		p := Pressure(alt, 1008)
		assert.InDelta(t, alt, Altitude(p, 1008), 0.05)
	}
}
