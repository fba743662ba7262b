package meter

import "gonum.org/v1/gonum/stat"

// StabilityWindow is the number of recent thrust readings the stability
// metric is computed over.
const StabilityWindow = 10

// Stability tracks the spread of the most recent thrust readings.
//
// The ring starts zero-filled, so during the first StabilityWindow cycles
// the metric includes those zeros.
type Stability struct {
	buf   [StabilityWindow]float64
	index int
}

// Update stores thrust over the oldest reading.
func (s *Stability) Update(thrust float64) {
	s.buf[s.index] = thrust
	s.index = (s.index + 1) % StabilityWindow
}

// Stability returns the population standard deviation of the window.
func (s *Stability) Stability() float64 {
	return stat.PopStdDev(s.buf[:], nil)
}
