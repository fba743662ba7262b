package meter

// MaxHeight tracks the highest height seen. It starts at the baseline (0).
type MaxHeight struct {
	max float64
}

func (m *MaxHeight) Update(height float64) {
	if height > m.max {
		m.max = height
	}
}

func (m *MaxHeight) Value() float64 {
	return m.max
}
