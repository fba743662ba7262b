package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxHeight(t *testing.T) {
	var m MaxHeight
	for _, h := range []float64{0, 1, 2, 5, 3} {
		m.Update(h)
	}
	assert.Equal(t, 5.0, m.Value())
}

func TestMaxHeight_BelowBaseline(t *testing.T) {
	var m MaxHeight
	m.Update(-0.4)
	m.Update(-1)
	assert.Equal(t, 0.0, m.Value())
}
