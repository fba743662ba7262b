package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thruststand/pkg/meter"
)

// burnSpan is one burn visible in the scope window.
type burnSpan struct {
	start, end time.Time
	duration   time.Duration // zero while the burn is still running
	open       bool
}

// ScopeWidget is a custom Fyne widget plotting thrust and height over time.
type ScopeWidget struct {
	widget.BaseWidget

	window time.Duration

	// Data (protected by mu)
	mu      sync.RWMutex
	display []meter.Snapshot
	burns   []burnSpan

	// Auto-scaling. Thrust uses the left axis, height the right one.
	thrustMin, thrustMax float64
	heightMin, heightMax float64
	xMin, xMax           time.Time

	maxDisplayPoints int
}

// New creates a scope showing at least window worth of history.
func New(window time.Duration) *ScopeWidget {
	s := &ScopeWidget{
		window:           window,
		display:          make([]meter.Snapshot, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.updateAutoScale()
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData replaces the plotted history. Call it on the Fyne thread
// (fyne.Do) from a meter.History callback.
func (s *ScopeWidget) UpdateData(snapshots []meter.Snapshot) {
	s.mu.Lock()
	s.display = Downsample(s.display, snapshots, s.maxDisplayPoints)
	s.burns = burnSpans(snapshots)
	s.updateAutoScale()
	s.mu.Unlock()

	s.Refresh()
}

func (s *ScopeWidget) updateAutoScale() {
	if len(s.display) == 0 {
		s.thrustMin, s.thrustMax = 0, 1
		s.heightMin, s.heightMax = 0, 1
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}

	s.thrustMin, s.thrustMax = valueRange(s.display, func(m meter.Snapshot) float64 { return m.Thrust })
	s.heightMin, s.heightMax = valueRange(s.display, func(m meter.Snapshot) float64 { return m.Height })

	s.xMin = s.display[0].Timestamp
	s.xMax = s.display[len(s.display)-1].Timestamp
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// valueRange returns the span of value over snaps, always including zero,
// with a 10% margin.
func valueRange(snaps []meter.Snapshot, value func(meter.Snapshot) float64) (lo, hi float64) {
	for _, m := range snaps {
		v := value(m)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	r := hi - lo
	if r == 0 {
		r = 1
	}
	margin := r * 0.1
	return lo - margin, hi + margin
}

// burnSpans finds the burns in snaps from the Burning flag. A burn that
// started before the first snapshot starts at it; one still running is
// marked open.
func burnSpans(snaps []meter.Snapshot) []burnSpan {
	var spans []burnSpan
	var cur *burnSpan
	for _, m := range snaps {
		switch {
		case m.Burning && cur == nil:
			spans = append(spans, burnSpan{start: m.Timestamp})
			cur = &spans[len(spans)-1]
		case !m.Burning && cur != nil:
			cur.end = m.Timestamp
			cur.duration = m.BurnDuration
			cur = nil
		}
	}
	if cur != nil {
		cur.end = snaps[len(snaps)-1].Timestamp
		cur.open = true
	}
	return spans
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
