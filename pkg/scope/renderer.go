package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/thruststand/pkg/meter"
)

var (
	gridColor   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	thrustColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	heightColor = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	burnColor   = color.RGBA{R: 0, G: 100, B: 200, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid    *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// plotArea maps data coordinates into the widget.
type plotArea struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

func (p plotArea) px(t time.Time) float32 {
	return p.x + float32(t.Sub(p.xMin).Seconds()/p.xMax.Sub(p.xMin).Seconds())*p.w
}

func (p plotArea) py(v, lo, hi float64) float32 {
	return p.y + p.h - float32((v-lo)/(hi-lo))*p.h
}

func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	snaps := r.scope.display
	burns := r.scope.burns
	tMin, tMax := r.scope.thrustMin, r.scope.thrustMax
	hMin, hMax := r.scope.heightMin, r.scope.heightMax
	xMin, xMax := r.scope.xMin, r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = 60
		marginRight  = 60
		marginTop    = 20
		marginBottom = 40
	)
	p := plotArea{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		xMin: xMin,
		xMax: xMax,
	}

	r.drawGrid(p, tMin, tMax, hMin, hMax)
	r.drawBurns(p, burns)
	r.drawTrace(p, snaps, tMin, tMax, thrustColor, 1.5, func(m meter.Snapshot) float64 { return m.Thrust })
	r.drawTrace(p, snaps, hMin, hMax, heightColor, 2.5, func(m meter.Snapshot) float64 { return m.Height })
}

// drawGrid draws the grid with thrust labels on the left and height labels
// on the right.
func (r *scopeRenderer) drawGrid(p plotArea, tMin, tMax, hMin, hMax float64) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/numHLines
		r.line(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		thrust := tMax - float64(i)*(tMax-tMin)/numHLines
		r.text(formatFloat(thrust, 2)+"N", thrustColor, 10, fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))

		height := hMax - float64(i)*(hMax-hMin)/numHLines
		r.text(formatFloat(height, 2)+"m", heightColor, 10, fyne.TextAlignLeading, fyne.NewPos(p.x+p.w+5, y-6))
	}

	const numVLines = 10
	span := p.xMax.Sub(p.xMin)
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/numVLines
		r.line(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		offset := span * time.Duration(i) / numVLines
		r.text(formatTime(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
	}
}

// drawTrace draws one value of the snapshots as connected segments.
func (r *scopeRenderer) drawTrace(p plotArea, snaps []meter.Snapshot, lo, hi float64, c color.Color, width float32, value func(meter.Snapshot) float64) {
	if len(snaps) < 2 {
		return
	}

	prev := fyne.NewPos(p.px(snaps[0].Timestamp), p.py(value(snaps[0]), lo, hi))
	for _, m := range snaps[1:] {
		cur := fyne.NewPos(p.px(m.Timestamp), p.py(value(m), lo, hi))
		r.line(c, width, prev, cur)
		prev = cur
	}
}

// drawBurns marks each burn with start and end lines and its duration.
func (r *scopeRenderer) drawBurns(p plotArea, burns []burnSpan) {
	for _, b := range burns {
		xStart := p.px(b.start)
		r.line(burnColor, 1, fyne.NewPos(xStart, p.y), fyne.NewPos(xStart, p.y+p.h))

		label := "burning"
		if !b.open {
			xEnd := p.px(b.end)
			r.line(burnColor, 1, fyne.NewPos(xEnd, p.y), fyne.NewPos(xEnd, p.y+p.h))
			label = formatTime(b.duration)
		}

		center := b.start.Add(b.end.Sub(b.start) / 2)
		r.text(label, thrustColor, 12, fyne.TextAlignCenter, fyne.NewPos(p.px(center)-30, p.y+5))
	}
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) text(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *scopeRenderer) Destroy() {}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return formatFloat(d.Seconds(), 2) + "s"
	}
	return formatFloat(d.Seconds(), 1) + "s"
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
