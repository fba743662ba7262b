package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thruststand/pkg/meter"
)

// statusLabels are the live readouts under the scope.
type statusLabels struct {
	thrust      *widget.Label
	height      *widget.Label
	stability   *widget.Label
	environment *widget.Label
	burn        *widget.Label
	test        *widget.Label
}

func createStatusBar(state *appState) fyne.CanvasObject {
	l := &state.labels
	l.thrust = widget.NewLabel("Thrust: -")
	l.height = widget.NewLabel("Height: -")
	l.stability = widget.NewLabel("Stability: -")
	l.environment = widget.NewLabel("-")
	l.burn = widget.NewLabel("Burn: -")
	l.test = widget.NewLabel("Test: stopped")

	return container.NewGridWithColumns(3,
		l.thrust, l.height, l.stability,
		l.burn, l.test, l.environment,
	)
}

// updateStatus refreshes the readouts. Must run on the Fyne thread.
func updateStatus(state *appState, latest, peak meter.Snapshot) {
	l := &state.labels
	l.thrust.SetText(fmt.Sprintf("Thrust: %.2f N (peak %.2f N)", latest.Thrust, peak.Thrust))
	l.height.SetText(fmt.Sprintf("Height: %.2f m (max %.2f m)", latest.Height, latest.MaxHeight))
	l.stability.SetText(fmt.Sprintf("Stability: %.2f", latest.Stability))
	l.environment.SetText(fmt.Sprintf("%.0f Pa, %.1f °C", latest.Pressure, latest.Temperature))
	l.burn.SetText(burnText(latest))
	l.test.SetText(testText(latest))

	updateTestButtons(state, latest.TestRunning)
}

func burnText(s meter.Snapshot) string {
	if s.Burning {
		return "Burn: BURNING " + formatSeconds(s.Time)
	}
	if s.BurnDuration > 0 {
		return "Burn: last " + formatSeconds(s.BurnDuration)
	}
	return "Burn: none"
}

func testText(s meter.Snapshot) string {
	if s.TestRunning {
		return "Test: running " + formatSeconds(s.TestTime)
	}
	return "Test: stopped (" + formatSeconds(s.TestTime) + ")"
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1f s", d.Seconds())
}
