package main

import (
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thruststand/pkg/meter"
)

// sendCommand sends a test session command to the stand.
func sendCommand(state *appState, cmd meter.Command) {
	if state.client == nil {
		return
	}
	if err := state.client.Send(cmd); err != nil {
		dialog.ShowError(err, state.window)
	}
}

// updateTestButtons highlights Start while the stand reports a running test.
func updateTestButtons(state *appState, running bool) {
	setImportance(state.startBtn, running)
}

func setImportance(btn *widget.Button, on bool) {
	want := widget.MediumImportance
	if on {
		want = widget.HighImportance
	}
	if btn.Importance != want {
		btn.Importance = want
		btn.Refresh()
	}
}
