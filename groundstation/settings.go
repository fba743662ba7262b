package main

import (
	"fmt"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showSettingsDialog lets the operator change the stand endpoint. Changes
// apply to the next connection and are not saved.
func showSettingsDialog(state *appState) {
	urlEntry := widget.NewEntry()
	urlEntry.SetText(state.url)
	urlEntry.Validator = validateURL

	items := []*widget.FormItem{
		widget.NewFormItem("Stand URL", urlEntry),
	}

	d := dialog.NewForm("Settings", "Apply", "Cancel", items, func(ok bool) {
		if ok {
			state.url = urlEntry.Text
		}
	}, state.window)
	d.Resize(fyne.NewSize(500, 200))
	d.Show()
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("scheme must be ws or wss")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
