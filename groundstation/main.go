package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/itohio/thruststand/pkg/observer"
	"github.com/itohio/thruststand/pkg/scope"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		urlFlag    = flag.StringP("url", "u", "ws://localhost:81/", "Stand telemetry endpoint")
		windowFlag = flag.Duration("window", 30*time.Second, "Scope history window")
	)
	flag.Parse()

	application := app.NewWithID("com.itohio.thruststand")

	window := application.NewWindow("Thrust Stand")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		url:     *urlFlag,
		window:  window,
		history: meter.NewHistory(*windowFlag),
	}

	toolbar := createToolbar(state)
	state.scopeWidget = scope.New(*windowFlag)
	status := createStatusBar(state)

	// Throttle scope updates to ~60 FPS.
	const updateInterval = 16 * time.Millisecond
	state.history.OnUpdate(func(snapshots []meter.Snapshot) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		peak := state.history.Peak()
		fyne.Do(func() {
			state.scopeWidget.UpdateData(snapshots)
			if len(snapshots) > 0 {
				updateStatus(state, snapshots[len(snapshots)-1], peak)
			}
		})
	})

	window.SetContent(container.NewBorder(toolbar, status, nil, nil, state.scopeWidget))
	window.SetOnClosed(func() {
		disconnect(state)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	url         string
	window      fyne.Window
	history     *meter.History
	scopeWidget *scope.ScopeWidget

	connectBtn *widget.Button
	startBtn   *widget.Button
	stopBtn    *widget.Button
	labels     statusLabels

	client     *observer.Client
	clientDone chan struct{} // Closed when the history feed exits

	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Connect, Settings and the test
// session buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.startBtn = widget.NewButtonWithIcon("Start test", theme.MediaPlayIcon(), func() {
		sendCommand(state, meter.StartTest)
	})
	state.startBtn.Disable()

	state.stopBtn = widget.NewButtonWithIcon("Stop test", theme.MediaStopIcon(), func() {
		sendCommand(state, meter.StopTest)
	})
	state.stopBtn.Disable()

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(state.connectBtn, settingsBtn),
		container.NewHBox(state.startBtn, state.stopBtn),
		nil,
	)
}

// handleConnect toggles the connection to the stand.
func handleConnect(state *appState) {
	if state.client != nil {
		disconnect(state)
		log.Printf("Disconnected from %s", state.url)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := observer.Dial(ctx, state.url)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.url, err), state.window)
		return
	}
	log.Printf("Connected to %s", state.url)

	state.client = client
	state.history.Reset()
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.startBtn.Enable()
	state.stopBtn.Enable()

	done := make(chan struct{})
	state.clientDone = done
	go func() {
		defer close(done)
		state.history.ProcessSnapshots(client.Snapshots())
		fyne.Do(func() {
			// The stand went away without us asking.
			if state.client == client {
				state.client = nil
				state.clientDone = nil
				resetToolbar(state)
				dialog.ShowInformation("Disconnected", "Lost connection to "+state.url, state.window)
			}
		})
	}()
}

// disconnect closes the connection and waits for the feed to drain.
func disconnect(state *appState) {
	client := state.client
	if client == nil {
		return
	}
	state.client = nil
	client.Close()
	if state.clientDone != nil {
		<-state.clientDone
		state.clientDone = nil
	}
	resetToolbar(state)
}

func resetToolbar(state *appState) {
	state.connectBtn.SetIcon(theme.LoginIcon())
	state.startBtn.Disable()
	state.stopBtn.Disable()
}
