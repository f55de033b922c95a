package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"

	"github.com/isaiah-harvey/logicrpc/internal/daemon/presence"
)

const (
	title   = "lgrp"
	tooltip = "Logic Pro RPC"
)

var (
	state   DaemonState
	login   LoginItem
	onStart func()
	onExit  func()

	// mu guards the menu items, which exist only after onReady.
	mu         sync.Mutex
	statusItem *systray.MenuItem
	loginItem  *systray.MenuItem
	quitItem   *systray.MenuItem
)

// Run starts the menu bar item. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (start presence and gRPC here).
// onExitFn is called when the tray exits (cleanup here).
func Run(s DaemonState, l LoginItem, onStartFn, onExitFn func()) {
	state = s
	login = l
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTitle(title)
	systray.SetTooltip(tooltip)

	mu.Lock()
	statusItem = systray.AddMenuItem("Starting...", "")
	statusItem.Disable()

	systray.AddSeparator()

	enabled := login != nil && login.IsEnabled()
	loginItem = systray.AddMenuItemCheckbox("Start at Login", "Launch Logic Pro RPC when you log in", enabled)
	if login == nil {
		loginItem.Disable()
	}

	systray.AddSeparator()
	quitItem = systray.AddMenuItem("Quit", "Stop publishing presence and quit")
	mu.Unlock()

	// Start the daemon services
	if onStart != nil {
		onStart()
	}

	if state != nil {
		UpdatePresence(state.Snapshot())
	}

	// Handle click events
	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-loginItem.ClickedCh:
			toggleLogin()

		case <-quitItem.ClickedCh:
			if state != nil {
				state.RequestShutdown()
			}
		}
	}
}

// toggleLogin flips the login item. On failure the checkbox keeps its
// previous state and the system beeps.
func toggleLogin() {
	if login == nil {
		return
	}

	if loginItem.Checked() {
		if err := login.Disable(); err != nil {
			log.Printf("[tray] failed to disable start at login: %v", err)
			beep()
			return
		}
		loginItem.Uncheck()
		return
	}

	if err := login.Enable(); err != nil {
		log.Printf("[tray] failed to enable start at login: %v", err)
		beep()
		return
	}
	loginItem.Check()
}

// UpdatePresence refreshes the status line. It is safe to call before the
// tray is ready; the update is dropped.
func UpdatePresence(snap presence.Snapshot) {
	mu.Lock()
	defer mu.Unlock()
	if statusItem == nil {
		return
	}

	var startErr error
	if state != nil {
		startErr = state.PresenceError()
	}
	statusItem.SetTitle(statusLine(snap, startErr))
}
