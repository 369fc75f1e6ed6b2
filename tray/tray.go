package tray

import (
	"log"

	"github.com/getlantern/systray"
)

// Config wires the tray menu to the host application.
type Config struct {
	Tooltip string

	// OnToggle flips monitoring on/off and returns true when monitoring is
	// now paused, so the menu item can relabel itself.
	OnToggle func() bool

	// OnExit is invoked when the user picks Quit.
	OnExit func()
}

// Run blocks serving the tray icon until Quit is called or the user exits.
func Run(cfg Config) {
	systray.Run(func() { onReady(cfg) }, func() {})
}

// Quit tears the tray down and unblocks Run.
func Quit() {
	systray.Quit()
}

func onReady(cfg Config) {
	systray.SetTitle("Selection Monitor")
	systray.SetTooltip(cfg.Tooltip)

	mToggle := systray.AddMenuItem("Pause monitoring", "Pause or resume selection monitoring")
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mToggle.ClickedCh:
				if cfg.OnToggle == nil {
					continue
				}
				if paused := cfg.OnToggle(); paused {
					mToggle.SetTitle("Resume monitoring")
				} else {
					mToggle.SetTitle("Pause monitoring")
				}
			case <-mQuit.ClickedCh:
				log.Printf("Tray: quit requested")
				if cfg.OnExit != nil {
					cfg.OnExit()
				}
				systray.Quit()
				return
			}
		}
	}()
}
