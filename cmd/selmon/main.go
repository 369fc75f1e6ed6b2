// Command selmon is a resident demo host for the selection monitor: it runs
// the monitor, logs every settled selection, and offers a tray icon plus an
// optional global hotkey to pause/resume. With CLIPBOARD_ECHO=true each
// settled selection is also copied to the clipboard.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"selection-monitor/clipboard"
	"selection-monitor/config"
	"selection-monitor/hotkey"
	"selection-monitor/logutil"
	"selection-monitor/monitor"
	"selection-monitor/tray"
	"selection-monitor/uia"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable verbose diagnostic logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *debugFlag {
		cfg.Debug = true
	}
	logutil.Setup(cfg.Debug, cfg.EnableFileLogging)

	svc, err := uia.NewPlatformService()
	if err != nil {
		log.Fatalf("No accessibility backend: %v", err)
	}

	if cfg.ClipboardEcho {
		if err := clipboard.Init(); err != nil {
			log.Printf("Clipboard unavailable, echo disabled: %v", err)
			cfg.ClipboardEcho = false
		}
	}

	mon := monitor.New(svc, monitor.Options{
		SettleDelay:  cfg.SettleDelay,
		PollInterval: cfg.PollInterval,
	})
	mon.SetCallback(func(text string, x, y int) {
		log.Printf("Selection settled at (%d,%d): %q", x, y, text)
		if cfg.ClipboardEcho {
			if err := clipboard.Write(text); err != nil {
				log.Printf("Clipboard write failed: %v", err)
			}
		}
	})

	if !mon.Start() {
		log.Fatalf("Failed to start selection monitor")
	}
	log.Printf("Selection monitor running (settle=%v poll=%v)", cfg.SettleDelay, cfg.PollInterval)

	// Start/Stop must be serialized; the toggle can fire from the tray and
	// the hotkey goroutines.
	var lifecycleMu sync.Mutex
	paused := false
	toggle := func() bool {
		lifecycleMu.Lock()
		defer lifecycleMu.Unlock()
		if paused {
			mon.Start()
		} else {
			mon.Stop()
		}
		paused = !paused
		log.Printf("Monitoring paused=%v", paused)
		return paused
	}

	if cfg.Hotkey != "" {
		hotkey.Listen(cfg.Hotkey, func() { toggle() })
		defer hotkey.Stop()
	}

	exitRequested := make(chan struct{}, 1)
	go tray.Run(tray.Config{
		Tooltip:  "Selection Monitor - watching for text selections",
		OnToggle: toggle,
		OnExit: func() {
			select {
			case exitRequested <- struct{}{}:
			default:
			}
		},
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Printf("Shutting down due to signal...")
		tray.Quit()
	case <-exitRequested:
		// Tray already quit itself.
		log.Printf("Shutting down due to tray exit...")
	}

	lifecycleMu.Lock()
	if !paused {
		mon.Stop()
	}
	lifecycleMu.Unlock()
}
