package hotkey

import (
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

// Listen registers a global hotkey like "Ctrl+Alt+S" and invokes callback on
// each press. The hook runs on its own goroutine for the life of the
// process; call Stop to tear the hook down.
func Listen(combo string, callback func()) {
	if combo == "" {
		return
	}
	keys := parseHotkey(combo)
	if len(keys) == 0 {
		log.Printf("Hotkey: nothing to register for %q", combo)
		return
	}
	log.Printf("Hotkey: registering %v", keys)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		gohook.Register(gohook.KeyDown, keys, func(e gohook.Event) {
			log.Printf("Hotkey: %s pressed", combo)
			callback()
		})
		s := gohook.Start()
		<-gohook.Process(s)
		log.Printf("Hotkey: event hook ended")
	}()
}

// Stop ends the global hook started by Listen.
func Stop() {
	gohook.End()
}

// parseHotkey converts a combo string like "Ctrl+Alt+s" to gohook key names.
func parseHotkey(combo string) []string {
	parts := strings.Split(strings.ToLower(combo), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}
