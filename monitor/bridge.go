package monitor

import (
	"log"
	"runtime"

	"selection-monitor/uia"
)

// subscribedKinds are the accessibility notifications treated as potential
// selection changes. Apps and browsers disagree about which one they fire;
// the debounce engine downstream absorbs the noise.
var subscribedKinds = []uia.EventKind{
	uia.EventSelectionChanged,
	uia.EventTextChanged,
	uia.EventTextEditChanged,
}

// bridgeLoop is the dedicated accessibility worker. The platform service is
// thread-affine, so the goroutine locks its OS thread and every service call
// of the whole pipeline happens on this call stack, inside Pump's dispatch.
func (m *Monitor) bridgeLoop() {
	defer close(m.bridgeDone)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := m.svc.Initialize(); err != nil {
		log.Printf("[bridge] service init failed: %v", err)
		return
	}
	defer m.svc.Teardown()

	root, err := m.svc.Root()
	if err != nil {
		log.Printf("[bridge] no tree root: %v", err)
		return
	}
	defer root.Release()

	registered := 0
	for _, kind := range subscribedKinds {
		if err := m.svc.Subscribe(kind, root, m.handleEvent); err != nil {
			// Some providers reject individual registrations; any subset
			// is enough to keep going.
			log.Printf("[bridge] subscribe %v failed: %v", kind, err)
			continue
		}
		registered++
		kind := kind
		defer func() {
			if err := m.svc.Unsubscribe(kind, root); err != nil {
				log.Printf("[bridge] unsubscribe %v failed: %v", kind, err)
			}
		}()
	}
	if registered == 0 {
		log.Printf("[bridge] no event registrations succeeded, worker exiting")
		return
	}

	log.Printf("[bridge] %d/%d event kinds registered, waiting for events", registered, len(subscribedKinds))
	m.svc.Pump()
	log.Printf("[bridge] event wait exited, cleaning up")
}

// handleEvent is the shared pipeline entry: origin filter, extraction,
// anchor geometry, debounce update. Runs on the bridge thread.
func (m *Monitor) handleEvent(el uia.Element, kind uia.EventKind) {
	if el == nil {
		return
	}
	if m.isSelfOrigin(el) {
		log.Printf("[bridge] dropping %v from own process", kind)
		return
	}

	text := m.extractSelection(el)
	if text == "" {
		// Nothing to report; pending keeps whatever it held.
		return
	}

	anchor, ok := selectionAnchor(el)
	if !ok {
		anchor = m.svc.PointerPosition()
	}

	m.updatePending(text, anchor)
}

// isSelfOrigin reports whether the element belongs to this process. Events
// from our own popup re-rendering selected text must not re-trigger
// detection. A failed process-id query counts as foreign.
func (m *Monitor) isSelfOrigin(el uia.Element) bool {
	pid, err := el.ProcessID()
	if err != nil {
		return false
	}
	return pid == m.selfPID
}
