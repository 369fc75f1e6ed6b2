package monitor

import (
	"log"

	"selection-monitor/uia"
)

// updatePending overwrites the coalesced selection and restarts its settle
// timer. Called for every accepted raw event, so a burst keeps pushing the
// emission out until the window goes quiet.
func (m *Monitor) updatePending(text string, anchor uia.Point) {
	m.pendingMu.Lock()
	m.pending = pendingSelection{
		text:       text,
		x:          anchor.X,
		y:          anchor.Y,
		observedAt: m.clock.Now(),
	}
	m.pendingMu.Unlock()
}

// debounceLoop is the settle worker: a fixed-interval check that emits the
// pending selection once it has been quiet for the settle delay.
func (m *Monitor) debounceLoop() {
	defer close(m.debounceDone)

	ticker := m.clock.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopDebounce:
			return
		case <-ticker.C():
			m.emitIfSettled()
		}
	}
}

// emitIfSettled delivers the pending selection when its settle delay has
// elapsed. Identical text is emitted again on purpose: the consumer relies
// on repeats to re-show a dismissed popup for the same word.
func (m *Monitor) emitIfSettled() {
	m.pendingMu.Lock()
	if m.pending.text == "" {
		m.pendingMu.Unlock()
		return
	}
	elapsed := m.clock.Since(m.pending.observedAt)
	if elapsed < m.settleDelay {
		m.pendingMu.Unlock()
		return
	}
	text, x, y := m.pending.text, m.pending.x, m.pending.y
	m.pending = pendingSelection{}
	m.pendingMu.Unlock()

	m.lastMu.Lock()
	m.last = text
	m.lastMu.Unlock()

	log.Printf("[debounce] selection settled after %v (%d chars)", elapsed, len(text))
	if cb := m.getCallback(); cb != nil {
		cb(text, x, y)
	}
}
