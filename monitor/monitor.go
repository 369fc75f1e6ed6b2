// Package monitor watches the whole desktop for settled text selections and
// reports them, with a screen anchor point, to a registered callback.
//
// Two workers cooperate: a bridge goroutine that owns the accessibility
// subscription on a locked OS thread, and a debounce goroutine that coalesces
// bursts of raw selection events into one notification per settled selection.
package monitor

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"selection-monitor/uia"
)

// Callback receives one settled selection: its text and the screen anchor
// for popup placement. It runs synchronously on the debounce worker, so it
// must return quickly or hand off to another goroutine; a slow callback
// delays subsequent emissions.
type Callback func(text string, x, y int)

// Monitor states.
const (
	stateStopped int32 = iota
	stateStarting
	stateRunning
	stateStopping
)

const (
	// DefaultSettleDelay is how long a selection must stay unchanged before
	// it is reported.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultPollInterval is the debounce worker's check period.
	DefaultPollInterval = 50 * time.Millisecond
)

// Options tune a Monitor. The zero value selects the defaults.
type Options struct {
	SettleDelay  time.Duration
	PollInterval time.Duration
}

// Monitor is the public lifecycle surface. Start/Stop must be serialized by
// the caller; CurrentSelection and SetCallback are safe from any goroutine.
type Monitor struct {
	svc     uia.Service
	selfPID int
	clock   clock.WithTicker

	settleDelay  time.Duration
	pollInterval time.Duration

	state atomic.Int32

	// pending is the debounce engine's single coalesced value.
	pendingMu sync.Mutex
	pending   pendingSelection

	cbMu     sync.RWMutex
	callback Callback

	lastMu sync.RWMutex
	last   string

	stopDebounce chan struct{}
	bridgeDone   chan struct{}
	debounceDone chan struct{}
}

type pendingSelection struct {
	text       string
	x, y       int
	observedAt time.Time
}

// New creates a monitor over the given accessibility service.
func New(svc uia.Service, opts Options) *Monitor {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Monitor{
		svc:          svc,
		selfPID:      os.Getpid(),
		clock:        clock.RealClock{},
		settleDelay:  opts.SettleDelay,
		pollInterval: opts.PollInterval,
	}
}

// Start begins monitoring. Idempotent: returns true immediately when already
// running. Worker-side initialization failures (service context, tree root,
// event registration) do not fail Start; the bridge logs and sits idle until
// a Stop/Start cycle retries.
func (m *Monitor) Start() bool {
	if !m.state.CompareAndSwap(stateStopped, stateStarting) {
		return m.state.Load() == stateRunning
	}

	m.pendingMu.Lock()
	m.pending = pendingSelection{}
	m.pendingMu.Unlock()

	m.stopDebounce = make(chan struct{})
	m.bridgeDone = make(chan struct{})
	m.debounceDone = make(chan struct{})

	go m.bridgeLoop()
	go m.debounceLoop()

	m.state.Store(stateRunning)
	log.Printf("[monitor] started (settle=%v poll=%v)", m.settleDelay, m.pollInterval)
	return true
}

// Stop ends monitoring and blocks until both workers have exited. After Stop
// returns no further events are dispatched and no further callbacks run.
// Idempotent. The join is unconditional: a hung accessibility call would hang
// Stop, a documented risk of the trusted platform dependency.
func (m *Monitor) Stop() {
	if !m.state.CompareAndSwap(stateRunning, stateStopping) {
		return
	}

	close(m.stopDebounce)
	<-m.debounceDone

	m.svc.Quit()
	<-m.bridgeDone

	m.pendingMu.Lock()
	m.pending = pendingSelection{}
	m.pendingMu.Unlock()

	m.state.Store(stateStopped)
	log.Printf("[monitor] stopped")
}

// CurrentSelection returns the text of the most recently emitted selection,
// or "" when nothing has settled yet. Non-blocking.
func (m *Monitor) CurrentSelection() string {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	return m.last
}

// SetCallback registers the delivery target, replacing any prior
// registration. Safe to call before or after Start. A delivery already in
// flight to the previous callback is not affected.
func (m *Monitor) SetCallback(fn Callback) {
	m.cbMu.Lock()
	m.callback = fn
	m.cbMu.Unlock()
}

func (m *Monitor) getCallback() Callback {
	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	return m.callback
}
