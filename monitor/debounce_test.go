package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"selection-monitor/uia"
)

// emitRecorder collects callback invocations.
type emitRecorder struct {
	mu    sync.Mutex
	calls []emission
}

type emission struct {
	text string
	x, y int
}

func (r *emitRecorder) callback(text string, x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, emission{text: text, x: x, y: y})
}

func (r *emitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *emitRecorder) lastCall() emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newTestMonitor(t *testing.T) (*Monitor, *clocktesting.FakeClock, *emitRecorder) {
	t.Helper()
	m := New(newFakeService(), Options{})
	fc := clocktesting.NewFakeClock(time.Now())
	m.clock = fc
	rec := &emitRecorder{}
	m.SetCallback(rec.callback)
	return m, fc, rec
}

func TestDebounce_NoEmissionBeforeSettleDelay(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	m.updatePending("hello", uia.Point{X: 10, Y: 20})
	fc.Step(499 * time.Millisecond)
	m.emitIfSettled()

	assert.Equal(t, 0, rec.count(), "emitted before the settle delay elapsed")
}

func TestDebounce_EmitsAfterSettleDelay(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	m.updatePending("hello", uia.Point{X: 10, Y: 20})
	fc.Step(500 * time.Millisecond)
	m.emitIfSettled()

	require.Equal(t, 1, rec.count())
	assert.Equal(t, emission{text: "hello", x: 10, y: 20}, rec.lastCall())
	assert.Equal(t, "hello", m.CurrentSelection())

	// Pending is cleared on emission; the next check is a no-op.
	m.emitIfSettled()
	assert.Equal(t, 1, rec.count())
}

func TestDebounce_BurstCoalescesToLastWrite(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	// Raw event at t=0, then a second one 100ms later refreshes the timer.
	m.updatePending("alpha", uia.Point{X: 10, Y: 20})
	fc.Step(100 * time.Millisecond)
	m.updatePending("alpha beta", uia.Point{X: 15, Y: 25})

	// 500ms after the first event but only 400ms after the last: quiet.
	fc.Step(400 * time.Millisecond)
	m.emitIfSettled()
	assert.Equal(t, 0, rec.count())

	// 500ms after the last event: one emission, carrying the last write.
	fc.Step(100 * time.Millisecond)
	m.emitIfSettled()
	require.Equal(t, 1, rec.count())
	assert.Equal(t, emission{text: "alpha beta", x: 15, y: 25}, rec.lastCall())
}

func TestDebounce_SpacedEventsEachEmit(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	m.updatePending("first", uia.Point{X: 1, Y: 1})
	fc.Step(600 * time.Millisecond)
	m.emitIfSettled()

	m.updatePending("second", uia.Point{X: 2, Y: 2})
	fc.Step(600 * time.Millisecond)
	m.emitIfSettled()

	require.Equal(t, 2, rec.count())
	assert.Equal(t, "second", rec.lastCall().text)
}

func TestDebounce_IdenticalTextReEmitted(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	// Same word selected twice across two settle cycles must notify twice,
	// so a dismissed popup can reappear.
	for i := 0; i < 2; i++ {
		m.updatePending("word", uia.Point{X: 5, Y: 5})
		fc.Step(600 * time.Millisecond)
		m.emitIfSettled()
	}

	assert.Equal(t, 2, rec.count())
}

func TestDebounce_EmptyPendingNeverEmits(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	fc.Step(time.Hour)
	m.emitIfSettled()

	assert.Equal(t, 0, rec.count())
	assert.Equal(t, "", m.CurrentSelection())
}

func TestDebounce_NilCallbackStillRecordsLast(t *testing.T) {
	m, fc, _ := newTestMonitor(t)
	m.SetCallback(nil)

	m.updatePending("quiet", uia.Point{})
	fc.Step(600 * time.Millisecond)
	m.emitIfSettled()

	assert.Equal(t, "quiet", m.CurrentSelection())
}

func TestDebounce_LoopEmitsWithinPollInterval(t *testing.T) {
	// Real-clock end-to-end check of the polling worker.
	svc := newFakeService()
	m := New(svc, Options{SettleDelay: 40 * time.Millisecond, PollInterval: 5 * time.Millisecond})
	rec := &emitRecorder{}
	m.SetCallback(rec.callback)

	require.True(t, m.Start())
	defer m.Stop()

	m.updatePending("settled", uia.Point{X: 3, Y: 4})

	require.Eventually(t, func() bool { return rec.count() == 1 },
		time.Second, time.Millisecond, "debounce loop never emitted")
	assert.Equal(t, emission{text: "settled", x: 3, y: 4}, rec.lastCall())
}

func TestDebounce_CallbackReplacementTakesEffect(t *testing.T) {
	m, fc, rec := newTestMonitor(t)

	replacement := &emitRecorder{}
	m.SetCallback(replacement.callback)

	m.updatePending("later", uia.Point{})
	fc.Step(600 * time.Millisecond)
	m.emitIfSettled()

	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 1, replacement.count())
}
