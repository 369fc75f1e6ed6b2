package monitor

import (
	"errors"
	"sync"

	"selection-monitor/uia"
)

// fakeService is an in-memory uia.Service. Tests enqueue events with fire;
// Pump dispatches them on the bridge goroutine exactly like the platform
// loop would.
type fakeService struct {
	mu sync.Mutex

	initErr error
	rootErr error
	root    *fakeElement

	focused *fakeElement
	atPoint *fakeElement
	pointer uia.Point

	subErr map[uia.EventKind]error

	handlers map[uia.EventKind]uia.Handler
	events   chan fakeEvent
	quit     chan struct{}

	initialized  bool
	toreDown     bool
	pumped       bool
	unsubscribed []uia.EventKind
}

type fakeEvent struct {
	el   *fakeElement
	kind uia.EventKind
}

func newFakeService() *fakeService {
	return &fakeService{
		root:   &fakeElement{},
		events: make(chan fakeEvent, 16),
		quit:   make(chan struct{}, 1),
	}
}

func (s *fakeService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initErr != nil {
		return s.initErr
	}
	s.initialized = true
	s.handlers = make(map[uia.EventKind]uia.Handler)
	return nil
}

func (s *fakeService) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toreDown = true
}

func (s *fakeService) Root() (uia.Element, error) {
	if s.rootErr != nil {
		return nil, s.rootErr
	}
	return s.root, nil
}

func (s *fakeService) Focused() (uia.Element, error) {
	if s.focused == nil {
		return nil, errors.New("no focused element")
	}
	return s.focused, nil
}

func (s *fakeService) FromPoint(p uia.Point) (uia.Element, error) {
	if s.atPoint == nil {
		return nil, errors.New("no element at point")
	}
	return s.atPoint, nil
}

func (s *fakeService) Parent(el uia.Element) (uia.Element, error) {
	fe, ok := el.(*fakeElement)
	if !ok || fe.parent == nil {
		return nil, errors.New("no parent")
	}
	return fe.parent, nil
}

func (s *fakeService) Subscribe(kind uia.EventKind, root uia.Element, h uia.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.subErr[kind]; err != nil {
		return err
	}
	s.handlers[kind] = h
	return nil
}

func (s *fakeService) Unsubscribe(kind uia.EventKind, root uia.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, kind)
	s.unsubscribed = append(s.unsubscribed, kind)
	return nil
}

func (s *fakeService) Pump() {
	s.mu.Lock()
	s.pumped = true
	s.mu.Unlock()
	for {
		select {
		case ev := <-s.events:
			s.mu.Lock()
			h := s.handlers[ev.kind]
			s.mu.Unlock()
			if h != nil {
				h(ev.el, ev.kind)
			}
		case <-s.quit:
			return
		}
	}
}

func (s *fakeService) Quit() {
	select {
	case s.quit <- struct{}{}:
	default:
	}
}

func (s *fakeService) PointerPosition() uia.Point {
	return s.pointer
}

// fire enqueues an event for the pump to dispatch.
func (s *fakeService) fire(el *fakeElement, kind uia.EventKind) {
	s.events <- fakeEvent{el: el, kind: kind}
}

func (s *fakeService) wasPumped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pumped
}

type fakeElement struct {
	pid          int
	pidErr       error
	patternAvail bool
	pattern      *fakePattern
	parent       *fakeElement
	released     bool
}

func (e *fakeElement) ProcessID() (int, error) {
	if e.pidErr != nil {
		return 0, e.pidErr
	}
	return e.pid, nil
}

func (e *fakeElement) IsTextPatternAvailable() bool { return e.patternAvail }

func (e *fakeElement) TextPattern() (uia.TextPattern, error) {
	if e.pattern == nil {
		return nil, uia.ErrNoTextPattern
	}
	return e.pattern, nil
}

func (e *fakeElement) Release() { e.released = true }

type fakePattern struct {
	ranges []*fakeRange
	selErr error
}

func (p *fakePattern) Selection() ([]uia.TextRange, error) {
	if p.selErr != nil {
		return nil, p.selErr
	}
	out := make([]uia.TextRange, 0, len(p.ranges))
	for _, r := range p.ranges {
		out = append(out, r)
	}
	return out, nil
}

func (p *fakePattern) Release() {}

type fakeRange struct {
	text     string
	textErr  error
	rects    []uia.Rect
	rectsErr error
}

func (r *fakeRange) Text() (string, error) {
	if r.textErr != nil {
		return "", r.textErr
	}
	return r.text, nil
}

func (r *fakeRange) BoundingRects() ([]uia.Rect, error) {
	if r.rectsErr != nil {
		return nil, r.rectsErr
	}
	return r.rects, nil
}

func (r *fakeRange) Release() {}

// textElement builds an element whose text pattern holds one selected run.
func textElement(pid int, text string, rects ...uia.Rect) *fakeElement {
	return &fakeElement{
		pid:          pid,
		patternAvail: true,
		pattern:      &fakePattern{ranges: []*fakeRange{{text: text, rects: rects}}},
	}
}
