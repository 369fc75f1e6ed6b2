//go:build windows

package uia

import (
	"fmt"
	"log"
	"sync/atomic"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/lxn/win"
)

// NewPlatformService returns the UI Automation backed service. The returned
// value is inert until Initialize is called on its owning thread.
func NewPlatformService() (Service, error) {
	return &windowsService{}, nil
}

// windowsService drives the UI Automation client COM objects. Apart from
// Quit, every method must run on the goroutine that called Initialize, which
// the monitor keeps locked to one OS thread for the session.
type windowsService struct {
	automation *iUIAutomation
	walker     *iUIAutomationTreeWalker
	handler    *comEventHandler
	handlers   map[EventKind]Handler

	// threadID is written on the owning thread and read by Quit from
	// arbitrary goroutines.
	threadID atomic.Uint32
}

var eventIDByKind = map[EventKind]int32{
	EventSelectionChanged: uiaTextSelectionChangedEvent,
	EventTextChanged:      uiaTextChangedEvent,
	EventTextEditChanged:  uiaTextEditTextChangedEvent,
}

var kindByEventID = map[int32]EventKind{
	uiaTextSelectionChangedEvent: EventSelectionChanged,
	uiaTextChangedEvent:          EventTextChanged,
	uiaTextEditTextChangedEvent:  EventTextEditChanged,
}

func (s *windowsService) Initialize() error {
	// The UIA client wants an STA; events then arrive via this thread's
	// message queue.
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return fmt.Errorf("uia: CoInitializeEx: %w", err)
	}
	unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		ole.CoUninitialize()
		return fmt.Errorf("uia: create CUIAutomation: %w", err)
	}
	s.automation = (*iUIAutomation)(unsafe.Pointer(unk))
	s.handlers = make(map[EventKind]Handler)
	s.handler = newComEventHandler(s.dispatchEvent)
	s.threadID.Store(win.GetCurrentThreadId())
	return nil
}

func (s *windowsService) Teardown() {
	if s.walker != nil {
		s.walker.Release()
		s.walker = nil
	}
	if s.automation != nil {
		s.automation.Release()
		s.automation = nil
	}
	s.handler = nil
	s.handlers = nil
	s.threadID.Store(0)
	ole.CoUninitialize()
}

func (s *windowsService) Root() (Element, error) {
	el, err := s.automation.getRootElement()
	if err != nil {
		return nil, fmt.Errorf("uia: root element: %w", err)
	}
	return &winElement{svc: s, el: el, owned: true}, nil
}

func (s *windowsService) Focused() (Element, error) {
	el, err := s.automation.getFocusedElement()
	if err != nil {
		return nil, fmt.Errorf("uia: focused element: %w", err)
	}
	return &winElement{svc: s, el: el, owned: true}, nil
}

func (s *windowsService) FromPoint(p Point) (Element, error) {
	el, err := s.automation.elementFromPoint(int32(p.X), int32(p.Y))
	if err != nil {
		return nil, fmt.Errorf("uia: element from point: %w", err)
	}
	return &winElement{svc: s, el: el, owned: true}, nil
}

func (s *windowsService) Parent(el Element) (Element, error) {
	we, ok := el.(*winElement)
	if !ok {
		return nil, fmt.Errorf("uia: foreign element %T", el)
	}
	if s.walker == nil {
		w, err := s.automation.controlViewWalker()
		if err != nil {
			return nil, fmt.Errorf("uia: control view walker: %w", err)
		}
		s.walker = w
	}
	parent, err := s.walker.parentElement(we.el)
	if err != nil {
		return nil, fmt.Errorf("uia: parent element: %w", err)
	}
	return &winElement{svc: s, el: parent, owned: true}, nil
}

func (s *windowsService) Subscribe(kind EventKind, root Element, h Handler) error {
	we, ok := root.(*winElement)
	if !ok {
		return fmt.Errorf("uia: foreign element %T", root)
	}
	id, ok := eventIDByKind[kind]
	if !ok {
		return fmt.Errorf("uia: unknown event kind %d", kind)
	}
	if err := s.automation.addAutomationEventHandler(id, we.el, s.handler); err != nil {
		return fmt.Errorf("uia: subscribe %v: %w", kind, err)
	}
	s.handlers[kind] = h
	return nil
}

func (s *windowsService) Unsubscribe(kind EventKind, root Element) error {
	we, ok := root.(*winElement)
	if !ok {
		return fmt.Errorf("uia: foreign element %T", root)
	}
	id, ok := eventIDByKind[kind]
	if !ok {
		return fmt.Errorf("uia: unknown event kind %d", kind)
	}
	delete(s.handlers, kind)
	if err := s.automation.removeAutomationEventHandler(id, we.el, s.handler); err != nil {
		return fmt.Errorf("uia: unsubscribe %v: %w", kind, err)
	}
	return nil
}

// Pump runs the thread's message loop. UI Automation delivers subscription
// callbacks through it, so blocking here is what makes events flow.
func (s *windowsService) Pump() {
	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

// Quit posts WM_QUIT to the owning thread, unblocking Pump. Safe from any
// goroutine.
func (s *windowsService) Quit() {
	tid := s.threadID.Load()
	if tid == 0 {
		return
	}
	procPostThreadMessage.Call(uintptr(tid), win.WM_QUIT, 0, 0)
}

func (s *windowsService) PointerPosition() Point {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return Point{}
	}
	return Point{X: int(pt.X), Y: int(pt.Y)}
}

// dispatchEvent runs on the pump thread, inside the COM callback.
func (s *windowsService) dispatchEvent(sender *iUIAutomationElement, eventID int32) {
	kind, ok := kindByEventID[eventID]
	if !ok {
		log.Printf("[uia] ignoring unexpected event id %d", eventID)
		return
	}
	h := s.handlers[kind]
	if h == nil || sender == nil {
		return
	}
	// The sender is borrowed from the platform for the duration of the
	// callback; the wrapper never releases it.
	h(&winElement{svc: s, el: sender, owned: false}, kind)
}

type winElement struct {
	svc   *windowsService
	el    *iUIAutomationElement
	owned bool
}

func (e *winElement) ProcessID() (int, error) {
	var v ole.VARIANT
	ole.VariantInit(&v)
	if err := e.el.currentPropertyValue(uiaProcessIDProperty, &v); err != nil {
		return 0, err
	}
	defer ole.VariantClear(&v)
	if v.VT != ole.VT_I4 && v.VT != ole.VT_INT {
		return 0, fmt.Errorf("uia: process id variant type %d", v.VT)
	}
	return int(int32(v.Val)), nil
}

func (e *winElement) IsTextPatternAvailable() bool {
	var v ole.VARIANT
	ole.VariantInit(&v)
	if err := e.el.currentPropertyValue(uiaIsTextPatternAvailableProperty, &v); err != nil {
		return false
	}
	defer ole.VariantClear(&v)
	return v.VT == ole.VT_BOOL && v.Val != 0
}

func (e *winElement) TextPattern() (TextPattern, error) {
	p, err := e.el.currentPattern(uiaTextPatternID)
	if err != nil {
		return nil, ErrNoTextPattern
	}
	return &winTextPattern{p: p}, nil
}

func (e *winElement) Release() {
	if e.owned && e.el != nil {
		e.el.Release()
		e.el = nil
	}
}

type winTextPattern struct {
	p *iUIAutomationTextPattern
}

func (t *winTextPattern) Selection() ([]TextRange, error) {
	arr, err := t.p.selection()
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	n := arr.length()
	ranges := make([]TextRange, 0, n)
	for i := 0; i < n; i++ {
		r, err := arr.element(i)
		if err != nil {
			continue
		}
		ranges = append(ranges, &winTextRange{r: r})
	}
	return ranges, nil
}

func (t *winTextPattern) Release() {
	if t.p != nil {
		t.p.Release()
		t.p = nil
	}
}

type winTextRange struct {
	r *iUIAutomationTextRange
}

func (t *winTextRange) Text() (string, error) {
	return t.r.text(-1)
}

func (t *winTextRange) BoundingRects() ([]Rect, error) {
	return t.r.boundingRects()
}

func (t *winTextRange) Release() {
	if t.r != nil {
		t.r.Release()
		t.r = nil
	}
}
