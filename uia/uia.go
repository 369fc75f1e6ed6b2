// Package uia is a thin facade over the platform's UI accessibility API.
// It exposes the small surface the selection monitor needs: tree lookup,
// per-element property queries, text-selection ranges with geometry, and
// tree-wide event subscription.
//
// All Service methods except Quit must be called from the goroutine that
// called Initialize, locked to its OS thread. The underlying platform API is
// thread-affine: the subscription, its callbacks, and every query belong to
// the thread that created them.
package uia

import "errors"

var (
	// ErrUnsupported is returned by NewPlatformService on platforms without
	// an accessibility backend.
	ErrUnsupported = errors.New("uia: platform not supported")

	// ErrNoTextPattern indicates the element has no text-selection capability.
	ErrNoTextPattern = errors.New("uia: element has no text pattern")

	// ErrEmptySelection indicates a text pattern with no active selection.
	ErrEmptySelection = errors.New("uia: empty selection")
)

// EventKind identifies a selection-relevant accessibility notification.
type EventKind int

const (
	EventSelectionChanged EventKind = iota
	EventTextChanged
	EventTextEditChanged
)

func (k EventKind) String() string {
	switch k {
	case EventSelectionChanged:
		return "selection-changed"
	case EventTextChanged:
		return "text-changed"
	case EventTextEditChanged:
		return "text-edit-changed"
	default:
		return "unknown"
	}
}

// Point is a screen coordinate in physical pixels.
type Point struct {
	X, Y int
}

// Rect is one visual fragment of a text selection, as reported by the
// accessibility API: left/top screen position plus extent.
type Rect struct {
	Left, Top, Width, Height float64
}

// Handler receives dispatched accessibility events. It runs synchronously on
// the service's owning thread; the element is only valid for the duration of
// the call and must not be retained.
type Handler func(el Element, kind EventKind)

// Service is the accessibility backend. One instance serves one monitoring
// session; Initialize/Teardown bracket its lifetime on the owning thread.
type Service interface {
	// Initialize prepares thread-local state. Call once, from the locked
	// goroutine that will own all further calls.
	Initialize() error

	// Teardown releases thread-local state. Pair with Initialize.
	Teardown()

	// Root returns the accessibility tree root (the desktop).
	Root() (Element, error)

	// Focused returns the element with keyboard focus.
	Focused() (Element, error)

	// FromPoint returns the element under the given screen point.
	FromPoint(p Point) (Element, error)

	// Parent returns the element's parent in the control view, or an error
	// at the top of the tree.
	Parent(el Element) (Element, error)

	// Subscribe routes events of the given kind, scoped to root's whole
	// subtree, to h.
	Subscribe(kind EventKind, root Element, h Handler) error

	// Unsubscribe removes a prior subscription. Best-effort.
	Unsubscribe(kind EventKind, root Element) error

	// Pump blocks dispatching platform notifications to subscribed handlers
	// until Quit is called. No busy-spin: it wakes on event or on cancel.
	Pump()

	// Quit wakes Pump. Unlike every other method it is safe to call from
	// any goroutine.
	Quit()

	// PointerPosition returns the current screen position of the system
	// pointer. Degrades to the zero Point on failure.
	PointerPosition() Point
}

// Element is an opaque node of the accessibility tree. Callers must Release
// every element they obtain.
type Element interface {
	// ProcessID returns the id of the process that owns the element.
	ProcessID() (int, error)

	// IsTextPatternAvailable reports the text-selection capability via a
	// cheap property query, without materializing the pattern object.
	IsTextPatternAvailable() bool

	// TextPattern returns the element's text-selection capability, or
	// ErrNoTextPattern.
	TextPattern() (TextPattern, error)

	Release()
}

// TextPattern is an element's text-selection capability.
type TextPattern interface {
	// Selection returns the active selection ranges, possibly empty.
	Selection() ([]TextRange, error)

	Release()
}

// TextRange is one contiguous run of selected text.
type TextRange interface {
	// Text returns the range's text, transcoded to UTF-8.
	Text() (string, error)

	// BoundingRects returns one rectangle per visual line or fragment of
	// the range. May be empty for off-screen selections.
	BoundingRects() ([]Rect, error)

	Release()
}
