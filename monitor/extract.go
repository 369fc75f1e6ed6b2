package monitor

import (
	"log"
	"unicode/utf8"

	"selection-monitor/uia"
)

// maxAncestorDepth bounds the climb toward an ancestor with a text pattern.
// Deep trees (browsers especially) make unbounded walks expensive.
const maxAncestorDepth = 5

// extractSelection returns the selected text for a raw event's source
// element, trying in order: the element itself, a nearby ancestor with a
// text pattern, the focused element, the element under the pointer. Empty
// string means nothing usable was found.
func (m *Monitor) extractSelection(el uia.Element) string {
	if text := selectedText(el); text != "" {
		return text
	}

	if anc := m.ancestorWithTextPattern(el); anc != nil {
		text := selectedText(anc)
		anc.Release()
		if text != "" {
			return text
		}
	}

	// Last resorts: focused element, then element under the pointer.
	// No ancestor walk for these.
	if focused, err := m.svc.Focused(); err == nil {
		text := selectedText(focused)
		focused.Release()
		if text != "" {
			return text
		}
	}
	if under, err := m.svc.FromPoint(m.svc.PointerPosition()); err == nil {
		text := selectedText(under)
		under.Release()
		if text != "" {
			return text
		}
	}
	return ""
}

// selectedText reads the first active selection range of el's text pattern.
// Any failure along the way, or invalid UTF-8 from the transcode boundary,
// yields "".
func selectedText(el uia.Element) string {
	tp, err := el.TextPattern()
	if err != nil {
		return ""
	}
	defer tp.Release()

	ranges, err := tp.Selection()
	if err != nil || len(ranges) == 0 {
		return ""
	}
	defer releaseRanges(ranges)

	text, err := ranges[0].Text()
	if err != nil {
		return ""
	}
	if !utf8.ValidString(text) {
		log.Printf("[bridge] discarding selection with invalid encoding (%d bytes)", len(text))
		return ""
	}
	return text
}

// ancestorWithTextPattern walks up at most maxAncestorDepth steps and returns
// the first ancestor advertising a text pattern, tested via the cheap
// availability property rather than materializing the pattern. The caller
// releases the result.
func (m *Monitor) ancestorWithTextPattern(el uia.Element) uia.Element {
	current := el
	for i := 0; i < maxAncestorDepth; i++ {
		parent, err := m.svc.Parent(current)
		if current != el {
			current.Release()
		}
		if err != nil || parent == nil {
			return nil
		}
		if parent.IsTextPatternAvailable() {
			return parent
		}
		current = parent
	}
	if current != el {
		current.Release()
	}
	return nil
}

func releaseRanges(ranges []uia.TextRange) {
	for _, r := range ranges {
		r.Release()
	}
}
