package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"selection-monitor/uia"
)

func TestAnchor_TopLeftMostCornerAcrossFragments(t *testing.T) {
	// A two-line selection: the second line starts further left, the first
	// line sits higher. The anchor combines both minima.
	el := textElement(1, "two lines",
		uia.Rect{Left: 120, Top: 40, Width: 200, Height: 16},
		uia.Rect{Left: 80, Top: 56, Width: 140, Height: 16},
	)

	p, ok := selectionAnchor(el)
	assert.True(t, ok)
	assert.Equal(t, uia.Point{X: 80, Y: 40}, p)
}

func TestAnchor_DegenerateRectanglesFiltered(t *testing.T) {
	el := textElement(1, "text",
		uia.Rect{Left: 5, Top: 5, Width: 0, Height: 16},   // zero width
		uia.Rect{Left: 7, Top: 7, Width: 100, Height: -1}, // negative height
		uia.Rect{Left: 50, Top: 60, Width: 10, Height: 10},
	)

	p, ok := selectionAnchor(el)
	assert.True(t, ok)
	assert.Equal(t, uia.Point{X: 50, Y: 60}, p)
}

func TestAnchor_NoValidRectangles(t *testing.T) {
	el := textElement(1, "text",
		uia.Rect{Left: 5, Top: 5, Width: 0, Height: 0},
	)

	_, ok := selectionAnchor(el)
	assert.False(t, ok)
}

func TestAnchor_NoRectanglesAtAll(t *testing.T) {
	el := textElement(1, "text")

	_, ok := selectionAnchor(el)
	assert.False(t, ok)
}

func TestAnchor_NoTextPattern(t *testing.T) {
	_, ok := selectionAnchor(&fakeElement{})
	assert.False(t, ok)
}

func TestAnchor_EmptySelection(t *testing.T) {
	el := &fakeElement{patternAvail: true, pattern: &fakePattern{}}

	_, ok := selectionAnchor(el)
	assert.False(t, ok)
}
