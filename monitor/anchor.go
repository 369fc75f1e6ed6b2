package monitor

import (
	"selection-monitor/uia"
)

// selectionAnchor computes the screen anchor for el's current selection: the
// top-left-most corner over the selection's per-line bounding rectangles.
// Anchoring at the selection's start beats a centroid for popup placement.
// The second return is false when no valid rectangle could be obtained; the
// caller then falls back to the pointer position. Never errors.
//
// The selection range is fetched again here rather than shared with the
// extractor: the two can succeed on different fallback paths for the same
// raw event. Sharing one fetch would save a service call but is left as an
// optimization.
func selectionAnchor(el uia.Element) (uia.Point, bool) {
	tp, err := el.TextPattern()
	if err != nil {
		return uia.Point{}, false
	}
	defer tp.Release()

	ranges, err := tp.Selection()
	if err != nil || len(ranges) == 0 {
		return uia.Point{}, false
	}
	defer releaseRanges(ranges)

	rects, err := ranges[0].BoundingRects()
	if err != nil {
		return uia.Point{}, false
	}

	var minLeft, minTop float64
	valid := 0
	for _, r := range rects {
		if r.Width <= 0 || r.Height <= 0 {
			continue
		}
		if valid == 0 || r.Left < minLeft {
			minLeft = r.Left
		}
		if valid == 0 || r.Top < minTop {
			minTop = r.Top
		}
		valid++
	}
	if valid == 0 {
		return uia.Point{}, false
	}
	return uia.Point{X: int(minLeft), Y: int(minTop)}, true
}
