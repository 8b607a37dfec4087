package layout

import "sort"

// DefaultLineThreshold is the vertical distance (in the caller's length unit)
// within which detections are considered part of the same line.
const DefaultLineThreshold = 15

// Line is a derived grouping of detections sharing approximately the same
// vertical position, ordered left-to-right. Lines are recomputed on every
// call and never persisted.
type Line struct {
	// ReferenceY is the Y of the detection that opened the line. Membership
	// is judged against this pinned value, not a running average, so a
	// gradually drifting baseline can split a visual line in two. That is
	// the documented policy; keep it.
	ReferenceY float64
	Detections []Detection
}

// GroupIntoLines clusters unordered detections into reading-order lines.
// Detections are taken in ascending-Y order; each either joins the current
// line (|y - referenceY| <= threshold) or finalizes it and opens a new one.
// Members of a finalized line are sorted by ascending X. The input slice is
// not modified. Ties on equal Y are broken arbitrarily by the sort.
func GroupIntoLines(dets []Detection, lineThreshold float64) []Line {
	if len(dets) == 0 {
		return nil
	}

	byY := make([]Detection, len(dets))
	copy(byY, dets)
	sort.Slice(byY, func(i, j int) bool { return byY[i].Box.Y < byY[j].Box.Y })

	lines := make([]Line, 0, 4)
	current := Line{ReferenceY: byY[0].Box.Y, Detections: []Detection{byY[0]}}

	for _, d := range byY[1:] {
		dy := d.Box.Y - current.ReferenceY
		if dy < 0 {
			dy = -dy
		}
		if dy <= lineThreshold {
			current.Detections = append(current.Detections, d)
			continue
		}
		lines = append(lines, finalize(current))
		current = Line{ReferenceY: d.Box.Y, Detections: []Detection{d}}
	}
	return append(lines, finalize(current))
}

func finalize(l Line) Line {
	sort.Slice(l.Detections, func(i, j int) bool {
		return l.Detections[i].Box.X < l.Detections[j].Box.X
	})
	return l
}
