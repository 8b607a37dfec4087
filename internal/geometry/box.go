package geometry

// BoundingBox is an axis-aligned rectangle in some coordinate space.
// A box is only meaningful in the space it was produced in; moving between
// spaces requires an explicit scale+offset transform (see Frame and Display).
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is an image or viewport dimension in pixels/points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether b and other overlap at all.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.X < other.X+other.Width &&
		other.X < b.X+b.Width &&
		b.Y < other.Y+other.Height &&
		other.Y < b.Y+b.Height
}

// Normalized returns a copy with non-negative width/height, flipping the
// origin as needed. Used for drag rectangles captured in either direction.
func Normalized(x1, y1, x2, y2 float64) BoundingBox {
	x, w := x1, x2-x1
	if w < 0 {
		x, w = x2, -w
	}
	y, h := y1, y2-y1
	if h < 0 {
		y, h = y2, -h
	}
	return BoundingBox{X: x, Y: y, Width: w, Height: h}
}
