package geometry

import "fmt"

// Rect is an axis-aligned rectangle in screen coordinates.
// Left <= Right and Top <= Bottom always hold for values built with NewRect.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// NewRect builds a Rect, swapping operands given out of order.
func NewRect(left, top, right, bottom int) Rect {
	if left > right {
		left, right = right, left
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// FromXYWH builds a Rect from an origin and a size.
func FromXYWH(x, y, width, height int) Rect {
	return NewRect(x, y, x+width, y+height)
}

func (r Rect) Width() int { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// XYWH returns the origin and size of r.
func (r Rect) XYWH() (x, y, width, height int) {
	return r.Left, r.Top, r.Width(), r.Height()
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// ContainsPoint uses half-open bounds, so adjacent monitors never share a point.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Center returns the midpoint of r, rounded toward the origin.
func (r Rect) Center() (x, y int) {
	return r.Left + r.Width()/2, r.Top + r.Height()/2
}

// Intersect returns the overlap of r and o. ok is false when they do not overlap.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	left := max(r.Left, o.Left)
	top := max(r.Top, o.Top)
	right := min(r.Right, o.Right)
	bottom := min(r.Bottom, o.Bottom)
	if right <= left || bottom <= top {
		return Rect{}, false
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}, true
}

// Inset shrinks r by the given margins, never below 1x1.
func (r Rect) Inset(left, top, right, bottom int) Rect {
	out := Rect{
		Left:   r.Left + left,
		Top:    r.Top + top,
		Right:  r.Right - right,
		Bottom: r.Bottom - bottom,
	}
	if out.Right-out.Left < 1 {
		out.Right = out.Left + 1
	}
	if out.Bottom-out.Top < 1 {
		out.Bottom = out.Top + 1
	}
	return out
}

func (r Rect) String() string {
	return fmt.Sprintf("{%d,%d,%d,%d}", r.Left, r.Top, r.Right, r.Bottom)
}
