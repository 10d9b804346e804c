package geometry

import "math"

// Slice returns the part of r that occupies 1/fraction of its width (Left,
// Right) or height (Up, Down), anchored to the edge named by dir.
//
// The division runs in single precision and truncates toward zero,
// saturating at the int32 range.
// fraction <= 0 is rejected by config validation and yields an unspecified rect.
func Slice(r Rect, dir Direction, fraction float64) Rect {
	width, height := r.Width(), r.Height()
	sliceWidth := saturate(float32(width) / float32(fraction))
	sliceHeight := saturate(float32(height) / float32(fraction))

	switch dir {
	case Up:
		return FromXYWH(r.Left, r.Top, width, sliceHeight)
	case Down:
		return FromXYWH(r.Left, r.Top+height-sliceHeight, width, sliceHeight)
	case Left:
		return FromXYWH(r.Left, r.Top, sliceWidth, height)
	case Right:
		return FromXYWH(r.Left+width-sliceWidth, r.Top, sliceWidth, height)
	default:
		return r
	}
}

// Nudge translates r by distance pixels toward dir. Size is preserved.
func Nudge(r Rect, dir Direction, distance int) Rect {
	x, y, width, height := r.XYWH()
	switch dir {
	case Up:
		y -= distance
	case Down:
		y += distance
	case Left:
		x -= distance
	case Right:
		x += distance
	}
	return FromXYWH(x, y, width, height)
}

// ResolveMetric converts m to pixels. Percentages scale against the extent of
// ref along the axis of travel: height for Up/Down, width for Left/Right.
func ResolveMetric(m Metric, dir Direction, ref Rect) int {
	if v, ok := m.AbsoluteValue(); ok {
		return v
	}
	if f, ok := m.PercentValue(); ok {
		extent := ref.Width()
		if dir.Vertical() {
			extent = ref.Height()
		}
		return saturate(float32(extent) * float32(f))
	}
	return 0
}

// saturate truncates v toward zero and clamps it to the int32 range.
// NaN becomes 0.
func saturate(v float32) int {
	switch {
	case v != v:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	default:
		return int(v)
	}
}
