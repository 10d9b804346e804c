package geometry

import (
	"math"
	"testing"
)

var sampleRects = []Rect{
	NewRect(0, 0, 1920, 1080),
	NewRect(0, 28, 2560, 1440),
	NewRect(1920, 0, 3840, 1050),
	NewRect(-1280, 100, 0, 1124),
	NewRect(100, 100, 101, 103),
	NewRect(7, 13, 1007, 763),
}

func TestNewRectNormalizesOperands(t *testing.T) {
	r := NewRect(500, 400, 100, 100)
	want := Rect{Left: 100, Top: 100, Right: 500, Bottom: 400}
	if r != want {
		t.Fatalf("NewRect = %v, want %v", r, want)
	}
	if r.Width() != 400 || r.Height() != 300 {
		t.Fatalf("expected 400x300, got %dx%d", r.Width(), r.Height())
	}
}

func TestFromXYWHRoundTrip(t *testing.T) {
	r := FromXYWH(-10, 20, 300, 200)
	x, y, w, h := r.XYWH()
	if x != -10 || y != 20 || w != 300 || h != 200 {
		t.Fatalf("XYWH = %d,%d,%d,%d", x, y, w, h)
	}
}

func TestSliceStaysInsideAndTouchesEdge(t *testing.T) {
	fractions := []float64{1.5, 2, 3, 4, 7.25, 10}
	for _, r := range sampleRects {
		for _, f := range fractions {
			for _, dir := range Directions {
				got := Slice(r, dir, f)
				if !r.Contains(got) {
					t.Fatalf("Slice(%v, %s, %v) = %v escapes source", r, dir, f, got)
				}

				switch dir {
				case Up:
					if got.Top != r.Top {
						t.Fatalf("Slice(%v, up, %v) = %v does not touch top edge", r, f, got)
					}
				case Down:
					if got.Bottom != r.Bottom {
						t.Fatalf("Slice(%v, down, %v) = %v does not touch bottom edge", r, f, got)
					}
				case Left:
					if got.Left != r.Left {
						t.Fatalf("Slice(%v, left, %v) = %v does not touch left edge", r, f, got)
					}
				case Right:
					if got.Right != r.Right {
						t.Fatalf("Slice(%v, right, %v) = %v does not touch right edge", r, f, got)
					}
				}

				if dir.Vertical() {
					if got.Width() != r.Width() {
						t.Fatalf("vertical slice changed width: %v -> %v", r, got)
					}
					if diff := float64(r.Height())/f - float64(got.Height()); diff < 0 || diff >= 1 {
						t.Fatalf("Slice(%v, %s, %v) height %d not within one unit of %v", r, dir, f, got.Height(), float64(r.Height())/f)
					}
				} else {
					if got.Height() != r.Height() {
						t.Fatalf("horizontal slice changed height: %v -> %v", r, got)
					}
					if diff := float64(r.Width())/f - float64(got.Width()); diff < 0 || diff >= 1 {
						t.Fatalf("Slice(%v, %s, %v) width %d not within one unit of %v", r, dir, f, got.Width(), float64(r.Width())/f)
					}
				}
			}
		}
	}
}

func TestSliceWithFractionOneKeepsDimensions(t *testing.T) {
	for _, r := range sampleRects {
		for _, dir := range Directions {
			got := Slice(r, dir, 1)
			if got != r {
				t.Fatalf("Slice(%v, %s, 1) = %v", r, dir, got)
			}
		}
	}
}

func TestSliceTruncatesTowardZero(t *testing.T) {
	r := NewRect(0, 0, 1000, 1000)
	got := Slice(r, Right, 3)
	want := Rect{Left: 667, Top: 0, Right: 1000, Bottom: 1000}
	if got != want {
		t.Fatalf("Slice right third = %v, want %v", got, want)
	}
	got = Slice(r, Down, 3)
	want = Rect{Left: 0, Top: 667, Right: 1000, Bottom: 1000}
	if got != want {
		t.Fatalf("Slice down third = %v, want %v", got, want)
	}
}

func TestSliceWorkAreaLeftHalf(t *testing.T) {
	got := Slice(NewRect(0, 0, 1920, 1080), Left, 2.0)
	want := NewRect(0, 0, 960, 1080)
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSliceSaturatesTinyFractions(t *testing.T) {
	r := NewRect(0, 0, 1920, 1080)
	for _, fraction := range []float64{1e-40, 1e-50} {
		got := Slice(r, Left, fraction)
		want := Rect{Left: 0, Top: 0, Right: math.MaxInt32, Bottom: 1080}
		if got != want {
			t.Fatalf("Slice(left, %g) = %v, want %v", fraction, got, want)
		}
		got = Slice(r, Up, fraction)
		want = Rect{Left: 0, Top: 0, Right: 1920, Bottom: math.MaxInt32}
		if got != want {
			t.Fatalf("Slice(up, %g) = %v, want %v", fraction, got, want)
		}
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{12.9, 12},
		{-12.9, -12},
		{float32(math.Inf(1)), math.MaxInt32},
		{float32(math.Inf(-1)), math.MinInt32},
		{float32(math.NaN()), 0},
		{3e9, math.MaxInt32},
	}
	for _, tt := range tests {
		if got := saturate(tt.in); got != tt.want {
			t.Errorf("saturate(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNudgeHorizontalInverse(t *testing.T) {
	for _, r := range sampleRects {
		for _, n := range []int{0, 1, 50, 333, 4000} {
			back := Nudge(Nudge(r, Right, n), Left, n)
			if back != r {
				t.Fatalf("nudge right/left by %d: %v -> %v", n, r, back)
			}
			back = Nudge(Nudge(r, Down, n), Up, n)
			if back != r {
				t.Fatalf("nudge down/up by %d: %v -> %v", n, r, back)
			}
		}
	}
}

func TestNudgePreservesSize(t *testing.T) {
	r := NewRect(100, 100, 500, 400)
	tests := []struct {
		dir  Direction
		want Rect
	}{
		{Right, NewRect(150, 100, 550, 400)},
		{Left, NewRect(50, 100, 450, 400)},
		{Up, NewRect(100, 50, 500, 350)},
		{Down, NewRect(100, 150, 500, 450)},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			got := Nudge(r, tt.dir, 50)
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got.Width() != r.Width() || got.Height() != r.Height() {
				t.Fatalf("size changed: %dx%d", got.Width(), got.Height())
			}
		})
	}
}

func TestResolveMetricAxisSelection(t *testing.T) {
	r := NewRect(0, 0, 400, 200)
	if got := ResolveMetric(Percent(1.0), Left, r); got != r.Width() {
		t.Fatalf("percent 1.0 left = %d, want width %d", got, r.Width())
	}
	if got := ResolveMetric(Percent(1.0), Right, r); got != r.Width() {
		t.Fatalf("percent 1.0 right = %d, want width %d", got, r.Width())
	}
	if got := ResolveMetric(Percent(1.0), Up, r); got != r.Height() {
		t.Fatalf("percent 1.0 up = %d, want height %d", got, r.Height())
	}
	if got := ResolveMetric(Percent(1.0), Down, r); got != r.Height() {
		t.Fatalf("percent 1.0 down = %d, want height %d", got, r.Height())
	}
	if got := ResolveMetric(Percent(0.5), Up, r); got != 100 {
		t.Fatalf("percent 0.5 up = %d, want 100", got)
	}
	if got := ResolveMetric(Absolute(37), Up, r); got != 37 {
		t.Fatalf("absolute 37 = %d", got)
	}
}

func TestScenarioNudgeUpByHalfHeight(t *testing.T) {
	current := NewRect(0, 0, 400, 200)
	distance := ResolveMetric(Percent(0.5), Up, current)
	got := Nudge(current, Up, distance)
	want := Rect{Left: 0, Top: -100, Right: 400, Bottom: 100}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIntersect(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(50, 60, 200, 200)
	got, ok := a.Intersect(b)
	if !ok || got != NewRect(50, 60, 100, 100) {
		t.Fatalf("Intersect = %v, %v", got, ok)
	}
	if _, ok := a.Intersect(NewRect(100, 0, 200, 100)); ok {
		t.Fatalf("edge-adjacent rects must not intersect")
	}
}

func TestParseDirection(t *testing.T) {
	for _, dir := range Directions {
		got, err := ParseDirection(" " + dir.String() + " ")
		if err != nil || got != dir {
			t.Fatalf("ParseDirection(%q) = %v, %v", dir.String(), got, err)
		}
	}
	if got, err := ParseDirection("LEFT"); err != nil || got != Left {
		t.Fatalf("ParseDirection(LEFT) = %v, %v", got, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want Metric
	}{
		{"50", Absolute(50)},
		{"50px", Absolute(50)},
		{" 12PX ", Absolute(12)},
		{"25%", Percent(0.25)},
		{"150%", Percent(1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "px", "ten", "%", "1.5px"} {
		if _, err := ParseMetric(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMetricValidate(t *testing.T) {
	if err := Absolute(0).Validate(); err != nil {
		t.Fatalf("absolute 0 should be valid: %v", err)
	}
	if err := Absolute(-1).Validate(); err == nil {
		t.Fatalf("negative absolute should be rejected")
	}
	if err := Percent(0).Validate(); err == nil {
		t.Fatalf("zero percent should be rejected")
	}
	if err := (Metric{}).Validate(); err == nil {
		t.Fatalf("unset metric should be rejected")
	}
	if got := Percent(0.25).String(); got != "25%" {
		t.Fatalf("Percent(0.25).String() = %q", got)
	}
	if got := Absolute(50).String(); got != "50px" {
		t.Fatalf("Absolute(50).String() = %q", got)
	}
}
