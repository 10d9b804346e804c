package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MetricKind distinguishes absolute pixel distances from percentages.
type MetricKind int

const (
	MetricAbsolute MetricKind = iota + 1
	MetricPercent
)

// Metric is a nudge distance: either a pixel count or a fraction of the
// window's own extent along the direction of travel.
type Metric struct {
	kind     MetricKind
	absolute int
	percent  float64
}

// Absolute returns a pixel distance metric.
func Absolute(distance int) Metric {
	return Metric{kind: MetricAbsolute, absolute: distance}
}

// Percent returns a metric relative to the reference extent; 0.5 means half.
func Percent(fraction float64) Metric {
	return Metric{kind: MetricPercent, percent: fraction}
}

func (m Metric) Kind() MetricKind { return m.kind }

// AbsoluteValue returns the pixel distance of an absolute metric.
func (m Metric) AbsoluteValue() (int, bool) {
	return m.absolute, m.kind == MetricAbsolute
}

// PercentValue returns the fraction of a percent metric.
func (m Metric) PercentValue() (float64, bool) {
	return m.percent, m.kind == MetricPercent
}

// Validate rejects unset metrics, negative distances and non-positive percents.
func (m Metric) Validate() error {
	switch m.kind {
	case MetricAbsolute:
		if m.absolute < 0 {
			return fmt.Errorf("absolute distance must be >= 0, got %d", m.absolute)
		}
	case MetricPercent:
		if m.percent <= 0 || math.IsNaN(m.percent) || math.IsInf(m.percent, 0) {
			return fmt.Errorf("percent must be a finite value > 0, got %v", m.percent)
		}
	default:
		return fmt.Errorf("distance is not set")
	}
	return nil
}

// String renders "50px" or "25%".
func (m Metric) String() string {
	switch m.kind {
	case MetricAbsolute:
		return strconv.Itoa(m.absolute) + "px"
	case MetricPercent:
		return strconv.FormatFloat(m.percent*100, 'f', -1, 64) + "%"
	default:
		return ""
	}
}

// ParseMetric accepts "50", "50px" and "25%".
func ParseMetric(s string) (Metric, error) {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)
	switch {
	case raw == "":
		return Metric{}, fmt.Errorf("empty distance")
	case strings.HasSuffix(lower, "%"):
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(lower, "%")), 64)
		if err != nil {
			return Metric{}, fmt.Errorf("invalid percent distance %q", s)
		}
		return Percent(v / 100), nil
	default:
		v, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(lower, "px")))
		if err != nil {
			return Metric{}, fmt.Errorf("invalid distance %q (expected pixels like 50 or 50px, or a percent like 10%%)", s)
		}
		return Absolute(v), nil
	}
}

func (m Metric) MarshalText() ([]byte, error) {
	if m.kind == 0 {
		return nil, fmt.Errorf("distance is not set")
	}
	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
