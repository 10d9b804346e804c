package binding

import (
	"fmt"
	"math"
	"strconv"

	"github.com/1broseidon/whimsy/internal/geometry"
)

// ActionKind names an action in config files and over IPC.
type ActionKind string

const (
	KindPush  ActionKind = "push"
	KindNudge ActionKind = "nudge"
)

// Action is what a binding does to the focused window. It is implemented
// only by Push and Nudge.
type Action interface {
	Kind() ActionKind
	Validate() error
	String() string
	action()
}

// Push snaps the window into the 1/Fraction slice of its monitor's work area
// that touches the edge named by Direction. Fraction 2 means half.
type Push struct {
	Direction geometry.Direction
	Fraction  float64
}

func (Push) Kind() ActionKind { return KindPush }
func (Push) action() {}

func (p Push) Validate() error {
	if !p.Direction.Valid() {
		return fmt.Errorf("push: invalid direction")
	}
	if p.Fraction <= 0 || math.IsNaN(p.Fraction) || math.IsInf(p.Fraction, 0) {
		return fmt.Errorf("push: fraction must be a finite value > 0, got %v", p.Fraction)
	}
	return nil
}

func (p Push) String() string {
	return fmt.Sprintf("push %s 1/%s", p.Direction, strconv.FormatFloat(p.Fraction, 'f', -1, 64))
}

// Nudge moves the window by Distance without resizing it.
type Nudge struct {
	Direction geometry.Direction
	Distance  geometry.Metric
}

func (Nudge) Kind() ActionKind { return KindNudge }
func (Nudge) action() {}

func (n Nudge) Validate() error {
	if !n.Direction.Valid() {
		return fmt.Errorf("nudge: invalid direction")
	}
	if err := n.Distance.Validate(); err != nil {
		return fmt.Errorf("nudge: %w", err)
	}
	return nil
}

func (n Nudge) String() string {
	return fmt.Sprintf("nudge %s %s", n.Direction, n.Distance)
}
