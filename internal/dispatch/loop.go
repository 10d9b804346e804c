// Package dispatch runs the single-goroutine loop that turns hotkey
// activations into window moves.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/1broseidon/whimsy/internal/hotkeys"
	"github.com/1broseidon/whimsy/internal/platform"
)

// State of the loop.
type State int32

const (
	StateIdle State = iota
	StateListening
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrTerminated is returned for requests submitted after the loop stopped.
var ErrTerminated = errors.New("dispatch loop terminated")

// HostError is returned by Run when the hotkey event source fails.
type HostError struct {
	Err error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("hotkey host failed: %v", e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }

// EventSource delivers host events.
type EventSource interface {
	Events() <-chan hotkeys.Event
}

// Result describes what an action did to the focused window.
type Result struct {
	Applied bool          `json:"applied"`
	Reason  string        `json:"reason,omitempty"`
	Target  geometry.Rect `json:"target"`
}

// Stats counts events handled since the loop was created.
type Stats struct {
	Activations uint64 `json:"activations"`
	Applied     uint64 `json:"applied"`
	Dropped     uint64 `json:"dropped"`
	Failures    uint64 `json:"failures"`
}

// Loop consumes host events one at a time. Every window operation and every
// registry change requested through Activate, ApplyAction or Replace runs on
// the goroutine executing Run, so no two actions ever overlap.
type Loop struct {
	registry *hotkeys.Registry
	source   EventSource
	windows  platform.WindowManager
	logger   *slog.Logger

	requests   chan func()
	terminated chan struct{}
	termOnce   sync.Once
	state      atomic.Int32

	activations atomic.Uint64
	applied     atomic.Uint64
	dropped     atomic.Uint64
	failures    atomic.Uint64
}

// New creates a loop. Run must be called to start processing.
func New(registry *hotkeys.Registry, source EventSource, windows platform.WindowManager, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		registry:   registry,
		source:     source,
		windows:    windows,
		logger:     logger,
		requests:   make(chan func()),
		terminated: make(chan struct{}),
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stats returns a snapshot of the event counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Activations: l.activations.Load(),
		Applied:     l.applied.Load(),
		Dropped:     l.dropped.Load(),
		Failures:    l.failures.Load(),
	}
}

// Registry returns the registry the loop resolves ids against.
func (l *Loop) Registry() *hotkeys.Registry {
	return l.registry
}

// Run blocks until the host terminates, the host fails or ctx is done.
// Cancellation and Terminate return nil; a host failure returns *HostError.
func (l *Loop) Run(ctx context.Context) error {
	l.state.Store(int32(StateListening))
	defer l.terminate()

	events := l.source.Events()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("dispatch loop stopping", "reason", ctx.Err())
			return nil

		case ev, ok := <-events:
			if !ok {
				return &HostError{Err: errors.New("event source closed")}
			}
			switch ev.Kind {
			case hotkeys.EventTerminate:
				l.logger.Info("hotkey host terminated")
				return nil
			case hotkeys.EventError:
				l.logger.Error("hotkey host failed", "error", ev.Err)
				return &HostError{Err: ev.Err}
			case hotkeys.EventActivation:
				_, _ = l.activate(ev.ID)
			default:
				l.logger.Warn("ignoring unknown host event", "kind", ev.Kind)
			}

		case req := <-l.requests:
			req()
		}
	}
}

func (l *Loop) terminate() {
	l.termOnce.Do(func() {
		l.state.Store(int32(StateTerminated))
		close(l.terminated)
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.terminated
}

func (l *Loop) activate(id hotkeys.ID) (Result, error) {
	l.activations.Add(1)

	b, ok := l.registry.Resolve(id)
	if !ok {
		l.dropped.Add(1)
		l.logger.Warn("activation for unknown hotkey id dropped", "id", id)
		return Result{Reason: fmt.Sprintf("unknown hotkey id %d", id)}, nil
	}

	res, err := l.apply(b.Action)
	if err != nil {
		l.failures.Add(1)
		l.logger.Error("hotkey action failed", "id", id, "chord", b.Chord().String(), "action", b.Action.String(), "error", err)
		return res, err
	}
	if res.Applied {
		l.applied.Add(1)
		l.logger.Debug("hotkey action applied", "id", id, "chord", b.Chord().String(), "action", b.Action.String(), "rect", res.Target.String())
	} else {
		l.logger.Debug("hotkey action skipped", "id", id, "chord", b.Chord().String(), "reason", res.Reason)
	}
	return res, nil
}

// apply moves the focused window. No focused window is a no-op, not an error.
func (l *Loop) apply(action binding.Action) (Result, error) {
	win, ok, err := l.windows.FocusedWindow()
	if err != nil {
		return Result{}, fmt.Errorf("query focused window: %w", err)
	}
	if !ok {
		return Result{Reason: "no focused window"}, nil
	}

	var target geometry.Rect
	switch a := action.(type) {
	case binding.Push:
		area, err := win.Monitor().WorkArea()
		if err != nil {
			return Result{}, fmt.Errorf("query work area: %w", err)
		}
		target = geometry.Slice(area, a.Direction, a.Fraction)

	case binding.Nudge:
		current, err := win.Rect()
		if err != nil {
			return Result{}, fmt.Errorf("query window rect: %w", err)
		}
		distance := geometry.ResolveMetric(a.Distance, a.Direction, current)
		target = geometry.Nudge(current, a.Direction, distance)

	default:
		return Result{}, fmt.Errorf("unsupported action %T", action)
	}

	if err := win.SetRect(target); err != nil {
		return Result{}, fmt.Errorf("move window to %s: %w", target, err)
	}
	return Result{Applied: true, Target: target}, nil
}

// Activate handles id as if the host had reported it.
func (l *Loop) Activate(ctx context.Context, id hotkeys.ID) (Result, error) {
	var res Result
	var err error
	if serr := l.submit(ctx, func() { res, err = l.activate(id) }); serr != nil {
		return Result{}, serr
	}
	return res, err
}

// ApplyAction runs an action that is not bound to any chord.
func (l *Loop) ApplyAction(ctx context.Context, action binding.Action) (Result, error) {
	if action == nil {
		return Result{}, errors.New("no action")
	}
	if err := action.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	var err error
	serr := l.submit(ctx, func() {
		res, err = l.apply(action)
		if err != nil {
			l.failures.Add(1)
			l.logger.Error("action failed", "action", action.String(), "error", err)
		} else if res.Applied {
			l.applied.Add(1)
		}
	})
	if serr != nil {
		return Result{}, serr
	}
	return res, err
}

// Replace swaps the registered bindings between two events.
func (l *Loop) Replace(ctx context.Context, bindings []binding.Binding) ([]hotkeys.ID, error) {
	var ids []hotkeys.ID
	var err error
	if serr := l.submit(ctx, func() { ids, err = l.registry.Replace(bindings) }); serr != nil {
		return nil, serr
	}
	return ids, err
}

func (l *Loop) submit(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	req := func() {
		defer close(done)
		fn()
	}

	select {
	case l.requests <- req:
	case <-l.terminated:
		return ErrTerminated
	case <-ctx.Done():
		return ctx.Err()
	}

	// A request that was accepted always runs to completion.
	<-done
	return nil
}
