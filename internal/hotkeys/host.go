// Package hotkeys owns global hotkey registration: the registry that maps
// process-local ids to bindings, and the host adapters that subscribe chords
// with the windowing system and report activations as events.
package hotkeys

import (
	"fmt"

	"github.com/1broseidon/whimsy/internal/binding"
)

// ID identifies a registered hotkey for the lifetime of the process.
type ID uint32

// EventKind distinguishes the three shapes a host event can take.
type EventKind int

const (
	EventActivation EventKind = iota + 1
	EventTerminate
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventActivation:
		return "activation"
	case EventTerminate:
		return "terminate"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered by a Host: an activation of a subscribed id, a
// requested termination, or a fatal error of the host event source.
type Event struct {
	Kind EventKind
	ID   ID
	Err  error
}

func Activation(id ID) Event { return Event{Kind: EventActivation, ID: id} }
func Terminate() Event { return Event{Kind: EventTerminate} }
func Failure(err error) Event { return Event{Kind: EventError, Err: err} }

// Subscription is a live chord grab held by a host.
type Subscription interface {
	Unsubscribe() error
}

// Subscriber grabs a chord and reports its activations under id.
type Subscriber interface {
	Subscribe(id ID, chord binding.Chord) (Subscription, error)
}

// Host is a complete hotkey backend.
type Host interface {
	Subscriber
	// Events delivers activations and the final Terminate or Error event.
	Events() <-chan Event
	// Close stops the event source; a Terminate event follows.
	Close() error
}
