package hotkeys

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/whimsy/internal/binding"
)

// RegistrationError reports a binding the host refused to subscribe.
type RegistrationError struct {
	Binding binding.Binding
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s: %v", e.Binding.Chord(), e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Failures collects every *RegistrationError in err, including those joined
// by RegisterAll and Replace.
func Failures(err error) []*RegistrationError {
	if err == nil {
		return nil
	}
	var out []*RegistrationError
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case *RegistrationError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			if inner := e.Unwrap(); inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// Entry is a registered binding together with its id.
type Entry struct {
	ID      ID
	Binding binding.Binding
}

type registration struct {
	binding binding.Binding
	sub     Subscription
}

// Registry maps ids to registered bindings and owns their host subscriptions.
// Ids start at 1, grow monotonically and are never reused, even across Replace.
type Registry struct {
	mu      sync.RWMutex
	host    Subscriber
	next    ID
	entries map[ID]registration
}

// NewRegistry creates an empty registry subscribing through host.
func NewRegistry(host Subscriber) *Registry {
	return &Registry{
		host:    host,
		next:    1,
		entries: make(map[ID]registration),
	}
}

// Register subscribes b with the host and returns its id. A refused
// subscription returns a *RegistrationError and does not consume an id.
func (r *Registry) Register(b binding.Binding) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(b)
}

func (r *Registry) registerLocked(b binding.Binding) (ID, error) {
	id := r.next
	sub, err := r.host.Subscribe(id, b.Chord())
	if err != nil {
		return 0, &RegistrationError{Binding: b, Err: err}
	}
	r.next++
	r.entries[id] = registration{binding: b, sub: sub}
	return id, nil
}

// RegisterAll registers every binding in order. A failure does not stop the
// remaining registrations; all failures are joined into the returned error.
func (r *Registry) RegisterAll(bindings []binding.Binding) ([]ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerAllLocked(bindings)
}

func (r *Registry) registerAllLocked(bindings []binding.Binding) ([]ID, error) {
	ids := make([]ID, 0, len(bindings))
	var errs []error
	for _, b := range bindings {
		id, err := r.registerLocked(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// Resolve returns the binding registered under id.
func (r *Registry) Resolve(id ID) (binding.Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[id]
	return reg.binding, ok
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a snapshot of the registrations sorted by id.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for id, reg := range r.entries {
		out = append(out, Entry{ID: id, Binding: reg.binding})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Replace drops every registration and registers bindings in their place.
// New registrations continue the id sequence. Unsubscribe failures are
// joined with registration failures in the returned error.
func (r *Registry) Replace(bindings []binding.Binding) ([]ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	releaseErr := r.releaseLocked()
	ids, err := r.registerAllLocked(bindings)
	return ids, errors.Join(releaseErr, err)
}

// Close releases every host subscription.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releaseLocked()
}

func (r *Registry) releaseLocked() error {
	ids := make([]ID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		reg := r.entries[id]
		delete(r.entries, id)
		if reg.sub == nil {
			continue
		}
		if err := reg.sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("unregister %s: %w", reg.binding.Chord(), err))
		}
	}
	return errors.Join(errs...)
}
