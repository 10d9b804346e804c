// Package binding models configured hotkeys: a chord and the window action it triggers.
package binding

import "fmt"

// Binding is one configured hotkey. Values are immutable once built.
type Binding struct {
	Key       Key
	Modifiers ModifierSet
	Action    Action
}

func (b Binding) Chord() Chord {
	return Chord{Key: b.Key, Modifiers: b.Modifiers}
}

// Validate checks the key and the action parameters.
func (b Binding) Validate() error {
	if b.Key == "" {
		return fmt.Errorf("binding has no key")
	}
	if b.Action == nil {
		return fmt.Errorf("binding %s has no action", b.Chord())
	}
	return b.Action.Validate()
}

func (b Binding) String() string {
	if b.Action == nil {
		return b.Chord().String()
	}
	return b.Chord().String() + " -> " + b.Action.String()
}
