package binding

import (
	"fmt"
	"strings"
)

// Chord is a key plus a set of modifiers, treated as one activation trigger.
type Chord struct {
	Key       Key
	Modifiers ModifierSet
}

// String renders the chord as "Super+Alt+Left".
func (c Chord) String() string {
	if c.Modifiers == 0 {
		return c.Key.String()
	}
	return c.Modifiers.String() + "+" + c.Key.String()
}

// ParseChord parses "super+alt+left". The last element is the key.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return Chord{}, fmt.Errorf("invalid chord %q", s)
	}

	key, err := ParseKey(parts[len(parts)-1])
	if err != nil {
		return Chord{}, fmt.Errorf("invalid chord %q: %w", s, err)
	}
	mods, err := ParseModifiers(parts[:len(parts)-1])
	if err != nil {
		return Chord{}, fmt.Errorf("invalid chord %q: %w", s, err)
	}
	return Chord{Key: key, Modifiers: mods}, nil
}
