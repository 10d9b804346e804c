package binding

import (
	"fmt"
	"strings"
)

// Modifier is a single modifier key.
type Modifier uint8

const (
	Control Modifier = 1 << iota
	Alt
	Shift
	Super
)

var allModifiers = []Modifier{Control, Alt, Shift, Super}

func (m Modifier) String() string {
	switch m {
	case Control:
		return "Ctrl"
	case Alt:
		return "Alt"
	case Shift:
		return "Shift"
	case Super:
		return "Super"
	default:
		return fmt.Sprintf("Modifier(%d)", uint8(m))
	}
}

// ParseModifier accepts the usual spellings of each modifier, ignoring case.
func ParseModifier(s string) (Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ctrl", "control", "ctl":
		return Control, nil
	case "alt", "mod1", "option", "opt":
		return Alt, nil
	case "shift":
		return Shift, nil
	case "super", "win", "windows", "mod4", "meta", "cmd", "command", "logo":
		return Super, nil
	default:
		return 0, fmt.Errorf("unknown modifier %q (expected ctrl, alt, shift or super)", s)
	}
}

// ModifierSet is an order-independent set of modifiers.
type ModifierSet uint8

// Modifiers builds a set; repeated entries collapse.
func Modifiers(mods ...Modifier) ModifierSet {
	var set ModifierSet
	for _, m := range mods {
		set |= ModifierSet(m)
	}
	return set
}

// ParseModifiers parses names into a set.
func ParseModifiers(names []string) (ModifierSet, error) {
	var set ModifierSet
	for _, name := range names {
		m, err := ParseModifier(name)
		if err != nil {
			return 0, err
		}
		set |= ModifierSet(m)
	}
	return set, nil
}

func (s ModifierSet) Has(m Modifier) bool { return s&ModifierSet(m) != 0 }

func (s ModifierSet) With(m Modifier) ModifierSet { return s | ModifierSet(m) }

// List returns the members in Ctrl, Alt, Shift, Super order.
func (s ModifierSet) List() []Modifier {
	var out []Modifier
	for _, m := range allModifiers {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Names returns lowercase member names, suitable for config files.
func (s ModifierSet) Names() []string {
	list := s.List()
	names := make([]string, 0, len(list))
	for _, m := range list {
		names = append(names, strings.ToLower(m.String()))
	}
	return names
}

func (s ModifierSet) String() string {
	list := s.List()
	parts := make([]string, 0, len(list))
	for _, m := range list {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, "+")
}
