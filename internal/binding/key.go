package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is the canonical name of a physical key, for example "Left", "A" or "F5".
type Key string

var namedKeys = map[string]Key{
	"left":         "Left",
	"right":        "Right",
	"up":           "Up",
	"down":         "Down",
	"home":         "Home",
	"end":          "End",
	"pageup":       "PageUp",
	"pgup":         "PageUp",
	"prior":        "PageUp",
	"pagedown":     "PageDown",
	"pgdn":         "PageDown",
	"next":         "PageDown",
	"insert":       "Insert",
	"ins":          "Insert",
	"delete":       "Delete",
	"del":          "Delete",
	"space":        "Space",
	"tab":          "Tab",
	"return":       "Return",
	"enter":        "Return",
	"escape":       "Escape",
	"esc":          "Escape",
	"backspace":    "Backspace",
	"minus":        "Minus",
	"-":            "Minus",
	"equal":        "Equal",
	"=":            "Equal",
	"comma":        "Comma",
	",":            "Comma",
	"period":       "Period",
	".":            "Period",
	"slash":        "Slash",
	"/":            "Slash",
	"semicolon":    "Semicolon",
	";":            "Semicolon",
	"apostrophe":   "Apostrophe",
	"quote":        "Apostrophe",
	"'":            "Apostrophe",
	"bracketleft":  "BracketLeft",
	"[":            "BracketLeft",
	"bracketright": "BracketRight",
	"]":            "BracketRight",
	"backslash":    "Backslash",
	"\\":           "Backslash",
	"grave":        "Grave",
	"backtick":     "Grave",
	"`":            "Grave",
}

// ParseKey resolves a key name, ignoring case, to its canonical form.
// Letters, digits, F1-F24, Numpad0-Numpad9, arrows, navigation keys and
// common punctuation are recognised.
func ParseKey(s string) (Key, error) {
	name := strings.TrimSpace(s)
	lower := strings.ToLower(name)
	if lower == "" {
		return "", fmt.Errorf("empty key")
	}

	if len(lower) == 1 {
		c := lower[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Key(strings.ToUpper(lower)), nil
		case c >= '0' && c <= '9':
			return Key(lower), nil
		}
	}

	if k, ok := namedKeys[lower]; ok {
		return k, nil
	}

	if n, ok := numberedKey(lower, "f"); ok && n >= 1 && n <= 24 {
		return Key("F" + strconv.Itoa(n)), nil
	}
	for _, prefix := range []string{"numpad", "kp_", "kp"} {
		if n, ok := numberedKey(lower, prefix); ok && n <= 9 {
			return Key("Numpad" + strconv.Itoa(n)), nil
		}
	}

	return "", fmt.Errorf("unknown key %q", s)
}

func numberedKey(lower, prefix string) (int, bool) {
	rest, found := strings.CutPrefix(lower, prefix)
	if !found || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Letter reports whether k is one of A-Z.
func (k Key) Letter() bool {
	return len(k) == 1 && k[0] >= 'A' && k[0] <= 'Z'
}

// Digit reports whether k is one of the top-row digits 0-9.
func (k Key) Digit() bool {
	return len(k) == 1 && k[0] >= '0' && k[0] <= '9'
}

// FunctionNumber returns n for the function key Fn.
func (k Key) FunctionNumber() (int, bool) {
	return numberedKey(strings.ToLower(string(k)), "f")
}

// NumpadNumber returns n for the keypad digit Numpad<n>.
func (k Key) NumpadNumber() (int, bool) {
	return numberedKey(strings.ToLower(string(k)), "numpad")
}

func (k Key) String() string { return string(k) }

func (k Key) MarshalText() ([]byte, error) { return []byte(k), nil }

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
