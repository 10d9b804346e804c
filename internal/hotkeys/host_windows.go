//go:build windows

package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/whimsy/internal/binding"
	"golang.design/x/hotkey"
)

// WindowsHost registers chords through RegisterHotKey and fans each
// hotkey's keydown channel into a single event stream.
type WindowsHost struct {
	events    chan Event
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewHost returns the Windows hotkey host.
func NewHost(_ any, logger *slog.Logger) (Host, error) {
	return NewWindowsHost(logger), nil
}

func NewWindowsHost(logger *slog.Logger) *WindowsHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowsHost{
		events: make(chan Event, eventBuffer),
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (h *WindowsHost) Subscribe(id ID, chord binding.Chord) (Subscription, error) {
	key, ok := windowsVirtualKey(chord.Key)
	if !ok {
		return nil, fmt.Errorf("key %s has no Windows virtual-key code", chord.Key)
	}

	hk := hotkey.New(windowsModifiers(chord.Modifiers), key)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	sub := &windowsSubscription{hk: hk, stop: make(chan struct{})}
	go sub.forward(h, id)
	return sub, nil
}

func (h *WindowsHost) Events() <-chan Event {
	return h.events
}

func (h *WindowsHost) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.events <- Terminate()
	})
	return nil
}

type windowsSubscription struct {
	hk       *hotkey.Hotkey
	stop     chan struct{}
	stopOnce sync.Once
}

// forward relays keydown edges. The library reports one keydown per press,
// so holding a chord does not repeat.
func (s *windowsSubscription) forward(h *WindowsHost, id ID) {
	for {
		select {
		case <-s.stop:
			return
		case <-h.done:
			return
		case <-s.hk.Keydown():
			select {
			case h.events <- Activation(id):
			default:
				h.logger.Warn("hotkey event dropped, dispatcher is busy", "id", id)
			}
		}
	}
}

func (s *windowsSubscription) Unsubscribe() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		err = s.hk.Unregister()
	})
	return err
}

func windowsModifiers(set binding.ModifierSet) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if set.Has(binding.Control) {
		mods = append(mods, hotkey.ModCtrl)
	}
	if set.Has(binding.Alt) {
		mods = append(mods, hotkey.ModAlt)
	}
	if set.Has(binding.Shift) {
		mods = append(mods, hotkey.ModShift)
	}
	if set.Has(binding.Super) {
		mods = append(mods, hotkey.ModWin)
	}
	return mods
}

var windowsNamedKeys = map[binding.Key]uint16{
	"Backspace":    0x08,
	"Tab":          0x09,
	"Return":       0x0D,
	"Escape":       0x1B,
	"Space":        0x20,
	"PageUp":       0x21,
	"PageDown":     0x22,
	"End":          0x23,
	"Home":         0x24,
	"Left":         0x25,
	"Up":           0x26,
	"Right":        0x27,
	"Down":         0x28,
	"Insert":       0x2D,
	"Delete":       0x2E,
	"Semicolon":    0xBA,
	"Equal":        0xBB,
	"Comma":        0xBC,
	"Minus":        0xBD,
	"Period":       0xBE,
	"Slash":        0xBF,
	"Grave":        0xC0,
	"BracketLeft":  0xDB,
	"Backslash":    0xDC,
	"BracketRight": 0xDD,
	"Apostrophe":   0xDE,
}

func windowsVirtualKey(key binding.Key) (hotkey.Key, bool) {
	switch {
	case key.Letter(), key.Digit():
		// VK codes for A-Z and 0-9 equal their ASCII values.
		return hotkey.Key(key[0]), true
	}
	if n, ok := key.FunctionNumber(); ok && n >= 1 && n <= 24 {
		return hotkey.Key(0x70 + n - 1), true
	}
	if n, ok := key.NumpadNumber(); ok && n <= 9 {
		return hotkey.Key(0x60 + n), true
	}
	vk, ok := windowsNamedKeys[key]
	return hotkey.Key(vk), ok
}
