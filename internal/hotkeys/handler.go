package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const eventBuffer = 64

// x11Accessor is implemented by backends that expose their X11 connection.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// X11Host grabs chords on the root window and pumps xevent.Main on its own
// goroutine, turning key presses into activation events.
type X11Host struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	events chan Event
	logger *slog.Logger

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	quitting  atomic.Bool

	mu      sync.Mutex
	keys    map[string]*x11Key
	grabber keyGrabber
}

var ignoreModsOnce sync.Once

// NewX11Host creates a host on the X11 connection held by backend.
func NewX11Host(backend any, logger *slog.Logger) (*X11Host, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("x11 hotkeys: backend has no X11 connection")
	}
	if logger == nil {
		logger = slog.Default()
	}

	xu := accessor.XUtil()
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	root := accessor.RootWindow()
	return &X11Host{
		xu:      xu,
		root:    root,
		events:  make(chan Event, eventBuffer),
		logger:  logger,
		keys:    make(map[string]*x11Key),
		grabber: &xgbutilGrabber{xu: xu, root: root, logger: logger},
	}, nil
}

// Subscribe grabs chord on the root window. A chord held by an active
// subscription is refused. Presses that repeat the preceding release
// timestamp are X server auto-repeat and are dropped, so holding a chord
// fires once.
func (h *X11Host) Subscribe(id ID, chord binding.Chord) (Subscription, error) {
	keyStr, err := x11KeyString(chord)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key, ok := h.keys[keyStr]
	switch {
	case ok && key.isActive():
		return nil, fmt.Errorf("grab %s: chord is already registered", keyStr)
	case ok:
		// The callbacks from an earlier subscription are still attached,
		// so only the grab needs to be taken again.
		if err := h.grabber.grab(keyStr); err != nil {
			return nil, fmt.Errorf("grab %s: %w", keyStr, err)
		}
	default:
		key = &x11Key{keyStr: keyStr}
		if err := h.grabber.connect(keyStr, h.pressFunc(key), key.released); err != nil {
			return nil, fmt.Errorf("grab %s: %w", keyStr, err)
		}
		h.keys[keyStr] = key
	}

	key.activate(id)
	return &x11Subscription{host: h, key: key}, nil
}

func (h *X11Host) pressFunc(key *x11Key) func(xproto.Timestamp) {
	return func(t xproto.Timestamp) {
		if id, ok := key.pressed(t); ok {
			h.post(Activation(id))
		}
	}
}

// Events starts the X event pump on first use.
func (h *X11Host) Events() <-chan Event {
	h.startOnce.Do(func() {
		h.started.Store(true)
		go h.pump()
	})
	return h.events
}

func (h *X11Host) pump() {
	xevent.Main(h.xu)
	if h.quitting.Load() {
		select {
		case h.events <- Terminate():
		default:
		}
		return
	}
	h.events <- Failure(errors.New("x11 event loop exited unexpectedly"))
}

// Close stops the event pump. The pending Terminate event is still delivered.
func (h *X11Host) Close() error {
	h.closeOnce.Do(func() {
		h.quitting.Store(true)
		// Claim the pump so a later Events call does not start it.
		h.startOnce.Do(func() {})
		if !h.started.Load() {
			h.events <- Terminate()
			return
		}
		xevent.Quit(h.xu)
		h.wake()
	})
	return nil
}

// wake unblocks xevent.Main, which only notices Quit after reading an event.
// A client message sent with an empty event mask to a window we created is
// delivered to us alone.
func (h *X11Host) wake() {
	win, err := xwindow.Generate(h.xu)
	if err != nil {
		h.logger.Warn("x11 wake window", "error", err)
		return
	}
	win.Create(h.root, 0, 0, 1, 1, 0)
	defer win.Destroy()

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win.Id,
		Type:   xproto.AtomNone,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, 0, 0, 0, 0}),
	}
	err = xproto.SendEventChecked(h.xu.Conn(), false, win.Id, xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
	if err != nil {
		h.logger.Warn("x11 wake event", "error", err)
	}
}

func (h *X11Host) post(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("hotkey event dropped, dispatcher is busy", "id", ev.ID)
	}
}

// x11Key is the state behind one grabbed key string. Its callbacks stay
// attached to the root window for the life of the host and route presses
// to whichever id currently holds the key.
type x11Key struct {
	keyStr string

	mu          sync.Mutex
	id          ID
	active      bool
	lastRelease xproto.Timestamp
}

func (k *x11Key) activate(id ID) {
	k.mu.Lock()
	k.id = id
	k.active = true
	k.mu.Unlock()
}

// deactivate reports whether the key was active.
func (k *x11Key) deactivate() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	was := k.active
	k.active = false
	return was
}

func (k *x11Key) isActive() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

func (k *x11Key) pressed(t xproto.Timestamp) (ID, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.active || t == k.lastRelease {
		return 0, false
	}
	return k.id, true
}

func (k *x11Key) released(t xproto.Timestamp) {
	k.mu.Lock()
	k.lastRelease = t
	k.mu.Unlock()
}

type x11Subscription struct {
	host *X11Host
	key  *x11Key
}

// Unsubscribe releases the grab. The key's callbacks ignore events until
// the chord is subscribed again.
func (s *x11Subscription) Unsubscribe() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	if !s.key.deactivate() {
		return nil
	}
	return s.host.grabber.ungrab(s.key.keyStr)
}

// keyGrabber performs the X requests behind a subscription.
type keyGrabber interface {
	// connect attaches press and release callbacks for keyStr and grabs it.
	connect(keyStr string, press, release func(xproto.Timestamp)) error
	grab(keyStr string) error
	ungrab(keyStr string) error
}

type xgbutilGrabber struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger
}

func (g *xgbutilGrabber) connect(keyStr string, press, release func(xproto.Timestamp)) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		press(ev.Time)
	}).Connect(g.xu, g.root, keyStr, true)
	if err != nil {
		return err
	}

	err = keybind.KeyReleaseFun(func(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		release(ev.Time)
	}).Connect(g.xu, g.root, keyStr, false)
	if err != nil {
		g.logger.Warn("key release tracking unavailable", "key", keyStr, "error", err)
	}
	return nil
}

func (g *xgbutilGrabber) grab(keyStr string) error {
	mods, keycodes, err := keybind.ParseString(g.xu, keyStr)
	if err != nil {
		return err
	}
	for i, keycode := range keycodes {
		if err := keybind.GrabChecked(g.xu, g.root, mods, keycode); err != nil {
			for _, grabbed := range keycodes[:i] {
				keybind.Ungrab(g.xu, g.root, mods, grabbed)
			}
			return err
		}
	}
	return nil
}

func (g *xgbutilGrabber) ungrab(keyStr string) error {
	mods, keycodes, err := keybind.ParseString(g.xu, keyStr)
	if err != nil {
		return err
	}
	for _, keycode := range keycodes {
		keybind.Ungrab(g.xu, g.root, mods, keycode)
	}
	return nil
}

var x11Keysyms = map[binding.Key]string{
	"PageUp":       "Prior",
	"PageDown":     "Next",
	"Space":        "space",
	"Backspace":    "BackSpace",
	"Minus":        "minus",
	"Equal":        "equal",
	"Comma":        "comma",
	"Period":       "period",
	"Slash":        "slash",
	"Semicolon":    "semicolon",
	"Apostrophe":   "apostrophe",
	"BracketLeft":  "bracketleft",
	"BracketRight": "bracketright",
	"Backslash":    "backslash",
	"Grave":        "grave",
}

// x11KeyString renders chord in xgbutil's keybind syntax, e.g. "Mod4-Mod1-Left".
func x11KeyString(chord binding.Chord) (string, error) {
	keysym, err := x11Keysym(chord.Key)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, 5)
	for _, m := range chord.Modifiers.List() {
		switch m {
		case binding.Control:
			parts = append(parts, "Control")
		case binding.Alt:
			parts = append(parts, "Mod1")
		case binding.Shift:
			parts = append(parts, "Shift")
		case binding.Super:
			parts = append(parts, "Mod4")
		}
	}
	parts = append(parts, keysym)
	return strings.Join(parts, "-"), nil
}

func x11Keysym(key binding.Key) (string, error) {
	switch {
	case key == "":
		return "", fmt.Errorf("empty key")
	case key.Letter():
		return strings.ToLower(string(key)), nil
	case key.Digit():
		return string(key), nil
	}
	if n, ok := key.NumpadNumber(); ok {
		return fmt.Sprintf("KP_%d", n), nil
	}
	if keysym, ok := x11Keysyms[key]; ok {
		return keysym, nil
	}
	// Arrows, F-keys, Home, End, Insert, Delete, Tab, Return and Escape
	// already use their X keysym names.
	return string(key), nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	// Every combination of the lock modifiers, including none.
	ignore := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
