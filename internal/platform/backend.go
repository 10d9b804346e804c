// Package platform defines the window-manager surface the dispatcher drives
// and provides one backend per operating system.
package platform

import (
	"errors"

	"github.com/1broseidon/whimsy/internal/geometry"
)

// ErrUnsupported is returned on platforms without a window backend.
var ErrUnsupported = errors.New("platform: window management is not supported on this operating system")

// WindowManager finds the window hotkeys act on.
type WindowManager interface {
	// FocusedWindow returns the window receiving keyboard input. ok is
	// false when nothing is focused, for example when the desktop is.
	FocusedWindow() (w Window, ok bool, err error)
}

// Window is a top-level application window.
type Window interface {
	Rect() (geometry.Rect, error)
	// SetRect moves and resizes the window without restacking or focusing
	// it, and without waiting for it to redraw.
	SetRect(geometry.Rect) error
	Monitor() Monitor
}

// Monitor is the display a window lives on.
type Monitor interface {
	// WorkArea excludes persistent chrome such as panels and task bars.
	WorkArea() (geometry.Rect, error)
}

// Backend is a WindowManager that owns an OS connection.
type Backend interface {
	WindowManager
	Name() string
	Close() error
}
