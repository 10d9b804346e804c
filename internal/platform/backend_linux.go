//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/1broseidon/whimsy/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend drives EWMH-compliant X11 window managers.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewBackend opens the X11 display named by $DISPLAY.
func NewBackend() (Backend, error) {
	b, err := NewLinuxBackendFromDisplay()
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

func (b *LinuxBackend) Name() string { return "x11" }

// Close closes the underlying X11 connection.
func (b *LinuxBackend) Close() error {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
	return nil
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// FocusedWindow reads _NET_ACTIVE_WINDOW.
func (b *LinuxBackend) FocusedWindow() (Window, bool, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, false, err
	}

	id, ok, err := conn.ActiveWindow()
	if err != nil || !ok {
		return nil, false, err
	}
	return &x11Window{conn: conn, id: id}, true, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

type x11Window struct {
	conn *x11.Connection
	id   xproto.Window
}

func (w *x11Window) Rect() (geometry.Rect, error) {
	return w.conn.WindowRect(w.id)
}

func (w *x11Window) SetRect(r geometry.Rect) error {
	return w.conn.MoveResizeWindow(w.id, r)
}

func (w *x11Window) Monitor() Monitor {
	return &x11Monitor{conn: w.conn, window: w.id}
}

type x11Monitor struct {
	conn   *x11.Connection
	window xproto.Window
}

func (m *x11Monitor) WorkArea() (geometry.Rect, error) {
	mon, err := m.conn.MonitorForWindow(m.window)
	if err != nil {
		return geometry.Rect{}, err
	}
	return m.conn.WorkArea(mon), nil
}
