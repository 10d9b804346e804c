package x11

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// FrameExtents are the decoration sizes the window manager draws around a client.
type FrameExtents struct {
	Left, Right, Top, Bottom int
}

// ActiveWindow returns the focused client. ok is false when nothing is
// focused or the root window itself holds focus.
func (c *Connection) ActiveWindow() (xproto.Window, bool, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0, false, err
	}
	if win == 0 || win == c.Root {
		return 0, false, nil
	}
	return win, true, nil
}

// ClientRect returns the client area of a window in root coordinates.
func (c *Connection) ClientRect(windowID xproto.Window) (geometry.Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("get geometry of window %d: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("translate coordinates of window %d: %w", windowID, err)
	}

	return geometry.FromXYWH(int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height)), nil
}

// WindowRect returns the outer rectangle of a window, decorations included.
func (c *Connection) WindowRect(windowID xproto.Window) (geometry.Rect, error) {
	client, err := c.ClientRect(windowID)
	if err != nil {
		return geometry.Rect{}, err
	}
	ext := c.FrameExtents(windowID)
	return geometry.NewRect(
		client.Left-ext.Left,
		client.Top-ext.Top,
		client.Right+ext.Right,
		client.Bottom+ext.Bottom,
	), nil
}

// MoveResizeWindow places the outer rectangle of a window at rect. The
// request goes through _NET_MOVERESIZE_WINDOW, which neither raises nor
// focuses the window and returns without waiting for the window manager.
// Without EWMH support the window is configured directly.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, rect geometry.Rect) error {
	// Maximized windows ignore move requests on most window managers.
	if err := c.unmaximizeWindow(windowID); err != nil {
		slog.Warn("failed to unmaximize window", "window", windowID, "error", err)
	}

	ext := c.FrameExtents(windowID)
	x, y := rect.Left, rect.Top
	width := max(rect.Width()-ext.Left-ext.Right, 1)
	height := max(rect.Height()-ext.Top-ext.Bottom, 1)

	return moveResizeWithFallback(
		func() error {
			return ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height)
		},
		func() error {
			mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
			values := []uint32{uint32(x), uint32(y), uint32(width), uint32(height)}
			return xproto.ConfigureWindowChecked(c.XUtil.Conn(), windowID, mask, values).Check()
		},
	)
}

// moveResizeWithFallback runs fallback only when primary fails, and
// reports both errors when neither succeeds.
func moveResizeWithFallback(primary, fallback func() error) error {
	err := primary()
	if err == nil {
		return nil
	}
	if ferr := fallback(); ferr != nil {
		return fmt.Errorf("move window: %w", errors.Join(err, ferr))
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return err
	}

	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			if err := ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state); err != nil {
				return err
			}
		}
	}
	return nil
}

// FrameExtents returns the window decoration sizes, or zeros when the
// window manager does not publish _NET_FRAME_EXTENTS.
func (c *Connection) FrameExtents(windowID xproto.Window) FrameExtents {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return FrameExtents{}
	}
	return FrameExtents{
		Left:   int(extents.Left),
		Right:  int(extents.Right),
		Top:    int(extents.Top),
		Bottom: int(extents.Bottom),
	}
}
