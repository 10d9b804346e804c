package x11

import (
	"fmt"

	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	Bounds geometry.Rect
}

// Monitors retrieves all active monitors using XRandR
func (c *Connection) Monitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			name = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			Bounds: geometry.FromXYWH(int(crtcInfo.X), int(crtcInfo.Y), int(crtcInfo.Width), int(crtcInfo.Height)),
		})
	}

	return monitors, nil
}

// MonitorForWindow returns the monitor holding the centre of a window,
// falling back to the monitor under the pointer and then the first monitor.
func (c *Connection) MonitorForWindow(windowID xproto.Window) (Monitor, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return Monitor{}, err
	}
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("no monitors found")
	}

	if rect, err := c.ClientRect(windowID); err == nil {
		cx, cy := rect.Center()
		if mon, ok := monitorAt(monitors, cx, cy); ok {
			return mon, nil
		}
	}

	if pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		if mon, ok := monitorAt(monitors, int(pointer.RootX), int(pointer.RootY)); ok {
			return mon, nil
		}
	}

	return monitors[0], nil
}

func monitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, mon := range monitors {
		if mon.Bounds.ContainsPoint(x, y) {
			return mon, true
		}
	}
	return Monitor{}, false
}

// WorkArea returns the part of a monitor not covered by docks and panels.
// Dock struts are preferred because _NET_WORKAREA spans every monitor.
func (c *Connection) WorkArea(mon Monitor) geometry.Rect {
	if area, ok := c.workAreaFromStruts(mon.Bounds); ok {
		return area
	}

	workAreas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workAreas) == 0 {
		return mon.Bounds
	}

	index := 0
	if desktop, err := c.CurrentDesktop(); err == nil && desktop >= 0 && desktop < len(workAreas) {
		index = desktop
	}
	wa := workAreas[index]
	area := geometry.FromXYWH(wa.X, wa.Y, int(wa.Width), int(wa.Height))

	if isect, ok := mon.Bounds.Intersect(area); ok {
		return isect
	}
	return mon.Bounds
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func (s dockStruts) empty() bool {
	return s.left == 0 && s.right == 0 && s.top == 0 && s.bottom == 0
}

func (c *Connection) workAreaFromStruts(bounds geometry.Rect) (geometry.Rect, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}
	root := geometry.FromXYWH(0, 0, int(rootGeom.Width), int(rootGeom.Height))

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return geometry.Rect{}, false
	}

	var struts dockStruts
	for _, windowID := range clients {
		if !c.isDock(windowID) {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			struts = accumulateStruts(struts, bounds, root, sp)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			struts = accumulateStruts(struts, bounds, root, &ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(root.Bottom - 1),
				RightEndY:  uint(root.Bottom - 1),
				TopEndX:    uint(root.Right - 1),
				BottomEndX: uint(root.Right - 1),
			})
		}
	}

	if struts.empty() {
		return geometry.Rect{}, false
	}
	return bounds.Inset(struts.left, struts.top, struts.right, struts.bottom), true
}

func (c *Connection) isDock(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// accumulateStruts folds one dock's reserved edges into acc, counting only
// the part that overlaps the monitor.
func accumulateStruts(acc dockStruts, mon, root geometry.Rect, sp *ewmh.WmStrutPartial) dockStruts {
	if sp.Top > 0 {
		band := geometry.NewRect(int(sp.TopStartX), 0, int(sp.TopEndX)+1, int(sp.Top))
		if isect, ok := mon.Intersect(band); ok {
			acc.top = max(acc.top, isect.Height())
		}
	}
	if sp.Bottom > 0 {
		band := geometry.NewRect(int(sp.BottomStartX), root.Bottom-int(sp.Bottom), int(sp.BottomEndX)+1, root.Bottom)
		if isect, ok := mon.Intersect(band); ok {
			acc.bottom = max(acc.bottom, isect.Height())
		}
	}
	if sp.Left > 0 {
		band := geometry.NewRect(0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY)+1)
		if isect, ok := mon.Intersect(band); ok {
			acc.left = max(acc.left, isect.Width())
		}
	}
	if sp.Right > 0 {
		band := geometry.NewRect(root.Right-int(sp.Right), int(sp.RightStartY), root.Right, int(sp.RightEndY)+1)
		if isect, ok := mon.Intersect(band); ok {
			acc.right = max(acc.right, isect.Width())
		}
	}
	return acc
}
