//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"github.com/1broseidon/whimsy/internal/geometry"
	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procGetWindowRect     = user32.NewProc("GetWindowRect")
	procSetWindowPos      = user32.NewProc("SetWindowPos")
	procIsZoomed          = user32.NewProc("IsZoomed")
	procMonitorFromWindow = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW   = user32.NewProc("GetMonitorInfoW")
)

const (
	swpNoZOrder        = 0x0004
	swpNoActivate      = 0x0010
	swpNoOwnerZOrder   = 0x0200
	swpAsyncWindowPos  = 0x4000
	swShowNoActivate   = 4
	monitorDefaultNear = 0x00000002
)

type win32Rect struct {
	Left, Top, Right, Bottom int32
}

func (r win32Rect) rect() geometry.Rect {
	return geometry.NewRect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
}

type monitorInfo struct {
	CbSize    uint32
	RcMonitor win32Rect
	RcWork    win32Rect
	DwFlags   uint32
}

// WindowsBackend drives top-level windows through user32.
type WindowsBackend struct{}

var _ Backend = (*WindowsBackend)(nil)

// NewBackend returns the user32 window backend.
func NewBackend() (Backend, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return &WindowsBackend{}, nil
}

func (b *WindowsBackend) Name() string { return "win32" }

func (b *WindowsBackend) Close() error { return nil }

// FocusedWindow returns the foreground window. The desktop and shell
// windows count as nothing focused.
func (b *WindowsBackend) FocusedWindow() (Window, bool, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 || hwnd == windows.GetDesktopWindow() || hwnd == windows.GetShellWindow() {
		return nil, false, nil
	}
	return &win32Window{hwnd: hwnd}, true, nil
}

type win32Window struct {
	hwnd windows.HWND
}

func (w *win32Window) Rect() (geometry.Rect, error) {
	var r win32Rect
	ret, _, err := procGetWindowRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return geometry.Rect{}, fmt.Errorf("GetWindowRect: %w", err)
	}
	return r.rect(), nil
}

// SetRect posts the move asynchronously, leaving z-order and activation alone.
func (w *win32Window) SetRect(r geometry.Rect) error {
	if zoomed, _, _ := procIsZoomed.Call(uintptr(w.hwnd)); zoomed != 0 {
		windows.ShowWindow(w.hwnd, swShowNoActivate)
	}

	x, y, width, height := r.XYWH()
	ret, _, err := procSetWindowPos.Call(
		uintptr(w.hwnd),
		0,
		uintptr(x),
		uintptr(y),
		uintptr(width),
		uintptr(height),
		swpNoZOrder|swpNoOwnerZOrder|swpNoActivate|swpAsyncWindowPos,
	)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

func (w *win32Window) Monitor() Monitor {
	hmon, _, _ := procMonitorFromWindow.Call(uintptr(w.hwnd), monitorDefaultNear)
	return &win32Monitor{hmon: hmon}
}

type win32Monitor struct {
	hmon uintptr
}

func (m *win32Monitor) WorkArea() (geometry.Rect, error) {
	if m.hmon == 0 {
		return geometry.Rect{}, fmt.Errorf("window has no monitor")
	}
	info := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
	ret, _, err := procGetMonitorInfoW.Call(m.hmon, uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return geometry.Rect{}, fmt.Errorf("GetMonitorInfoW: %w", err)
	}
	return info.RcWork.rect(), nil
}
