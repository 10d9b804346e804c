//go:build linux

package hotkeys

import "log/slog"

// NewHost returns the X11 hotkey host for backend.
func NewHost(backend any, logger *slog.Logger) (Host, error) {
	host, err := NewX11Host(backend, logger)
	if err != nil {
		return nil, err
	}
	return host, nil
}
