//go:build !linux && !windows

package hotkeys

import (
	"log/slog"

	"github.com/1broseidon/whimsy/internal/platform"
)

// NewHost reports that global hotkeys are not available on this platform.
func NewHost(_ any, _ *slog.Logger) (Host, error) {
	return nil, platform.ErrUnsupported
}
