//go:build !linux && !windows

package platform

// NewBackend reports that this operating system has no window backend.
func NewBackend() (Backend, error) {
	return nil, ErrUnsupported
}
