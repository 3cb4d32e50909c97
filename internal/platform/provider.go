package platform

import (
	"context"
	"errors"
)

// CaptureProvider produces encoded screenshots. Capture blocks until the
// device delivers the image or ctx is done.
type CaptureProvider interface {
	Capture(ctx context.Context, quality int) ([]byte, error)
}

// Provider bundles the device backends.
type Provider struct {
	Accessibility AccessibilityProvider
	Capture       CaptureProvider // nil when screen capture is unavailable
}

var (
	// ErrUnsupported is returned when no device backend is registered.
	ErrUnsupported = errors.New("no device backend registered")

	// ErrMultiWindowUnsupported is returned by Windows when the device can
	// only report its active window.
	ErrMultiWindowUnsupported = errors.New("multi-window enumeration unsupported")
)

// NewProviderFunc is set by backend packages via init().
// See internal/platform/virtual for the in-memory registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns the registered device backend.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
