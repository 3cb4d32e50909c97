package platform

import "github.com/mj1618/remote-ui-mcp/internal/model"

// NativeHandle references one live node of the device UI tree. A handle has
// exactly one owner; the owner must call Release once and never use the
// handle afterwards. Handles may only be used on the UI thread.
type NativeHandle interface {
	// Attributes returns the node's attributes as last read from the device.
	Attributes() NodeAttributes

	// ChildCount returns the number of children at the time of the call.
	ChildCount() int

	// Child acquires a handle for the i-th child. It returns nil when the
	// child vanished between ChildCount and Child.
	Child(i int) NativeHandle

	// Refresh re-reads the node from the device. It returns false once the
	// node is no longer attached to a window.
	Refresh() bool

	// Perform executes a native action and reports whether the device
	// accepted it.
	Perform(action Action, args ActionArgs) bool

	// Release returns the handle to the device.
	Release()
}

// Window is one entry of a window enumeration. Ownership of Root passes to
// the caller.
type Window struct {
	Info WindowInfo
	Root NativeHandle
}

// AccessibilityProvider exposes the device UI tree.
type AccessibilityProvider interface {
	// IsReady reports whether the accessibility service is connected.
	IsReady() bool

	// RootHandle returns the root of the active window, or nil when no
	// window is active.
	RootHandle() NativeHandle

	// Windows enumerates all windows. Providers without multi-window
	// support return ErrMultiWindowUnsupported.
	Windows() ([]Window, error)

	ScreenInfo() model.ScreenInfo
}
