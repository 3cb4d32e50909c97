// Package virtual implements an in-memory device. It backs the serve and
// snapshot commands when no hardware backend is registered, and the tests of
// every layer above the platform interfaces.
package virtual

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
)

// Node is a mutable node of the virtual UI tree.
type Node struct {
	attrs    platform.NodeAttributes
	children []*Node
	parent   *Node
	detached bool

	// Reject lists actions the node refuses.
	Reject map[platform.Action]bool
}

// NewNode builds a node with the given children.
func NewNode(attrs platform.NodeAttributes, children ...*Node) *Node {
	n := &Node{attrs: attrs}
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Children returns the node's current children.
func (n *Node) Children() []*Node { return n.children }

// ActionRecord is one action accepted by the device.
type ActionRecord struct {
	Action     platform.Action
	ResourceID string
	Text       string
}

type window struct {
	info platform.WindowInfo
	root *Node
}

// Device is an in-memory device. All methods are safe for concurrent use.
type Device struct {
	mu           sync.Mutex
	ready        bool
	multiWindow  bool
	windows      []*window
	screen       model.ScreenInfo
	captureDelay time.Duration
	actions      []ActionRecord

	live atomic.Int64
}

// NewDevice returns a ready device with multi-window support and no windows.
func NewDevice(screen model.ScreenInfo) *Device {
	return &Device{ready: true, multiWindow: true, screen: screen}
}

// AddWindow attaches a window to the device.
func (d *Device) AddWindow(info platform.WindowInfo, root *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, &window{info: info, root: root})
}

// RemoveWindow closes the window with the given id and detaches its tree.
func (d *Device) RemoveWindow(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.windows {
		if w.info.ID == id {
			markDetached(w.root)
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			return
		}
	}
}

// AppendChild attaches child as the last child of parent.
func (d *Device) AppendChild(parent, child *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	child.parent = parent
	child.detached = parent.detached
	parent.children = append(parent.children, child)
}

// Detach removes n and its subtree from the tree.
func (d *Device) Detach(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		n.parent = nil
	}
	markDetached(n)
}

func markDetached(n *Node) {
	n.detached = true
	for _, c := range n.children {
		markDetached(c)
	}
}

// Update mutates the attributes of n.
func (d *Device) Update(n *Node, fn func(*platform.NodeAttributes)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&n.attrs)
}

// Attributes returns the current attributes of n.
func (d *Device) Attributes(n *Node) platform.NodeAttributes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return n.attrs
}

func (d *Device) SetReady(ready bool) {
	d.mu.Lock()
	d.ready = ready
	d.mu.Unlock()
}

func (d *Device) SetMultiWindow(enabled bool) {
	d.mu.Lock()
	d.multiWindow = enabled
	d.mu.Unlock()
}

// SetCaptureDelay makes Capture wait before producing an image.
func (d *Device) SetCaptureDelay(delay time.Duration) {
	d.mu.Lock()
	d.captureDelay = delay
	d.mu.Unlock()
}

// LiveHandles returns the number of acquired but unreleased handles.
func (d *Device) LiveHandles() int64 { return d.live.Load() }

// Actions returns the actions accepted so far.
func (d *Device) Actions() []ActionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ActionRecord, len(d.actions))
	copy(out, d.actions)
	return out
}

// Provider returns a platform bundle backed by d.
func (d *Device) Provider() *platform.Provider {
	return &platform.Provider{Accessibility: d, Capture: d}
}

func (d *Device) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// RootHandle returns the root of the focused window, falling back to the
// topmost window.
func (d *Device) RootHandle() platform.NativeHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	var active *window
	for _, w := range d.windows {
		if w.info.Focused {
			active = w
			break
		}
		if active == nil || w.info.Layer > active.info.Layer {
			active = w
		}
	}
	if active == nil {
		return nil
	}
	return d.acquire(active.root)
}

// Windows returns every window in insertion order.
func (d *Device) Windows() ([]platform.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.multiWindow {
		return nil, platform.ErrMultiWindowUnsupported
	}
	out := make([]platform.Window, 0, len(d.windows))
	for _, w := range d.windows {
		out = append(out, platform.Window{Info: w.info, Root: d.acquire(w.root)})
	}
	return out, nil
}

func (d *Device) ScreenInfo() model.ScreenInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen
}

// Capture renders the visible node bounds of every window as a JPEG.
func (d *Device) Capture(ctx context.Context, quality int) ([]byte, error) {
	d.mu.Lock()
	delay := d.captureDelay
	d.mu.Unlock()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	screen := d.screen
	var boxes []model.Bounds
	windows := append([]*window(nil), d.windows...)
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].info.Layer < windows[j].info.Layer })
	for _, w := range windows {
		collectBounds(w.root, &boxes)
	}
	d.mu.Unlock()
	return render(screen, boxes, quality)
}

func collectBounds(n *Node, out *[]model.Bounds) {
	if n.attrs.Visible && !n.attrs.Bounds.Empty() {
		*out = append(*out, n.attrs.Bounds)
	}
	for _, c := range n.children {
		collectBounds(c, out)
	}
}

// acquire must be called with d.mu held.
func (d *Device) acquire(n *Node) platform.NativeHandle {
	d.live.Add(1)
	return &handle{dev: d, node: n, attrs: n.attrs}
}

func (d *Device) perform(n *Node, action platform.Action, args platform.ActionArgs) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n.detached || n.Reject[action] {
		return false
	}
	switch action {
	case platform.ActionSetText:
		n.attrs.Text = args.Text
	case platform.ActionShowOnScreen:
		n.attrs.Visible = true
	}
	d.actions = append(d.actions, ActionRecord{Action: action, ResourceID: n.attrs.ResourceID, Text: args.Text})
	return true
}
