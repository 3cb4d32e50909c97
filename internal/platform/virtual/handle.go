package virtual

import (
	"sync/atomic"

	"github.com/mj1618/remote-ui-mcp/internal/platform"
)

// handle panics on use after release and on double release, so ownership
// mistakes in callers fail loudly in tests.
type handle struct {
	dev      *Device
	node     *Node
	attrs    platform.NodeAttributes
	released atomic.Bool
}

func (h *handle) check() {
	if h.released.Load() {
		panic("virtual: use of released handle")
	}
}

func (h *handle) Attributes() platform.NodeAttributes {
	h.check()
	return h.attrs
}

func (h *handle) ChildCount() int {
	h.check()
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	if h.node.detached {
		return 0
	}
	return len(h.node.children)
}

func (h *handle) Child(i int) platform.NativeHandle {
	h.check()
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	if h.node.detached || i < 0 || i >= len(h.node.children) {
		return nil
	}
	return h.dev.acquire(h.node.children[i])
}

func (h *handle) Refresh() bool {
	h.check()
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	if h.node.detached {
		return false
	}
	h.attrs = h.node.attrs
	return true
}

func (h *handle) Perform(action platform.Action, args platform.ActionArgs) bool {
	h.check()
	return h.dev.perform(h.node, action, args)
}

func (h *handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		panic("virtual: handle released twice")
	}
	h.dev.live.Add(-1)
}
