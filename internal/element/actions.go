package element

import (
	"context"

	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
	"github.com/mj1618/remote-ui-mcp/internal/tree"
	"github.com/mj1618/remote-ui-mcp/internal/uithread"
)

// capability checks a node attribute that an action requires.
type capability struct {
	name string
	has  func(platform.NodeAttributes) bool
}

var (
	clickable     = capability{"clickable", func(a platform.NodeAttributes) bool { return a.Clickable }}
	longClickable = capability{"long-clickable", func(a platform.NodeAttributes) bool { return a.LongClickable }}
	editable      = capability{"editable", func(a platform.NodeAttributes) bool { return a.Editable }}
	scrollable    = capability{"scrollable", func(a platform.NodeAttributes) bool { return a.Scrollable }}
)

// Executor performs native actions on cached nodes. Every action refreshes
// the node first, so a stale id fails with ElementNotFound instead of acting
// on a detached node.
type Executor struct {
	cache *tree.Cache
	loop  *uithread.Loop
}

func NewExecutor(cache *tree.Cache, loop *uithread.Loop) *Executor {
	return &Executor{cache: cache, loop: loop}
}

func (e *Executor) Click(ctx context.Context, id string) error {
	return e.perform(ctx, id, platform.ActionClick, platform.ActionArgs{}, clickable)
}

func (e *Executor) LongClick(ctx context.Context, id string) error {
	return e.perform(ctx, id, platform.ActionLongClick, platform.ActionArgs{}, longClickable)
}

// SetText replaces the text of an editable node.
func (e *Executor) SetText(ctx context.Context, id, text string) error {
	return e.perform(ctx, id, platform.ActionSetText, platform.ActionArgs{Text: text}, editable)
}

// Scroll scrolls a scrollable container one page in dir.
func (e *Executor) Scroll(ctx context.Context, id string, dir platform.Direction) error {
	action := platform.ActionScrollForward
	if dir == platform.DirectionBackward {
		action = platform.ActionScrollBackward
	}
	return e.perform(ctx, id, action, platform.ActionArgs{}, scrollable)
}

// ScrollTo brings a node into view by asking it to show itself inside its
// nearest scrollable ancestor. A node that is already visible succeeds
// without acting.
func (e *Executor) ScrollTo(ctx context.Context, id string) error {
	return e.loop.Do(ctx, func() error {
		var (
			visible  bool
			parentID string
		)
		if err := e.cache.Use(id, func(h platform.NativeHandle, entry tree.Entry) error {
			visible = h.Attributes().Visible
			parentID = entry.ParentID
			return nil
		}); err != nil {
			return err
		}
		if visible {
			return nil
		}
		if !e.hasScrollableAncestor(parentID) {
			return fault.ActionFailed("element %s has no scrollable container", id)
		}
		return e.cache.Use(id, func(h platform.NativeHandle, _ tree.Entry) error {
			if !h.Perform(platform.ActionShowOnScreen, platform.ActionArgs{}) {
				return fault.ActionFailed("scroll to element %s failed", id)
			}
			return nil
		})
	})
}

// hasScrollableAncestor walks the cached parent chain. Window seeds and
// ancestors evicted as stale end the walk.
func (e *Executor) hasScrollableAncestor(parentID string) bool {
	for parentID != "" {
		if _, ok := e.cache.Get(parentID); !ok {
			return false
		}
		var (
			found bool
			next  string
		)
		if err := e.cache.Use(parentID, func(h platform.NativeHandle, entry tree.Entry) error {
			found = h.Attributes().Scrollable
			next = entry.ParentID
			return nil
		}); err != nil {
			return false
		}
		if found {
			return true
		}
		parentID = next
	}
	return false
}

func (e *Executor) perform(ctx context.Context, id string, action platform.Action, args platform.ActionArgs, need capability) error {
	return e.loop.Do(ctx, func() error {
		return e.cache.Use(id, func(h platform.NativeHandle, _ tree.Entry) error {
			a := h.Attributes()
			if !a.Enabled {
				return fault.ActionFailed("element %s is disabled", id)
			}
			if !need.has(a) {
				return fault.ActionFailed("element %s is not %s", id, need.name)
			}
			if !h.Perform(action, args) {
				return fault.ActionFailed("%s on element %s failed", action, id)
			}
			return nil
		})
	})
}
