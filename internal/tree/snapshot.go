// Package tree turns the live device UI tree into immutable snapshots with
// stable node identifiers, and keeps the native handles behind those
// identifiers so later actions can re-resolve them.
package tree

import (
	"context"
	"log/slog"

	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
)

// MaxDepth is the deepest level a parse descends to. Nodes at this depth are
// returned as leaves.
const MaxDepth = 100

// Sink collects the handles visited by a caching parse. It owns them until
// they are handed to a Cache with Replace, or released with Discard.
type Sink struct {
	entries []sinkEntry
}

type sinkEntry struct {
	id     string
	handle platform.NativeHandle
	entry  Entry
}

// Len returns the number of collected handles.
func (s *Sink) Len() int { return len(s.entries) }

// Discard releases every collected handle.
func (s *Sink) Discard() {
	for _, e := range s.entries {
		e.handle.Release()
	}
	s.entries = nil
}

// add takes ownership of h and returns its slot. The id is filled in once
// the node's attributes have been read.
func (s *Sink) add(h platform.NativeHandle, depth, index int, parentID string) int {
	s.entries = append(s.entries, sinkEntry{
		handle: h,
		entry:  Entry{Depth: depth, Index: index, ParentID: parentID},
	})
	return len(s.entries) - 1
}

// ParseTree reads the tree under root in depth-first pre-order. The root's
// parent id is seed.
//
// With a nil sink the parse is ephemeral: each child handle is released once
// its subtree has been read, and root stays owned by the caller. With a
// sink, every visited handle including root is handed to the sink and none
// is released.
func ParseTree(root platform.NativeHandle, seed string, sink *Sink) model.NodeSnapshot {
	p := parser{sink: sink}
	node := p.parse(root, 0, 0, seed)
	if p.truncated > 0 {
		truncatedSubtrees.Add(context.Background(), int64(p.truncated))
		slog.Warn("tree depth limit reached, subtrees truncated",
			slog.Int("max_depth", MaxDepth),
			slog.Int("truncated", p.truncated),
			slog.String("seed", seed))
	}
	return node
}

type parser struct {
	sink      *Sink
	truncated int
}

func (p *parser) parse(h platform.NativeHandle, depth, index int, parentID string) model.NodeSnapshot {
	slot := -1
	if p.sink != nil {
		slot = p.sink.add(h, depth, index, parentID)
	}
	attrs := h.Attributes()
	id := model.StableID(attrs.ResourceID, attrs.ClassName, attrs.Bounds, depth, index, parentID)
	node := snapshotOf(id, attrs)
	if slot >= 0 {
		p.sink.entries[slot].id = id
	}

	count := h.ChildCount()
	if depth >= MaxDepth {
		if count > 0 {
			p.truncated++
		}
		return node
	}
	for i := 0; i < count; i++ {
		child := h.Child(i)
		if child == nil {
			continue
		}
		node.Children = append(node.Children, p.parseChild(child, depth+1, i, id))
	}
	return node
}

func (p *parser) parseChild(h platform.NativeHandle, depth, index int, parentID string) model.NodeSnapshot {
	if p.sink == nil {
		defer h.Release()
	}
	return p.parse(h, depth, index, parentID)
}

func snapshotOf(id string, a platform.NodeAttributes) model.NodeSnapshot {
	return model.NodeSnapshot{
		ID:                 id,
		ClassName:          a.ClassName,
		Text:               a.Text,
		ContentDescription: a.ContentDescription,
		ResourceID:         a.ResourceID,
		Bounds:             a.Bounds,
		Clickable:          a.Clickable,
		LongClickable:      a.LongClickable,
		Focusable:          a.Focusable,
		Scrollable:         a.Scrollable,
		Editable:           a.Editable,
		Enabled:            a.Enabled,
		Visible:            a.Visible,
	}
}
