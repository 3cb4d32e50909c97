// Package element finds nodes in snapshots and performs actions on them.
package element

import (
	"fmt"
	"strings"

	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"github.com/mj1618/remote-ui-mcp/internal/model"
)

// Criterion selects the node attribute a search compares against.
type Criterion string

const (
	ByText               Criterion = "text"
	ByContentDescription Criterion = "content_desc"
	ByResourceID         Criterion = "resource_id"
	ByClassName          Criterion = "class_name"
)

// Criteria lists every supported criterion.
var Criteria = []Criterion{ByText, ByContentDescription, ByResourceID, ByClassName}

// ParseCriterion converts a string value to a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	for _, c := range Criteria {
		if string(c) == strings.ToLower(strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown criterion: %q (expected text, content_desc, resource_id, or class_name)", s)
}

func (c Criterion) field(n model.NodeSnapshot) string {
	switch c {
	case ByText:
		return n.Text
	case ByContentDescription:
		return n.ContentDescription
	case ByResourceID:
		return n.ResourceID
	case ByClassName:
		return n.ClassName
	default:
		return ""
	}
}

// FindElements returns every node whose by-attribute matches value, in
// window order and then pre-order. An empty result is not an error.
func FindElements(windows []model.WindowSnapshot, by Criterion, value string, exact bool) ([]model.ElementMatch, error) {
	if value == "" {
		return nil, fault.InvalidParams("search value must not be empty")
	}
	if _, err := ParseCriterion(string(by)); err != nil {
		return nil, fault.InvalidParams("%v", err)
	}
	matches := []model.ElementMatch{}
	for _, w := range windows {
		model.Walk(w.Tree, func(n model.NodeSnapshot, path string) bool {
			if model.TextMatches(by.field(n), value, exact) {
				matches = append(matches, model.ElementMatch{WindowID: w.WindowID, Path: path, Node: n.Leaf()})
			}
			return true
		})
	}
	return matches, nil
}

// FindNodeByID looks id up in the snapshots and returns the node with its
// subtree and the id of the window containing it.
func FindNodeByID(windows []model.WindowSnapshot, id string) (model.NodeSnapshot, int, bool) {
	for _, w := range windows {
		var (
			found model.NodeSnapshot
			ok    bool
		)
		model.Walk(w.Tree, func(n model.NodeSnapshot, _ string) bool {
			if n.ID == id {
				found, ok = n, true
				return false
			}
			return true
		})
		if ok {
			return found, w.WindowID, true
		}
	}
	return model.NodeSnapshot{}, 0, false
}
