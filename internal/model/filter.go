package model

import "strings"

// TextMatches compares a node attribute against a search value. Exact
// matching is case-sensitive equality; otherwise the value must occur in the
// candidate ignoring case. An empty candidate never matches.
func TextMatches(candidate, value string, exact bool) bool {
	if candidate == "" {
		return false
	}
	if exact {
		return candidate == value
	}
	return strings.Contains(strings.ToLower(candidate), strings.ToLower(value))
}

// FilterVisible returns a copy of the tree without invisible nodes. The root
// is always kept. When a node is invisible but has visible descendants, those
// descendants are attached to the nearest kept ancestor.
func FilterVisible(n NodeSnapshot) NodeSnapshot {
	out := n
	out.Children = filterVisibleChildren(n.Children)
	return out
}

func filterVisibleChildren(children []NodeSnapshot) []NodeSnapshot {
	var result []NodeSnapshot
	for _, c := range children {
		kept := filterVisibleChildren(c.Children)
		if c.Visible {
			filtered := c
			filtered.Children = kept
			result = append(result, filtered)
		} else if len(kept) > 0 {
			result = append(result, kept...)
		}
	}
	return result
}
