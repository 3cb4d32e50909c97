package model

import (
	"crypto/sha256"
	"fmt"
)

// StableIDPrefix starts every node identifier.
const StableIDPrefix = "node_"

// StableID derives a node identifier from its identifying attributes and its
// position in the tree. The same inputs always yield the same id, so a node
// keeps its id across scans while the tree above it is unchanged.
func StableID(resourceID, className string, b Bounds, depth, siblingIndex int, parentID string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d,%d,%d,%d|%d|%d|%s",
		resourceID, className, b.Left, b.Top, b.Right, b.Bottom, depth, siblingIndex, parentID)
	return StableIDPrefix + fmt.Sprintf("%x", h.Sum(nil))[:12]
}
