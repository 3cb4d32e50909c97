package model

import "strings"

// ShortClassName strips the package qualifier from a class name:
// "android.widget.Button" becomes "Button".
func ShortClassName(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		return className[i+1:]
	}
	return className
}

// Walk visits the subtree rooted at n in depth-first pre-order. Each node is
// passed with a breadcrumb of short class names joined with " > ". Returning
// false from fn stops the walk.
func Walk(n NodeSnapshot, fn func(node NodeSnapshot, path string) bool) {
	walkRecursive(n, "", fn)
}

func walkRecursive(n NodeSnapshot, parentPath string, fn func(NodeSnapshot, string) bool) bool {
	currentPath := ShortClassName(n.ClassName)
	if parentPath != "" {
		currentPath = parentPath + " > " + currentPath
	}
	if !fn(n, currentPath) {
		return false
	}
	for _, child := range n.Children {
		if !walkRecursive(child, currentPath, fn) {
			return false
		}
	}
	return true
}

// FlattenWindows converts every window tree into a flat list of matches in
// window order, then pre-order within each window.
func FlattenWindows(windows []WindowSnapshot) []ElementMatch {
	var result []ElementMatch
	for _, w := range windows {
		Walk(w.Tree, func(n NodeSnapshot, path string) bool {
			result = append(result, ElementMatch{WindowID: w.WindowID, Path: path, Node: n.Leaf()})
			return true
		})
	}
	return result
}
