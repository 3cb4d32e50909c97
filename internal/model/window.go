package model

import "strings"

// WindowType classifies a window on the device.
type WindowType string

const (
	WindowApplication          WindowType = "application"
	WindowInputMethod          WindowType = "input_method"
	WindowSystem               WindowType = "system"
	WindowAccessibilityOverlay WindowType = "accessibility_overlay"
	WindowSplitScreenDivider   WindowType = "split_screen_divider"
	WindowMagnificationOverlay WindowType = "magnification_overlay"
	WindowUnknown              WindowType = "unknown"
)

var windowTypes = []WindowType{
	WindowApplication, WindowInputMethod, WindowSystem, WindowAccessibilityOverlay,
	WindowSplitScreenDivider, WindowMagnificationOverlay,
}

// ParseWindowType maps a name to a WindowType. Unrecognised names map to
// WindowUnknown.
func ParseWindowType(s string) WindowType {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range windowTypes {
		if string(t) == s {
			return t
		}
	}
	return WindowUnknown
}

// WindowSnapshot is one window of a multi-window scan.
type WindowSnapshot struct {
	WindowID     int          `yaml:"windowId"               json:"windowId"`
	Type         WindowType   `yaml:"type"                   json:"type"`
	PackageName  string       `yaml:"packageName,omitempty"  json:"packageName,omitempty"`
	Title        string       `yaml:"title,omitempty"        json:"title,omitempty"`
	ActivityName string       `yaml:"activityName,omitempty" json:"activityName,omitempty"`
	Layer        int          `yaml:"layer"                  json:"layer"`
	Focused      bool         `yaml:"focused,omitempty"      json:"focused,omitempty"`
	Tree         NodeSnapshot `yaml:"tree"                   json:"tree"`
}

// MultiWindowResult is the outcome of one scan, windows ordered topmost first.
type MultiWindowResult struct {
	Windows  []WindowSnapshot `yaml:"windows"            json:"windows"`
	Degraded bool             `yaml:"degraded,omitempty" json:"degraded,omitempty"`
}

// ElementMatch is a flattened search hit.
type ElementMatch struct {
	WindowID int          `yaml:"windowId"       json:"windowId"`
	Path     string       `yaml:"path,omitempty" json:"path,omitempty"`
	Node     NodeSnapshot `yaml:"node"           json:"node"`
}
