package model

// Bounds is a screen-absolute rectangle in pixels.
type Bounds struct {
	Left   int `yaml:"left"   json:"left"`
	Top    int `yaml:"top"    json:"top"`
	Right  int `yaml:"right"  json:"right"`
	Bottom int `yaml:"bottom" json:"bottom"`
}

func (b Bounds) Width() int  { return b.Right - b.Left }
func (b Bounds) Height() int { return b.Bottom - b.Top }

// Empty reports whether the rectangle has no area.
func (b Bounds) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// NodeSnapshot is an immutable copy of one UI node and its subtree.
type NodeSnapshot struct {
	ID                 string         `yaml:"id"                           json:"id"`
	ClassName          string         `yaml:"className,omitempty"          json:"className,omitempty"`
	Text               string         `yaml:"text,omitempty"               json:"text,omitempty"`
	ContentDescription string         `yaml:"contentDescription,omitempty" json:"contentDescription,omitempty"`
	ResourceID         string         `yaml:"resourceId,omitempty"         json:"resourceId,omitempty"`
	Bounds             Bounds         `yaml:"bounds"                       json:"bounds"`
	Clickable          bool           `yaml:"clickable,omitempty"          json:"clickable,omitempty"`
	LongClickable      bool           `yaml:"longClickable,omitempty"      json:"longClickable,omitempty"`
	Focusable          bool           `yaml:"focusable,omitempty"          json:"focusable,omitempty"`
	Scrollable         bool           `yaml:"scrollable,omitempty"         json:"scrollable,omitempty"`
	Editable           bool           `yaml:"editable,omitempty"           json:"editable,omitempty"`
	Enabled            bool           `yaml:"enabled"                      json:"enabled"`
	Visible            bool           `yaml:"visible"                      json:"visible"`
	Children           []NodeSnapshot `yaml:"children,omitempty"           json:"children,omitempty"`
}

// Leaf returns a copy of n without its children.
func (n NodeSnapshot) Leaf() NodeSnapshot {
	n.Children = nil
	return n
}

// Count returns the number of nodes in the subtree rooted at n.
func (n NodeSnapshot) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// ScreenInfo describes the device display.
type ScreenInfo struct {
	Width       int     `yaml:"width"       json:"width"`
	Height      int     `yaml:"height"      json:"height"`
	Density     float64 `yaml:"density"     json:"density"`
	Orientation string  `yaml:"orientation" json:"orientation"`
}

// Orientation values reported in ScreenInfo.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)
