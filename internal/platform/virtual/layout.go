package virtual

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoLayout []byte

// maxLayoutSize caps layout files read from disk.
const maxLayoutSize = 4 << 20

// Layout describes a virtual device in YAML.
type Layout struct {
	Screen      model.ScreenInfo `yaml:"screen"`
	MultiWindow *bool            `yaml:"multi_window,omitempty"`
	Windows     []LayoutWindow   `yaml:"windows"`
}

// LayoutWindow describes one window and its tree.
type LayoutWindow struct {
	ID       int        `yaml:"id"`
	Type     string     `yaml:"type"`
	Package  string     `yaml:"package,omitempty"`
	Title    string     `yaml:"title,omitempty"`
	Activity string     `yaml:"activity,omitempty"`
	Layer    int        `yaml:"layer"`
	Focused  bool       `yaml:"focused,omitempty"`
	Root     LayoutNode `yaml:"root"`
}

// LayoutNode describes one node. Nodes are enabled and visible unless the
// "disabled" or "hidden" flags are set.
type LayoutNode struct {
	Class    string       `yaml:"class"`
	Text     string       `yaml:"text,omitempty"`
	Desc     string       `yaml:"desc,omitempty"`
	ID       string       `yaml:"id,omitempty"`
	Bounds   string       `yaml:"bounds"`
	Flags    []string     `yaml:"flags,omitempty"`
	Children []LayoutNode `yaml:"children,omitempty"`
}

// ParseLayout decodes a YAML layout.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if l.Screen.Width <= 0 || l.Screen.Height <= 0 {
		return nil, fmt.Errorf("parse layout: screen size must be positive")
	}
	return &l, nil
}

// LoadLayout reads and decodes a YAML layout file.
func LoadLayout(path string) (*Layout, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	if info.Size() > maxLayoutSize {
		return nil, fmt.Errorf("load layout: %s exceeds %d bytes", path, maxLayoutSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	return ParseLayout(data)
}

// DemoLayout returns the built-in settings-screen layout.
func DemoLayout() *Layout {
	l, err := ParseLayout(demoLayout)
	if err != nil {
		panic(err)
	}
	return l
}

// Build creates a device from the layout.
func (l *Layout) Build() (*Device, error) {
	d := NewDevice(l.Screen)
	if l.MultiWindow != nil {
		d.multiWindow = *l.MultiWindow
	}
	for _, w := range l.Windows {
		root, err := w.Root.build(w.Package)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w.ID, err)
		}
		d.AddWindow(platform.WindowInfo{
			ID:           w.ID,
			Type:         model.ParseWindowType(w.Type),
			PackageName:  w.Package,
			Title:        w.Title,
			ActivityName: w.Activity,
			Layer:        w.Layer,
			Focused:      w.Focused,
		}, root)
	}
	return d, nil
}

func (ln LayoutNode) build(pkg string) (*Node, error) {
	b, err := platform.ParseBounds(ln.Bounds)
	if err != nil {
		return nil, err
	}
	attrs := platform.NodeAttributes{
		ClassName:          ln.Class,
		Text:               ln.Text,
		ContentDescription: ln.Desc,
		ResourceID:         ln.ID,
		PackageName:        pkg,
		Bounds:             b,
		Enabled:            true,
		Visible:            true,
	}
	for _, f := range ln.Flags {
		switch strings.ToLower(f) {
		case "clickable":
			attrs.Clickable = true
		case "long_clickable":
			attrs.LongClickable = true
		case "focusable":
			attrs.Focusable = true
		case "scrollable":
			attrs.Scrollable = true
		case "editable":
			attrs.Editable = true
		case "disabled":
			attrs.Enabled = false
		case "hidden":
			attrs.Visible = false
		default:
			return nil, fmt.Errorf("unknown flag %q on %s", f, ln.Class)
		}
	}
	children := make([]*Node, 0, len(ln.Children))
	for _, c := range ln.Children {
		child, err := c.build(pkg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return NewNode(attrs, children...), nil
}
