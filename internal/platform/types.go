package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/remote-ui-mcp/internal/model"
)

// NodeAttributes is the raw attribute set of a native node.
type NodeAttributes struct {
	ClassName          string
	Text               string
	ContentDescription string
	ResourceID         string
	PackageName        string
	Bounds             model.Bounds
	Clickable          bool
	LongClickable      bool
	Focusable          bool
	Scrollable         bool
	Editable           bool
	Enabled            bool
	Visible            bool
}

// WindowInfo is the window metadata reported by the device.
type WindowInfo struct {
	ID           int
	Type         model.WindowType
	PackageName  string
	Title        string
	ActivityName string
	Layer        int
	Focused      bool
}

// Action is a native node action.
type Action int

const (
	ActionClick Action = iota
	ActionLongClick
	ActionSetText
	ActionScrollForward
	ActionScrollBackward
	ActionShowOnScreen
)

func (a Action) String() string {
	switch a {
	case ActionClick:
		return "click"
	case ActionLongClick:
		return "long_click"
	case ActionSetText:
		return "set_text"
	case ActionScrollForward:
		return "scroll_forward"
	case ActionScrollBackward:
		return "scroll_backward"
	case ActionShowOnScreen:
		return "show_on_screen"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ActionArgs carries the arguments of actions that take any.
type ActionArgs struct {
	Text string
}

// Direction is a scroll direction.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionBackward
)

// ParseDirection converts a string value to Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "down", "right":
		return DirectionForward, nil
	case "backward", "up", "left":
		return DirectionBackward, nil
	default:
		return DirectionForward, fmt.Errorf("unknown direction: %q (expected forward or backward)", s)
	}
}

// ParseBounds parses a "left,top,right,bottom" string.
func ParseBounds(s string) (model.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.Bounds{}, fmt.Errorf("invalid bounds %q: expected left,top,right,bottom", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return model.Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		vals[i] = v
	}
	b := model.Bounds{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}
	if b.Right < b.Left || b.Bottom < b.Top {
		return model.Bounds{}, fmt.Errorf("invalid bounds %q: right/bottom before left/top", s)
	}
	return b, nil
}
