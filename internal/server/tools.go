package server

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/remote-ui-mcp/internal/element"
)

const defaultCaptureQuality = 80

func criterionNames() []string {
	names := make([]string, len(element.Criteria))
	for i, c := range element.Criteria {
		names[i] = string(c)
	}
	return names
}

func elementIDArg() mcp.ToolOption {
	return mcp.WithString("element_id",
		mcp.Description("Element id from get_accessibility_tree or find_elements (e.g. node_3f2a9c0b1d4e)"),
		mcp.Required(),
	)
}

func (s *Server) registerTools() {
	// get_accessibility_tree
	s.registry.Register(
		mcp.NewTool("get_accessibility_tree",
			mcp.WithDescription("Read the UI tree of every window on screen, topmost window first. Every node carries a stable id usable by the action tools."),
			mcp.WithBoolean("visible_only", mcp.Description("Drop invisible nodes, keeping their visible descendants"), mcp.DefaultBool(false)),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleGetTree,
	)

	// find_elements
	s.registry.Register(
		mcp.NewTool("find_elements",
			mcp.WithDescription("Find elements by text, content description, resource id or class name. Returns matching nodes without children."),
			mcp.WithString("by", mcp.Description("Attribute to match"), mcp.Enum(criterionNames()...), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to look for"), mcp.Required()),
			mcp.WithBoolean("exact_match", mcp.Description("Require case-sensitive equality instead of a case-insensitive substring"), mcp.DefaultBool(false)),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleFindElements,
	)

	// get_element
	s.registry.Register(
		mcp.NewTool("get_element",
			mcp.WithDescription("Return one element and its subtree from the current tree"),
			elementIDArg(),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleGetElement,
	)

	// click_element
	s.registry.Register(
		mcp.NewTool("click_element",
			mcp.WithDescription("Click an element. The element must be enabled and clickable."),
			elementIDArg(),
			mcp.WithDestructiveHintAnnotation(false),
		),
		s.handleClick,
	)

	// long_click_element
	s.registry.Register(
		mcp.NewTool("long_click_element",
			mcp.WithDescription("Long-click an element. The element must be enabled and long-clickable."),
			elementIDArg(),
			mcp.WithDestructiveHintAnnotation(false),
		),
		s.handleLongClick,
	)

	// set_text
	s.registry.Register(
		mcp.NewTool("set_text",
			mcp.WithDescription("Replace the text of an editable element"),
			elementIDArg(),
			mcp.WithString("text", mcp.Description("New text; empty clears the field"), mcp.Required()),
			mcp.WithIdempotentHintAnnotation(true),
		),
		s.handleSetText,
	)

	// scroll_to_element
	s.registry.Register(
		mcp.NewTool("scroll_to_element",
			mcp.WithDescription("Scroll the nearest scrollable container until the element is on screen"),
			elementIDArg(),
			mcp.WithIdempotentHintAnnotation(true),
		),
		s.handleScrollTo,
	)

	// scroll_element
	s.registry.Register(
		mcp.NewTool("scroll_element",
			mcp.WithDescription("Scroll a scrollable container by one page"),
			elementIDArg(),
			mcp.WithString("direction", mcp.Description("Scroll direction"), mcp.Enum("forward", "backward"), mcp.DefaultString("forward")),
		),
		s.handleScroll,
	)

	// get_screen_info
	s.registry.Register(
		mcp.NewTool("get_screen_info",
			mcp.WithDescription("Return the display size in pixels, density and orientation"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleGetScreenInfo,
	)

	// capture_screenshot
	s.registry.Register(
		mcp.NewTool("capture_screenshot",
			mcp.WithDescription("Capture the screen as a JPEG image"),
			mcp.WithNumber("quality", mcp.Description("JPEG quality"), mcp.Min(1), mcp.Max(100), mcp.DefaultNumber(defaultCaptureQuality)),
			mcp.WithBoolean("annotate", mcp.Description("Outline interactive elements and label them with their ids"), mcp.DefaultBool(false)),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleCaptureScreenshot,
	)

	// end_session
	s.registry.Register(
		mcp.NewTool("end_session",
			mcp.WithDescription("Close the current session. Later requests with its id are rejected."),
		),
		s.handleEndSession,
	)
}
