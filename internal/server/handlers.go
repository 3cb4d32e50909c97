package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/remote-ui-mcp/internal/element"
	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/output"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
)

// actionResult is the payload of every action tool.
type actionResult struct {
	OK        bool   `yaml:"ok"         json:"ok"`
	Action    string `yaml:"action"     json:"action"`
	ElementID string `yaml:"element_id" json:"element_id"`
}

// structuredResult returns v as structured content with a YAML text twin.
func structuredResult(v any) (*mcp.CallToolResult, error) {
	text, err := output.YAMLText(v)
	if err != nil {
		return nil, fault.Internal(err, "encode result")
	}
	return mcp.NewToolResultStructured(v, text), nil
}

// runAction executes an action and drops the cached snapshot, since the
// screen may have changed.
func (s *Server) runAction(ctx context.Context, action, id string, fn func() error) (*mcp.CallToolResult, error) {
	if err := fn(); err != nil {
		return nil, err
	}
	s.snapshots.Invalidate()
	return structuredResult(actionResult{OK: true, Action: action, ElementID: id})
}

func (s *Server) handleGetTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	visibleOnly, err := boolParam(req.GetArguments(), "visible_only", false)
	if err != nil {
		return nil, err
	}
	result, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if visibleOnly {
		windows := make([]model.WindowSnapshot, len(result.Windows))
		for i, w := range result.Windows {
			w.Tree = model.FilterVisible(w.Tree)
			windows[i] = w
		}
		result.Windows = windows
	}
	return structuredResult(result)
}

func (s *Server) handleFindElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	by, err := requireString(req, "by")
	if err != nil {
		return nil, err
	}
	criterion, err := element.ParseCriterion(by)
	if err != nil {
		return nil, fault.InvalidParams("%v", err)
	}
	value, err := requireString(req, "value")
	if err != nil {
		return nil, err
	}
	exact, err := boolParam(req.GetArguments(), "exact_match", false)
	if err != nil {
		return nil, err
	}
	result, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := element.FindElements(result.Windows, criterion, value, exact)
	if err != nil {
		return nil, err
	}
	return structuredResult(output.FindResult{Count: len(matches), Elements: matches})
}

func (s *Server) handleGetElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	result, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	node, windowID, ok := element.FindNodeByID(result.Windows, id)
	if !ok {
		return nil, fault.NotFound("element %s not found; refresh the tree and retry", id)
	}
	return structuredResult(model.ElementMatch{WindowID: windowID, Node: node})
}

func (s *Server) handleClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	return s.runAction(ctx, "click", id, func() error { return s.executor.Click(ctx, id) })
}

func (s *Server) handleLongClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	return s.runAction(ctx, "long_click", id, func() error { return s.executor.LongClick(ctx, id) })
}

func (s *Server) handleSetText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	text, err := requireString(req, "text")
	if err != nil {
		return nil, err
	}
	return s.runAction(ctx, "set_text", id, func() error { return s.executor.SetText(ctx, id, text) })
}

func (s *Server) handleScrollTo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	return s.runAction(ctx, "scroll_to", id, func() error { return s.executor.ScrollTo(ctx, id) })
}

func (s *Server) handleScroll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	raw, err := stringParam(req.GetArguments(), "direction", "forward")
	if err != nil {
		return nil, err
	}
	dir, err := platform.ParseDirection(raw)
	if err != nil {
		return nil, fault.InvalidParams("%v", err)
	}
	return s.runAction(ctx, "scroll", id, func() error { return s.executor.Scroll(ctx, id, dir) })
}

func (s *Server) handleGetScreenInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return structuredResult(s.provider.Accessibility.ScreenInfo())
}

func (s *Server) handleCaptureScreenshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.provider.Capture == nil {
		return nil, fault.PermissionDenied("screen capture is not available")
	}
	args := req.GetArguments()
	quality, err := intParam(args, "quality", defaultCaptureQuality)
	if err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		return nil, fault.InvalidParams("quality must be between 1 and 100, got %d", quality)
	}
	annotate, err := boolParam(args, "annotate", false)
	if err != nil {
		return nil, err
	}

	data, err := s.provider.Capture.Capture(ctx, quality)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fault.FromContext(ctxErr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.Timeout("screen capture timed out")
		}
		return nil, fault.Internal(err, "screen capture failed")
	}

	summary := fmt.Sprintf("screenshot: %d bytes, quality %d", len(data), quality)
	if annotate {
		result, err := s.snapshots.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		var labelled int
		data, labelled, err = annotateCapture(data, result.Windows, s.provider.Accessibility.ScreenInfo(), quality)
		if err != nil {
			return nil, fault.Internal(err, "annotate screenshot")
		}
		summary = fmt.Sprintf("%s, %d elements labelled", summary, labelled)
	}
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(data), "image/jpeg"), nil
}

func (s *Server) handleEndSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, ok := SessionFromContext(ctx)
	if !ok || info.Close == nil {
		return nil, fault.ActionFailed("no session to close")
	}
	info.Close()
	return mcp.NewToolResultText(fmt.Sprintf("session %s closed", info.ID)), nil
}
