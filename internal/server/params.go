package server

import (
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/remote-ui-mcp/internal/fault"
)

// requireString returns a required string argument.
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	s, err := req.RequireString(key)
	if err != nil {
		return "", fault.InvalidParams("%v", err)
	}
	return s, nil
}

// requireID returns a required, non-empty element id argument.
func requireID(req mcp.CallToolRequest) (string, error) {
	id, err := requireString(req, "element_id")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fault.InvalidParams("argument %q must not be empty", "element_id")
	}
	return id, nil
}

func stringParam(args map[string]any, key, defaultVal string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return defaultVal, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fault.InvalidParams("argument %q must be a string", key)
	}
	return s, nil
}

func intParam(args map[string]any, key string, defaultVal int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return defaultVal, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fault.InvalidParams("argument %q must be an integer", key)
		}
		return int(n), nil
	default:
		return 0, fault.InvalidParams("argument %q must be a number", key)
	}
}

func boolParam(args map[string]any, key string, defaultVal bool) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return defaultVal, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fault.InvalidParams("argument %q must be a boolean", key)
	}
	return b, nil
}
