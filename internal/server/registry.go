package server

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolHandlerFunc handles one tool call. Returned errors are classified with
// the fault package by the dispatcher.
type ToolHandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

type registeredTool struct {
	tool    mcp.Tool
	handler ToolHandlerFunc
}

// Registry holds the tool catalogue in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]registeredTool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool. Registering an existing name replaces its definition
// and handler but keeps its position in the catalogue.
func (r *Registry) Register(tool mcp.Tool, handler ToolHandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (ToolHandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t.handler, ok
}

// ListTools returns a copy of the catalogue in registration order.
func (r *Registry) ListTools() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
