// Package server exposes the device as MCP tools: it owns the tool
// registry, the JSON-RPC dispatcher, and the handlers that connect tools to
// the tree scanner and the action executor.
package server

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/remote-ui-mcp/internal/config"
	"github.com/mj1618/remote-ui-mcp/internal/element"
	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
	"github.com/mj1618/remote-ui-mcp/internal/tree"
	"github.com/mj1618/remote-ui-mcp/internal/uithread"
	"github.com/mj1618/remote-ui-mcp/internal/version"
)

const instructions = `Call get_accessibility_tree or find_elements to obtain element ids, then
act on them with click_element, long_click_element, set_text, scroll_to_element
or scroll_element. Ids stay valid while the screen above the element is
unchanged; after an element_not_found error, read the tree again.`

// Server wires the device backends to the tool surface.
type Server struct {
	provider   *platform.Provider
	cfg        config.Provider
	loop       *uithread.Loop
	scanner    *tree.Scanner
	snapshots  *SnapshotCache
	executor   *element.Executor
	registry   *Registry
	dispatcher *Dispatcher
}

// New creates a server for provider. The snapshot cache TTL is read from cfg
// once; the tool timeout is read on every call.
func New(provider *platform.Provider, cfg config.Provider) *Server {
	loop := uithread.New()
	ids := tree.NewCache()
	scanner := tree.NewScanner(provider.Accessibility, ids, loop)

	s := &Server{
		provider:  provider,
		cfg:       cfg,
		loop:      loop,
		scanner:   scanner,
		snapshots: NewSnapshotCache(cfg.Current().CacheTTL, scanner.Scan),
		executor:  element.NewExecutor(ids, loop),
		registry:  NewRegistry(),
	}
	s.dispatcher = NewDispatcher(
		s.registry,
		mcp.Implementation{Name: "remote-ui", Version: version.Version, Title: "Remote UI automation"},
		instructions,
		func() time.Duration { return cfg.Current().ToolTimeout },
	)
	s.registerTools()
	return s
}

func (s *Server) Dispatcher() *Dispatcher { return s.dispatcher }

func (s *Server) Registry() *Registry { return s.registry }

// Snapshot scans the device, or returns a scan younger than the cache TTL.
func (s *Server) Snapshot(ctx context.Context) (model.MultiWindowResult, error) {
	return s.snapshots.Snapshot(ctx)
}

// Close releases every cached handle and stops the UI thread.
func (s *Server) Close(ctx context.Context) error {
	err := s.scanner.Clear(ctx)
	s.loop.Close()
	return err
}
