// Package transport serves the MCP dispatcher over HTTP with per-client
// sessions identified by the Mcp-Session-Id header.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/remote-ui-mcp/internal/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	HeaderSessionID       = "Mcp-Session-Id"
	HeaderProtocolVersion = "MCP-Protocol-Version"

	shutdownTimeout     = 5 * time.Second
	defaultMaxBodyBytes = 1 << 20
)

// Dispatcher handles one JSON-RPC message and returns the response to send,
// or false for notifications.
type Dispatcher interface {
	Handle(ctx context.Context, body []byte) (any, bool)
}

// Options configures the HTTP surface.
type Options struct {
	Address      string
	MaxBodyBytes int64
	// RateLimit is the number of /mcp requests admitted per second. Zero
	// disables limiting.
	RateLimit float64
	RateBurst int
	// Gate, when set, runs before every /mcp handler. It aborts the request
	// to reject it.
	Gate gin.HandlerFunc
}

// HTTPServer routes /mcp requests to sessions and the dispatcher.
type HTTPServer struct {
	engine     *gin.Engine
	dispatcher Dispatcher
	sessions   *Manager
	opts       Options
}

// NewHTTPServer builds the gin engine. The caller owns sessions and runs its
// reaper.
func NewHTTPServer(d Dispatcher, sessions *Manager, opts Options) *HTTPServer {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &HTTPServer{
		engine:     gin.New(),
		dispatcher: d,
		sessions:   sessions,
		opts:       opts,
	}
	s.engine.Use(gin.Recovery(), otelgin.Middleware("remote-ui"), requestLogger())

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var chain []gin.HandlerFunc
	if opts.Gate != nil {
		chain = append(chain, opts.Gate)
	}
	if opts.RateLimit > 0 {
		chain = append(chain, RateLimit(opts.RateLimit, opts.RateBurst))
	}
	mcpGroup := s.engine.Group("/mcp", chain...)
	mcpGroup.POST("", s.handlePost)
	mcpGroup.DELETE("", s.handleDelete)
	mcpGroup.GET("", s.handleGet)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler { return s.engine }

// Serve listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *HTTPServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Address, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done.
func (s *HTTPServer) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("mcp endpoint listening", slog.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("mcp endpoint stopped")
	return nil
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Count()})
}

func (s *HTTPServer) handlePost(c *gin.Context) {
	if v := c.GetHeader(HeaderProtocolVersion); v != "" && !slices.Contains(mcp.ValidProtocolVersions, v) {
		abortRPC(c, http.StatusBadRequest, mcp.INVALID_REQUEST, "unsupported protocol version: "+v)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sessionRejections.WithLabelValues("body_too_large").Inc()
			abortRPC(c, http.StatusRequestEntityTooLarge, mcp.INVALID_REQUEST, "request body too large")
			return
		}
		abortRPC(c, http.StatusBadRequest, mcp.PARSE_ERROR, "could not read request body")
		return
	}

	var sess *Session
	if id := c.GetHeader(HeaderSessionID); id != "" {
		var ok bool
		if sess, ok = s.sessions.Get(id); !ok {
			abortRPC(c, http.StatusNotFound, mcp.INVALID_REQUEST, "session not found")
			return
		}
	} else {
		if sess, err = s.sessions.Create(); err != nil {
			abortRPC(c, http.StatusServiceUnavailable, mcp.INTERNAL_ERROR, "session limit reached")
			return
		}
	}
	c.Set("session", sess.ID())

	sess.begin()
	defer sess.end()
	if !sess.Open() {
		abortRPC(c, http.StatusNotFound, mcp.INVALID_REQUEST, "session not found")
		return
	}

	id := sess.ID()
	ctx := server.ContextWithSession(c.Request.Context(), server.SessionInfo{
		ID:    id,
		Close: func() { s.sessions.Close(id, "client") },
	})
	resp, ok := s.dispatcher.Handle(ctx, body)
	c.Header(HeaderSessionID, id)
	if !ok {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) handleDelete(c *gin.Context) {
	id := c.GetHeader(HeaderSessionID)
	if id == "" {
		abortRPC(c, http.StatusBadRequest, mcp.INVALID_REQUEST, "missing "+HeaderSessionID+" header")
		return
	}
	if !s.sessions.Close(id, "client") {
		abortRPC(c, http.StatusNotFound, mcp.INVALID_REQUEST, "session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) handleGet(c *gin.Context) {
	c.Header("Allow", "POST, DELETE")
	abortRPC(c, http.StatusMethodNotAllowed, mcp.INVALID_REQUEST, "server-initiated streams are not supported")
}

// abortRPC ends the request with a JSON-RPC error body and a null id.
func abortRPC(c *gin.Context, status, code int, msg string) {
	c.AbortWithStatusJSON(status, mcp.NewJSONRPCError(mcp.NewRequestId(nil), code, msg, nil))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("session", c.GetString("session")))
	}
}
