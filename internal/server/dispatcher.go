package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Domain error codes, outside the JSON-RPC reserved range.
const (
	CodePermissionDenied = -32001
	CodeElementNotFound  = -32002
	CodeActionFailed     = -32003
	CodeTimeout          = -32004
)

// rpcError is a protocol-level failure with a fixed wire code.
type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string { return e.msg }

// envelope is the raw shape of an incoming JSON-RPC message. ID stays raw so
// an absent id (notification) can be told apart from an invalid one.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type methodFunc func(d *Dispatcher, ctx context.Context, params json.RawMessage) (any, error)

var methods = map[string]methodFunc{
	string(mcp.MethodInitialize): (*Dispatcher).initialize,
	string(mcp.MethodPing):       (*Dispatcher).ping,
	string(mcp.MethodToolsList):  (*Dispatcher).listTools,
	string(mcp.MethodToolsCall):  (*Dispatcher).callTool,
}

// Dispatcher decodes JSON-RPC messages, routes them to the tool registry and
// encodes the outcome. It is the only place faults become wire codes.
type Dispatcher struct {
	registry     *Registry
	info         mcp.Implementation
	instructions string
	toolTimeout  func() time.Duration
	tracer       trace.Tracer
}

// NewDispatcher creates a dispatcher. toolTimeout is consulted on every
// call so that configuration reloads apply to the next call.
func NewDispatcher(registry *Registry, info mcp.Implementation, instructions string, toolTimeout func() time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		info:         info,
		instructions: instructions,
		toolTimeout:  toolTimeout,
		tracer:       otel.Tracer("remote-ui/server"),
	}
}

// Handle processes one JSON-RPC message. It returns the response to send,
// or false when the message was a notification and nothing is sent.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (any, bool) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		return d.reject(nil, "", mcp.INVALID_REQUEST, "batch requests are not supported"), true
	}

	var req envelope
	if err := json.Unmarshal(body, &req); err != nil {
		return d.reject(nil, "", mcp.PARSE_ERROR, "parse error"), true
	}
	if req.JSONRPC != mcp.JSONRPC_VERSION {
		return d.reject(req.ID, req.Method, mcp.INVALID_REQUEST, `jsonrpc must be "2.0"`), true
	}
	if req.Method == "" {
		return d.reject(req.ID, "", mcp.INVALID_REQUEST, "method is required"), true
	}
	if req.ID == nil {
		rpcRequests.WithLabelValues(req.Method, "notification").Inc()
		slog.Debug("notification received", slog.String("method", req.Method))
		return nil, false
	}
	id, ok := parseID(req.ID)
	if !ok {
		return d.reject(nil, req.Method, mcp.INVALID_REQUEST, "id must be a string or number"), true
	}

	fn, ok := methods[req.Method]
	if !ok {
		rpcRequests.WithLabelValues("unknown", "method_not_found").Inc()
		return mcp.NewJSONRPCError(id, mcp.METHOD_NOT_FOUND, "method not found: "+req.Method, nil), true
	}
	result, err := fn(d, ctx, req.Params)
	if err != nil {
		code, msg := wireError(req.Method, err)
		rpcRequests.WithLabelValues(req.Method, "error").Inc()
		return mcp.NewJSONRPCError(id, code, msg, nil), true
	}
	rpcRequests.WithLabelValues(req.Method, "ok").Inc()
	return mcp.NewJSONRPCResultResponse(id, result), true
}

// reject answers an invalid envelope. The request id is echoed when it is
// usable, otherwise the reply carries a null id.
func (d *Dispatcher) reject(rawID json.RawMessage, method string, code int, msg string) mcp.JSONRPCError {
	if method == "" || methods[method] == nil {
		method = "unknown"
	}
	rpcRequests.WithLabelValues(method, "invalid").Inc()
	id, ok := parseID(rawID)
	if !ok {
		id = mcp.NewRequestId(nil)
	}
	return mcp.NewJSONRPCError(id, code, msg, nil)
}

// parseID accepts string and number ids.
func parseID(raw json.RawMessage) (mcp.RequestId, bool) {
	var id mcp.RequestId
	if err := json.Unmarshal(raw, &id); err != nil || id.IsNil() {
		return id, false
	}
	switch id.Value().(type) {
	case string, int64, float64:
		return id, true
	default:
		return id, false
	}
}

// wireError maps err to a JSON-RPC code and a message safe to send.
func wireError(method string, err error) (int, string) {
	var re *rpcError
	if errors.As(err, &re) {
		return re.code, re.msg
	}
	kind := fault.KindOf(err)
	switch kind {
	case fault.KindInvalidParams:
		return mcp.INVALID_PARAMS, fault.PublicMessage(err)
	case fault.KindPermissionDenied:
		return CodePermissionDenied, fault.PublicMessage(err)
	case fault.KindElementNotFound:
		return CodeElementNotFound, fault.PublicMessage(err)
	case fault.KindActionFailed:
		return CodeActionFailed, fault.PublicMessage(err)
	case fault.KindTimeout:
		return CodeTimeout, fault.PublicMessage(err)
	default:
		slog.Error("internal error", slog.String("method", method), slog.String("error", err.Error()))
		return mcp.INTERNAL_ERROR, "internal error"
	}
}

type initializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      mcp.Implementation `json:"clientInfo"`
}

func (d *Dispatcher) initialize(_ context.Context, raw json.RawMessage) (any, error) {
	var params initializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &rpcError{code: mcp.INVALID_PARAMS, msg: "invalid initialize params"}
		}
	}
	version := mcp.LATEST_PROTOCOL_VERSION
	if slices.Contains(mcp.ValidProtocolVersions, params.ProtocolVersion) {
		version = params.ProtocolVersion
	}
	slog.Info("client initialized",
		slog.String("client", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
		slog.String("protocol_version", version))

	caps := mcp.ServerCapabilities{}
	caps.Tools = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{}
	return mcp.NewInitializeResult(version, caps, d.info, d.instructions), nil
}

func (d *Dispatcher) ping(context.Context, json.RawMessage) (any, error) {
	return struct{}{}, nil
}

func (d *Dispatcher) listTools(context.Context, json.RawMessage) (any, error) {
	return mcp.NewListToolsResult(d.registry.ListTools(), ""), nil
}

func (d *Dispatcher) callTool(ctx context.Context, raw json.RawMessage) (result any, err error) {
	var params mcp.CallToolParams
	if len(raw) == 0 {
		return nil, &rpcError{code: mcp.INVALID_PARAMS, msg: "params are required"}
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcError{code: mcp.INVALID_PARAMS, msg: "invalid tools/call params"}
	}
	if params.Name == "" {
		return nil, &rpcError{code: mcp.INVALID_PARAMS, msg: "tool name is required"}
	}
	if params.Arguments != nil {
		if _, ok := params.Arguments.(map[string]any); !ok {
			return nil, &rpcError{code: mcp.INVALID_PARAMS, msg: "arguments must be an object"}
		}
	}
	handler, ok := d.registry.Lookup(params.Name)
	if !ok {
		return nil, &rpcError{code: mcp.METHOD_NOT_FOUND, msg: "tool not found: " + params.Name}
	}

	ctx, span := d.tracer.Start(ctx, "tools/call "+params.Name,
		trace.WithAttributes(attribute.String("tool.name", params.Name)))
	defer span.End()
	if info, ok := SessionFromContext(ctx); ok {
		span.SetAttributes(attribute.String("session.id", info.ID))
	}

	ctx, cancel := context.WithTimeout(ctx, d.toolTimeout())
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fault.Internal(fmt.Errorf("%v", r), "tool handler panicked")
			result = nil
		}
		outcome := "ok"
		if err != nil {
			outcome = fault.KindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		toolDuration.WithLabelValues(params.Name, outcome).Observe(time.Since(start).Seconds())
	}()

	req := mcp.CallToolRequest{Params: params}
	req.Method = string(mcp.MethodToolsCall)
	res, err := handler(ctx, req)
	if err != nil {
		if ctx.Err() != nil && fault.KindOf(err) == fault.KindInternal {
			return nil, fault.FromContext(ctx.Err())
		}
		return nil, err
	}
	if res == nil {
		return nil, fault.Internal(errors.New("nil result"), "tool returned no result")
	}
	return res, nil
}
