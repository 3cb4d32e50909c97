package server

import "context"

// SessionInfo identifies the transport session a call arrived on.
type SessionInfo struct {
	ID string
	// Close ends the session. Calls already in flight are not interrupted.
	Close func()
}

type sessionKey struct{}

// ContextWithSession attaches session information to ctx.
func ContextWithSession(ctx context.Context, info SessionInfo) context.Context {
	return context.WithValue(ctx, sessionKey{}, info)
}

// SessionFromContext returns the session information attached to ctx.
func SessionFromContext(ctx context.Context) (SessionInfo, bool) {
	info, ok := ctx.Value(sessionKey{}).(SessionInfo)
	return info, ok
}
