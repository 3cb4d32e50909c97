package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrSessionLimit is returned by Create when every session slot is taken.
var ErrSessionLimit = errors.New("session limit reached")

const (
	stateOpen int32 = iota
	stateClosed
)

// Session is one client's MCP session. Requests on a session are served one
// at a time in arrival order.
type Session struct {
	id       string
	created  time.Time
	state    atomic.Int32
	lastSeen atomic.Int64
	inflight atomic.Int32

	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newSession(id string, now time.Time) *Session {
	s := &Session{id: id, created: now}
	s.cond = sync.NewCond(&s.mu)
	s.lastSeen.Store(now.UnixNano())
	return s
}

func (s *Session) ID() string { return s.id }

// Open reports whether the session has not been closed.
func (s *Session) Open() bool { return s.state.Load() == stateOpen }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// begin waits for the session's turn. Callers are served in the order they
// called begin.
func (s *Session) begin() {
	s.inflight.Add(1)
	s.mu.Lock()
	ticket := s.next
	s.next++
	for ticket != s.serving {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *Session) end() {
	s.mu.Lock()
	s.serving++
	s.cond.Broadcast()
	s.mu.Unlock()
	s.touch(time.Now())
	s.inflight.Add(-1)
}

// Manager tracks open sessions and enforces the session limit.
type Manager struct {
	sessions    sync.Map // id -> *Session
	active      atomic.Int64
	maxSessions int64
	idleTimeout time.Duration
	now         func() time.Time
}

// NewManager creates a manager admitting at most maxSessions concurrent
// sessions. Sessions idle for longer than idleTimeout are closed by Reap.
func NewManager(maxSessions int, idleTimeout time.Duration) *Manager {
	return &Manager{
		maxSessions: int64(maxSessions),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Create opens a new session. The slot is reserved before the session is
// built so concurrent callers can never exceed the limit.
func (m *Manager) Create() (*Session, error) {
	if n := m.active.Add(1); n > m.maxSessions {
		m.active.Add(-1)
		sessionRejections.WithLabelValues("limit").Inc()
		return nil, ErrSessionLimit
	}
	s := newSession(uuid.NewString(), m.now())
	m.sessions.Store(s.id, s)
	sessionsActive.Inc()
	sessionEvents.WithLabelValues("opened").Inc()
	slog.Info("session opened", slog.String("session", s.id), slog.Int64("active", m.active.Load()))
	return s, nil
}

// Get returns the open session with id and records activity on it.
func (m *Manager) Get(id string) (*Session, bool) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	if !s.Open() {
		return nil, false
	}
	s.touch(m.now())
	return s, true
}

// Close ends the session with id. It reports false when no such session is
// open. Requests already being served on the session run to completion.
func (m *Manager) Close(id, reason string) bool {
	v, ok := m.sessions.LoadAndDelete(id)
	if !ok {
		return false
	}
	s := v.(*Session)
	if !s.state.CompareAndSwap(stateOpen, stateClosed) {
		return false
	}
	m.active.Add(-1)
	sessionsActive.Dec()
	sessionEvents.WithLabelValues("closed_" + reason).Inc()
	slog.Info("session closed",
		slog.String("session", id),
		slog.String("reason", reason),
		slog.Duration("age", m.now().Sub(s.created)))
	return true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int { return int(m.active.Load()) }

// Reap closes sessions idle for longer than the idle timeout and returns how
// many were closed. Sessions with requests in flight are never reaped.
func (m *Manager) Reap(now time.Time) int {
	var reaped int
	m.sessions.Range(func(key, value any) bool {
		s := value.(*Session)
		if s.inflight.Load() > 0 || s.idle(now) <= m.idleTimeout {
			return true
		}
		if m.Close(key.(string), "idle") {
			reaped++
		}
		return true
	})
	return reaped
}

// Run reaps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Reap(m.now()); n > 0 {
				slog.Debug("reaped idle sessions", slog.Int("count", n))
			}
		}
	}
}

// CloseAll closes every open session.
func (m *Manager) CloseAll(reason string) {
	m.sessions.Range(func(key, _ any) bool {
		m.Close(key.(string), reason)
		return true
	})
}
