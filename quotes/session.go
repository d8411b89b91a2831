package quotes

import (
	"fmt"
	"time"

	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/server"
)

// Session owns exactly one transport at a time and keeps its liveness state.
// Reconnecting rebuilds the connection in place; the session identity (and
// its endpoint) never changes. Sessions are not safe for concurrent use by
// contract: every facade call runs one blocking round-trip at a time.
type Session struct {
	endpoint  server.Endpoint
	timeout   time.Duration
	transport Transport
	log       *logger.Entry
}

// DefaultTimeout is the connect timeout applied when the caller passes none.
const DefaultTimeout = 15 * time.Second

// NewSession wraps an unconnected transport. Call Connect (or let
// EnsureConnected do it lazily) before issuing remote calls.
func NewSession(transport Transport, endpoint server.Endpoint, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		endpoint:  endpoint,
		timeout:   timeout,
		transport: transport,
		log:       logger.GetLogger().WithComponent("session"),
	}
}

// Endpoint returns the endpoint this session connects to.
func (s *Session) Endpoint() server.Endpoint {
	return s.endpoint
}

// Connect opens the transport towards the session endpoint.
func (s *Session) Connect() error {
	if s.transport == nil {
		return fmt.Errorf("session has no transport")
	}
	if err := s.transport.Connect(s.endpoint.Addr, s.endpoint.Port, s.timeout); err != nil {
		return fmt.Errorf("connect %s: %w", s.endpoint, err)
	}
	s.log.WithFields(logger.Fields{"endpoint": s.endpoint.String()}).Debug("connected")
	return nil
}

// Alive reports whether the transport is currently usable. It inspects the
// transport state on every call rather than caching; a missing transport
// counts as dead so the caller falls through to reconnecting.
func (s *Session) Alive() bool {
	return s.transport != nil && !s.transport.IsClosed()
}

// EnsureConnected reconnects with the last known endpoint when the transport
// is dead. It is a no-op on a live session, which makes it a cheap
// precondition before every remote call.
func (s *Session) EnsureConnected() error {
	if s.Alive() {
		return nil
	}
	s.log.WithFields(logger.Fields{"endpoint": s.endpoint.String()}).Warn("connection lost, reconnecting")
	logger.IncrementReconnect()
	return s.Connect()
}

// Close releases the transport. Safe to call repeatedly and on a session
// that never connected.
func (s *Session) Close() error {
	if s.transport == nil {
		return nil
	}
	if s.transport.IsClosed() {
		return nil
	}
	s.log.Debug("closing session")
	return s.transport.Close()
}
