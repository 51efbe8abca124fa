package ws

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

const handlerCloseTimeout = 5 * time.Second

// SessionHandler drives one connection's control and audio traffic.
type SessionHandler interface {
	Handle()
	Close()
	ConnectionID() string
}

// Session owns the lifecycle of one upgraded websocket connection: it runs
// the handler's read loop and guarantees handler and connection teardown
// happen exactly once, whether the peer disconnects or the server shuts
// down.
type Session struct {
	id      string
	handler SessionHandler
	conn    *Connection
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc
	closed atomic.Bool
}

func NewSession(parent context.Context, handler SessionHandler, conn *Connection, logger *logging.Logger) *Session {
	ctx, cancel := context.WithCancelCause(parent)
	return &Session{
		id:      handler.ConnectionID(),
		handler: handler,
		conn:    conn,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Context() context.Context { return s.ctx }

// Run blocks on the handler's read loop, then tears the session down and
// reports to onDone.
func (s *Session) Run(onDone func(error)) {
	s.handler.Handle()
	s.Close(nil)
	if onDone != nil {
		onDone(nil)
	}
}

// Close tears the session down once: cancels the session context, closes
// the handler with a deadline, then closes the underlying connection.
func (s *Session) Close(reason error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if reason == nil {
		reason = ErrSessionShutdown
	}
	s.cancel(reason)

	s.closeHandler(reason)

	if s.conn != nil {
		if err := s.conn.Close(); err != nil && s.logger != nil {
			s.logger.WarnTag("WebSocket", "connection close for %s failed: %v", s.id, err)
		}
	}
}

// closeHandler runs handler teardown with a deadline so a wedged pipeline
// cannot stall server shutdown.
func (s *Session) closeHandler(reason error) {
	if s.handler == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.handler.Close()
		close(done)
	}()

	timer := time.NewTimer(handlerCloseTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		if s.logger != nil {
			s.logger.WarnTag("WebSocket", "handler close for %s timed out (reason: %v)", s.id, reason)
		}
	}
}
