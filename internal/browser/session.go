package browser

import (
	"context"
	"sync"

	"github.com/example/centralino/internal/step"
)

// Session is one isolated browsing context owned by a single request.
type Session struct {
	page  step.Page
	close func() error

	mu     sync.Mutex
	stop   func() bool
	closed bool
	err    error
}

// NewSession wraps a page and the function that tears it down.
func NewSession(page step.Page, closeFn func() error) *Session {
	return &Session{page: page, close: closeFn}
}

func (s *Session) Page() step.Page { return s.page }

// Close releases the session. Only the first call does any work.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.err
	}
	s.closed = true
	if s.stop != nil {
		s.stop()
	}
	if s.close != nil {
		s.err = s.close()
	}
	return s.err
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// closeWith ties the session to ctx: it is closed as soon as ctx is done.
func (s *Session) closeWith(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		stop()
		return
	}
	s.stop = stop
}
