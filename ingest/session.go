package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session identifies one ingestion run. It owns the run's cancellation so a
// running loop can be stopped without process-wide state.
type Session struct {
	ID      string
	Started time.Time
	cancel  context.CancelFunc
}

func newSession(parent context.Context) (*Session, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:      uuid.New().String(),
		Started: time.Now(),
		cancel:  cancel,
	}, ctx
}

// Stop cancels the session's context. Idempotent.
func (s *Session) Stop() {
	s.cancel()
}
