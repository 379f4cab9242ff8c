package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/pkg/common"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// Session derives the current user from the request context populated
// by the auth middleware and fans session transitions out to
// subscribers. The migration engine subscribes so a sign-in can kick
// off the one-shot legacy transfer.
type Session struct {
	logger *zap.Logger

	mu          sync.Mutex
	subscribers map[int]func(ports.SessionEvent)
	nextID      int
	lastUserID  string
}

// NewSession creates a session provider
func NewSession(logger *zap.Logger) *Session {
	return &Session{
		logger:      logger,
		subscribers: make(map[int]func(ports.SessionEvent)),
	}
}

// CurrentUserID returns the authenticated user's ID or an
// unauthorized error when the context carries none
func (s *Session) CurrentUserID(ctx context.Context) (string, error) {
	userID, ok := common.GetUserID(ctx)
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("")
	}
	return userID, nil
}

// IsAuthenticated reports whether the context carries a user
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, ok := common.GetUserID(ctx)
	return ok
}

// Subscribe registers a listener for session transitions and returns
// its unsubscribe function
func (s *Session) Subscribe(fn func(ports.SessionEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Notify records an authenticated request and emits a signed_in event
// when the user differs from the last one seen. The middleware calls
// this after token verification.
func (s *Session) Notify(userID string) {
	s.mu.Lock()
	if userID == s.lastUserID {
		s.mu.Unlock()
		return
	}
	s.lastUserID = userID
	listeners := make([]func(ports.SessionEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	event := ports.SessionEvent{Kind: ports.SessionSignedIn, UserID: userID}
	s.logger.Debug("Session transition", zap.String("userID", userID))
	for _, fn := range listeners {
		fn(event)
	}
}

// NotifySignedOut emits a signed_out event and clears the last seen user
func (s *Session) NotifySignedOut() {
	s.mu.Lock()
	userID := s.lastUserID
	s.lastUserID = ""
	listeners := make([]func(ports.SessionEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	event := ports.SessionEvent{Kind: ports.SessionSignedOut, UserID: userID}
	for _, fn := range listeners {
		fn(event)
	}
}
