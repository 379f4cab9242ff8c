package ports

import "context"

// SessionEventKind classifies a session-change notification
type SessionEventKind string

const (
	SessionSignedIn       SessionEventKind = "signed_in"
	SessionSignedOut      SessionEventKind = "signed_out"
	SessionTokenRefreshed SessionEventKind = "token_refreshed"
)

// SessionEvent describes one session change
type SessionEvent struct {
	Kind   SessionEventKind
	UserID string
}

// SessionProvider is the injected auth collaborator. The core only
// consumes the current user identity and session-change notifications;
// it never implements authentication itself.
type SessionProvider interface {
	// CurrentUserID returns the authenticated user's ID, or an
	// UNAUTHORIZED error when there is no session
	CurrentUserID(ctx context.Context) (string, error)

	// IsAuthenticated reports whether a user is signed in
	IsAuthenticated(ctx context.Context) bool

	// Subscribe registers a callback for session changes and returns
	// the matching unsubscribe function
	Subscribe(fn func(SessionEvent)) (unsubscribe func())
}
