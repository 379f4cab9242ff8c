package errors

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Generic user-facing messages. Remote failures are mapped here so
// internal detail never leaks to callers.
const (
	MsgConnectionError  = "Connection error. Please check your internet connection and try again."
	MsgNotAuthenticated = "not authenticated"
	MsgGenericFailure   = "The operation could not be completed. Please try again."
)

// maxPassthroughLength bounds how long a remote error message may be
// before it is replaced by a generic one.
const maxPassthroughLength = 100

// MapRemoteError converts a raw error from the remote store client
// into the AppError taxonomy: transport failures become NETWORK,
// missing rows become NOT_FOUND, permission failures become
// UNAUTHORIZED, and everything else becomes EXTERNAL with the original
// error preserved as the cause.
func MapRemoteError(operation string, err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}

	msg := strings.ToLower(err.Error())

	var netErr net.Error
	switch {
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return NewNetworkError(MsgConnectionError, err)
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"), strings.Contains(msg, "timeout"):
		return NewNetworkError(MsgConnectionError, err)
	case strings.Contains(msg, "pgrst116"), strings.Contains(msg, "0 rows"),
		strings.Contains(msg, "no rows"), strings.Contains(msg, "not found"):
		return NewNotFoundError("recipe")
	case strings.Contains(msg, "jwt"), strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "not authenticated"), strings.Contains(msg, "invalid token"):
		return NewUnauthorizedError(MsgNotAuthenticated)
	case strings.Contains(msg, "row-level security"), strings.Contains(msg, "permission denied"):
		return NewForbiddenError("").WithCause(err)
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return NewConflictError("a recipe with these values already exists").WithCause(err)
	}

	return NewExternalError(operation, err)
}

// UserMessage renders an error for display. Short, human-readable
// remote messages pass through verbatim; anything long or
// internal-looking is replaced by a generic fallback so no storage
// detail leaks.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if appErr := GetAppError(err); appErr != nil {
		switch appErr.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeUnavailable:
			return MsgConnectionError
		case ErrorTypeUnauthorized:
			return MsgNotAuthenticated
		}
		if presentable(appErr.Message) {
			return appErr.Message
		}
		return MsgGenericFailure
	}

	if presentable(err.Error()) {
		return err.Error()
	}
	return MsgGenericFailure
}

// presentable reports whether a message is short and free of
// internal markers
func presentable(msg string) bool {
	if msg == "" || len(msg) >= maxPassthroughLength {
		return false
	}
	lower := strings.ToLower(msg)
	for _, marker := range []string{"sql", "pgrst", "stack", "panic", "dial tcp"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
