package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"flavourvault-backend/infrastructure/auth"
	"flavourvault-backend/pkg/common"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// Authenticate verifies the bearer token on every request and places
// the resolved user ID in the request context. The session provider is
// notified so sign-in subscribers (migration) can react.
func Authenticate(verifier auth.TokenVerifier, session *auth.Session, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				common.RespondError(w, http.StatusUnauthorized, string(pkgerrors.ErrorTypeUnauthorized), pkgerrors.MsgNotAuthenticated)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("Token verification failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				common.RespondError(w, http.StatusUnauthorized, string(pkgerrors.ErrorTypeUnauthorized), pkgerrors.UserMessage(err))
				return
			}

			session.Notify(userID)

			ctx := common.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
