package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/supabase-community/supabase-go"

	pkgerrors "flavourvault-backend/pkg/errors"
)

// TokenVerifier resolves a bearer token to a user ID
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// LocalVerifier validates Supabase access tokens locally against the
// project's JWT secret (HS256). This avoids a network round trip per
// request.
type LocalVerifier struct {
	secret []byte
}

// NewLocalVerifier creates a verifier for the given shared secret
func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns its subject
func (v *LocalVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pkgerrors.NewUnauthorizedError("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", pkgerrors.NewUnauthorizedError("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("invalid token claims")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", pkgerrors.NewUnauthorizedError("token has no subject")
	}
	return subject, nil
}

// RemoteVerifier validates tokens against the hosted auth service.
// Used when no JWT secret is configured; each call is one round trip.
type RemoteVerifier struct {
	client *supabase.Client
}

// NewRemoteVerifier creates a verifier backed by the hosted auth API
func NewRemoteVerifier(url, anonKey string) (*RemoteVerifier, error) {
	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to initialize auth client")
	}
	return &RemoteVerifier{client: client}, nil
}

// Verify asks the auth service who the token belongs to
func (v *RemoteVerifier) Verify(token string) (string, error) {
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "expired") {
			return "", pkgerrors.NewUnauthorizedError("token expired")
		}
		return "", pkgerrors.NewUnauthorizedError("invalid token")
	}
	return user.ID.String(), nil
}
