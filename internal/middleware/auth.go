package middleware

import (
	"context"
	"net/http"
	"strings"

	"notification-feed/pkg/jwt"
)

type contextKey string

const (
	RecipientIDKey contextKey = "recipientID"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware resolves the calling recipient from a JWT bearer token
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// Auth validates JWT token from Authorization header
func (m *AuthMiddleware) Auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateAccessToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		recipientID := claims.RecipientID()
		if recipientID == "" {
			writeError(w, http.StatusUnauthorized, "Missing recipient in token")
			return
		}

		ctx := context.WithValue(r.Context(), RecipientIDKey, recipientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetRecipientID extracts the recipient id from request context
func GetRecipientID(r *http.Request) string {
	recipientID, ok := r.Context().Value(RecipientIDKey).(string)
	if !ok {
		return ""
	}
	return recipientID
}
