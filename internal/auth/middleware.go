package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mindwell-app/mindwell-api/internal/httputil"
	"github.com/mindwell-app/mindwell-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const identityContextKey ContextKey = "identity"

// Identity is the resolved caller attached to the request context by
// RequireAuth. It comes from the session store, not the token, so a
// revoked session cannot resurrect stale claims.
type Identity struct {
	UserID   string
	Email    string
	UserType user.Type
	IsGuest  bool
}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokens   TokenService
	sessions SessionStore
}

func NewMiddleware(tokens TokenService, sessions SessionStore) *Middleware {
	return &Middleware{tokens: tokens, sessions: sessions}
}

// RequireAuth validates the bearer token AND checks that a live session
// exists for its subject. A cryptographically valid token whose session
// was deleted (logout, password reset) or expired is rejected.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			httputil.RespondErrorWithCode(w, "Access denied. No token provided.", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "Token has expired.", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "Invalid token.", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		sess, err := m.sessions.Get(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				httputil.RespondErrorWithCode(w, "Session expired. Please log in again.", httputil.CodeSessionExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "Internal server error.", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		identity := Identity{
			UserID:   sess.UserID,
			Email:    sess.Email,
			UserType: sess.UserType,
			IsGuest:  sess.IsGuest,
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUserType gates a route to the given roles. Must run after
// RequireAuth.
func (m *Middleware) RequireUserType(allowed ...user.Type) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httputil.RespondErrorWithCode(w, "Authentication required.", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			for _, t := range allowed {
				if identity.UserType == t {
					next.ServeHTTP(w, r)
					return
				}
			}

			httputil.RespondErrorWithCode(w, "Access denied. Insufficient role.", httputil.CodeForbidden, http.StatusForbidden)
		})
	}
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// IdentityFromContext extracts the resolved identity from the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}
