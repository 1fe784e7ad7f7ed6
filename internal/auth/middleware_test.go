package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-app/mindwell-api/internal/httputil"
	"github.com/mindwell-app/mindwell-api/internal/user"
)

type middlewareFixture struct {
	middleware *Middleware
	tokens     TokenService
	sessions   *fakeSessionStore
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()

	tokens, err := NewTokenService("paseto", testTokenKey)
	require.NoError(t, err)
	sessions := newFakeSessionStore()

	return &middlewareFixture{
		middleware: NewMiddleware(tokens, sessions),
		tokens:     tokens,
		sessions:   sessions,
	}
}

// openSession mints a valid token and matching session entry.
func (f *middlewareFixture) openSession(t *testing.T, sess Session) string {
	t.Helper()

	token, err := f.tokens.CreateToken(TokenClaims{
		UserID:   sess.UserID,
		Email:    sess.Email,
		UserType: sess.UserType,
		IsGuest:  sess.IsGuest,
	}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), sess, time.Hour))
	return token
}

func echoIdentity(t *testing.T, captured *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		*captured = identity
		w.WriteHeader(http.StatusOK)
	})
}

func doAuthRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRequireAuthValidSession(t *testing.T) {
	f := newMiddlewareFixture(t)
	sess := Session{UserID: "3f0e8a3c-5b7d-4f20-9df1-2b44a0c3e111", Email: "ann@x.com", UserType: user.TypePatient}
	token := f.openSession(t, sess)

	var identity Identity
	handler := f.middleware.RequireAuth(echoIdentity(t, &identity))

	rec := doAuthRequest(handler, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sess.UserID, identity.UserID)
	assert.Equal(t, "ann@x.com", identity.Email)
	assert.Equal(t, user.TypePatient, identity.UserType)
	assert.False(t, identity.IsGuest)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	f := newMiddlewareFixture(t)
	handler := f.middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc123"},
		{"empty token", "Bearer "},
		{"scheme only", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuthRequest(handler, tt.header)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeErrorBody(t, rec)
			assert.Equal(t, "Access denied. No token provided.", body.Message)
			assert.Equal(t, httputil.CodeMissingAuth, body.Code)
		})
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	handler := f.middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := doAuthRequest(handler, "Bearer not-a-real-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, httputil.CodeInvalidToken, body.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	token, err := f.tokens.CreateToken(TokenClaims{UserID: "u1", UserType: user.TypePatient}, -time.Minute)
	require.NoError(t, err)

	handler := f.middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := doAuthRequest(handler, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, httputil.CodeTokenExpired, body.Code)
}

func TestRequireAuthRevokedSession(t *testing.T) {
	f := newMiddlewareFixture(t)
	sess := Session{UserID: "3f0e8a3c-5b7d-4f20-9df1-2b44a0c3e111", Email: "ann@x.com", UserType: user.TypePatient}
	token := f.openSession(t, sess)

	// Logout between issuing and using the token
	require.NoError(t, f.sessions.Delete(context.Background(), sess.UserID))

	handler := f.middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := doAuthRequest(handler, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "Session expired. Please log in again.", body.Message)
	assert.Equal(t, httputil.CodeSessionExpired, body.Code)
}

func TestRequireAuthIdentityComesFromSession(t *testing.T) {
	f := newMiddlewareFixture(t)
	sess := Session{UserID: "3f0e8a3c-5b7d-4f20-9df1-2b44a0c3e111", Email: "ann@x.com", UserType: user.TypePatient}
	token := f.openSession(t, sess)

	// The session record is updated after the token was minted; the
	// middleware must serve the stored state, not the stale claims
	sess.UserType = user.TypeTherapist
	require.NoError(t, f.sessions.Save(context.Background(), sess, time.Hour))

	var identity Identity
	handler := f.middleware.RequireAuth(echoIdentity(t, &identity))

	rec := doAuthRequest(handler, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.TypeTherapist, identity.UserType)
}

func TestRequireUserType(t *testing.T) {
	f := newMiddlewareFixture(t)
	patient := f.openSession(t, Session{UserID: "p1", Email: "p@x.com", UserType: user.TypePatient})
	therapist := f.openSession(t, Session{UserID: "t1", Email: "t@x.com", UserType: user.TypeTherapist})

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := f.middleware.RequireAuth(f.middleware.RequireUserType(user.TypeTherapist)(ok))

	rec := doAuthRequest(handler, "Bearer "+therapist)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doAuthRequest(handler, "Bearer "+patient)
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, httputil.CodeForbidden, body.Code)
}

func TestRequireUserTypeWithoutAuth(t *testing.T) {
	f := newMiddlewareFixture(t)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := f.middleware.RequireUserType(user.TypePatient)(ok)

	rec := doAuthRequest(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"missing", "", "", false},
		{"wrong scheme", "Token abc", "", false},
		{"empty token", "Bearer ", "", false},
		{"no space", "Bearerabc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, ok := BearerToken(req)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}
