package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-app/mindwell-api/internal/user"
)

var testTokenKey = []byte("0123456789abcdef0123456789abcdef")

func testClaims() TokenClaims {
	return TokenClaims{
		UserID:   "3f0e8a3c-5b7d-4f20-9df1-2b44a0c3e111",
		Email:    "ann@x.com",
		UserType: user.TypePatient,
		IsGuest:  false,
	}
}

func TestNewTokenService(t *testing.T) {
	for _, provider := range []string{"paseto", "jwt"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewTokenService(provider, testTokenKey)
			require.NoError(t, err)
			require.NotNil(t, svc)
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewTokenService("macaroon", testTokenKey)
		assert.Error(t, err)
	})

	t.Run("short key", func(t *testing.T) {
		_, err := NewTokenService("paseto", []byte("too-short"))
		assert.Error(t, err)
		_, err = NewTokenService("jwt", []byte("too-short"))
		assert.Error(t, err)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	for _, provider := range []string{"paseto", "jwt"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewTokenService(provider, testTokenKey)
			require.NoError(t, err)

			in := testClaims()
			token, err := svc.CreateToken(in, time.Hour)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			out, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, in.UserID, out.UserID)
			assert.Equal(t, in.Email, out.Email)
			assert.Equal(t, in.UserType, out.UserType)
			assert.False(t, out.IsGuest)
			assert.WithinDuration(t, time.Now().Add(time.Hour), out.ExpiresAt, 5*time.Second)
		})
	}
}

func TestTokenGuestClaims(t *testing.T) {
	for _, provider := range []string{"paseto", "jwt"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewTokenService(provider, testTokenKey)
			require.NoError(t, err)

			in := testClaims()
			in.UserID = "guest_3f0e8a3c-5b7d-4f20-9df1-2b44a0c3e111"
			in.Email = "guest@example.com"
			in.IsGuest = true

			token, err := svc.CreateToken(in, 24*time.Hour)
			require.NoError(t, err)

			out, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, in.UserID, out.UserID)
			assert.True(t, out.IsGuest)
		})
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	for _, provider := range []string{"paseto", "jwt"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewTokenService(provider, testTokenKey)
			require.NoError(t, err)

			token, err := svc.CreateToken(testClaims(), -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	for _, provider := range []string{"paseto", "jwt"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewTokenService(provider, testTokenKey)
			require.NoError(t, err)

			for _, bad := range []string{"", "garbage", "a.b.c", "v4.local.dG90YWxseW5vdGF0b2tlbg"} {
				_, err := svc.VerifyToken(bad)
				assert.ErrorIs(t, err, ErrInvalidToken, "input %q", bad)
			}
		})
	}
}

func TestVerifyTokenWrongKey(t *testing.T) {
	otherKey := []byte("fedcba9876543210fedcba9876543210")

	for _, provider := range []string{"paseto", "jwt"} {
		t.Run(provider, func(t *testing.T) {
			signer, err := NewTokenService(provider, testTokenKey)
			require.NoError(t, err)
			verifier, err := NewTokenService(provider, otherKey)
			require.NoError(t, err)

			token, err := signer.CreateToken(testClaims(), time.Hour)
			require.NoError(t, err)

			_, err = verifier.VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyTokenCrossProvider(t *testing.T) {
	pasetoSvc, err := NewTokenService("paseto", testTokenKey)
	require.NoError(t, err)
	jwtSvc, err := NewTokenService("jwt", testTokenKey)
	require.NoError(t, err)

	pasetoToken, err := pasetoSvc.CreateToken(testClaims(), time.Hour)
	require.NoError(t, err)
	jwtToken, err := jwtSvc.CreateToken(testClaims(), time.Hour)
	require.NoError(t, err)

	_, err = jwtSvc.VerifyToken(pasetoToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = pasetoSvc.VerifyToken(jwtToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
