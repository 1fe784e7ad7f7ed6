package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidVerificationCode covers absent, mismatched, and expired
	// codes without distinguishing which occurred.
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")

	// ErrResetTokenNotFound covers absent, mismatched, and expired reset
	// tokens without distinguishing which occurred.
	ErrResetTokenNotFound = errors.New("invalid or expired reset token")

	ErrSessionNotFound = errors.New("session not found")
	ErrCodeNotFound    = errors.New("verification code not found")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
