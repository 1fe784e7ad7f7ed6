package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindwell-app/mindwell-api/internal/logging"
	"github.com/mindwell-app/mindwell-api/internal/user"
)

// guestEmail is the placeholder address carried by guest sessions; guests
// never appear in the user repository.
const guestEmail = "guest@example.com"

// ServiceConfig carries the lifetimes of sessions and ephemeral secrets.
type ServiceConfig struct {
	SessionTTL          time.Duration // normal users, default 7 days
	GuestSessionTTL     time.Duration // guests, default 24 hours
	VerificationCodeTTL time.Duration // default 10 minutes
	ResetTokenTTL       time.Duration // default 1 hour
}

// Service orchestrates registration, login, logout, email verification,
// password reset, and guest sessions. All shared state lives in the
// injected collaborators; the service itself is stateless per request.
type Service struct {
	users       UserRepository
	sessions    SessionStore
	codes       VerificationCodeStore
	resetTokens ResetTokenStore
	tokens      TokenService
	notifier    Notifier
	logger      *logging.Logger
	cfg         ServiceConfig
}

func NewService(
	users UserRepository,
	sessions SessionStore,
	codes VerificationCodeStore,
	resetTokens ResetTokenStore,
	tokens TokenService,
	notifier Notifier,
	logger *logging.Logger,
	cfg ServiceConfig,
) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		codes:       codes,
		resetTokens: resetTokens,
		tokens:      tokens,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
	}
}

// Register creates a new user account, issues a verification code, and
// opens a session. A failure to store or deliver the code is logged but
// does not fail registration; the user can request a resend.
func (s *Service) Register(ctx context.Context, name, email, password string, userType user.Type) (*user.User, string, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash, userType)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	s.issueVerificationCode(ctx, newUser)

	token, err := s.openSession(ctx, Session{
		UserID:   newUser.ID.String(),
		Email:    newUser.Email,
		UserType: newUser.UserType,
	}, s.cfg.SessionTTL)
	if err != nil {
		return nil, "", err
	}

	return newUser, token, nil
}

// Login authenticates a user and opens a session, overwriting any prior
// session for that user. An unknown email and a wrong password both
// report ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(password, existing.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, Session{
		UserID:   existing.ID.String(),
		Email:    existing.Email,
		UserType: existing.UserType,
	}, s.cfg.SessionTTL)
	if err != nil {
		return nil, "", err
	}

	return existing, token, nil
}

// Logout deletes the user's session. Idempotent.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// VerifyEmail authenticates the bearer token itself (the caller may not
// have a gated session yet), checks the stored code, and flips the
// verification flag. The code is consumed on success and cannot be reused.
func (s *Service) VerifyEmail(ctx context.Context, bearerToken, code string) (*user.User, error) {
	claims, err := s.tokens.VerifyToken(bearerToken)
	if err != nil {
		return nil, err
	}

	// Guests and malformed subjects have no account to verify
	userID, parseErr := uuid.Parse(claims.UserID)
	if claims.IsGuest || parseErr != nil {
		return nil, ErrInvalidToken
	}

	stored, err := s.codes.GetCode(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return nil, ErrInvalidVerificationCode
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, ErrInvalidVerificationCode
	}

	if err := s.users.MarkEmailVerified(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	if err := s.codes.DeleteCode(ctx, userID); err != nil {
		s.logger.Warn("failed to delete consumed verification code", "user_id", userID, "error", err)
	}

	verified, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return verified, nil
}

// ForgotPassword initiates the reset flow. Always returns nil so the
// response cannot reveal whether the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return nil
	}

	token := uuid.NewString()
	if err := s.resetTokens.Store(ctx, existing.ID, token, s.cfg.ResetTokenTTL); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	// Send in a goroutine with a fresh context so a client disconnect
	// does not cancel the delivery
	go func() {
		if err := s.notifier.SendPasswordReset(context.Background(), existing.Email, existing.Name, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", existing.Email, "error", err)
		}
	}()

	return nil
}

// ResetPassword redeems a reset token, replaces the password hash,
// consumes the token, and invalidates the user's session so the old
// credentials stop working everywhere.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.resetTokens.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrResetTokenNotFound
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetTokens.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to delete consumed reset token", "error", err)
	}

	// Force re-login with the new password
	if err := s.sessions.Delete(ctx, userID.String()); err != nil {
		s.logger.Warn("failed to invalidate session after password reset", "user_id", userID, "error", err)
	}

	return nil
}

// ResendVerification reissues a verification code through the same path
// registration uses. Always returns nil to prevent email enumeration.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for resend verification", "error", err)
		}
		return nil
	}

	if existing.IsEmailVerified {
		return nil
	}

	s.issueVerificationCode(ctx, existing)
	return nil
}

// ContinueAsGuest issues a short-lived session under a synthetic guest id.
// No user record is created.
func (s *Service) ContinueAsGuest(ctx context.Context) (string, *Session, error) {
	sess := Session{
		UserID:   "guest_" + uuid.NewString(),
		Email:    guestEmail,
		UserType: user.TypePatient,
		IsGuest:  true,
	}

	token, err := s.openSession(ctx, sess, s.cfg.GuestSessionTTL)
	if err != nil {
		return "", nil, err
	}

	return token, &sess, nil
}

// openSession signs a token and writes the matching session entry,
// overwriting any prior session at the same key.
func (s *Service) openSession(ctx context.Context, sess Session, ttl time.Duration) (string, error) {
	token, err := s.tokens.CreateToken(TokenClaims{
		UserID:   sess.UserID,
		Email:    sess.Email,
		UserType: sess.UserType,
		IsGuest:  sess.IsGuest,
	}, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.sessions.Save(ctx, sess, ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// issueVerificationCode stores a fresh 6-digit code (superseding any prior
// one) and mails it in the background. Failures are logged, never fatal:
// account creation must not hinge on email delivery.
func (s *Service) issueVerificationCode(ctx context.Context, u *user.User) {
	code, err := generateVerificationCode()
	if err != nil {
		s.logger.Warn("failed to generate verification code", "user_id", u.ID, "error", err)
		return
	}

	if err := s.codes.SetCode(ctx, u.ID, code, s.cfg.VerificationCodeTTL); err != nil {
		s.logger.Warn("failed to store verification code", "user_id", u.ID, "error", err)
		return
	}

	go func() {
		if err := s.notifier.SendVerificationCode(context.Background(), u.Email, u.Name, code); err != nil {
			s.logger.Warn("failed to send verification email", "email", u.Email, "error", err)
		}
	}()
}
