package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mindwell-app/mindwell-api/internal/httputil"
	"github.com/mindwell-app/mindwell-api/internal/logging"
	"github.com/mindwell-app/mindwell-api/internal/ratelimit"
	"github.com/mindwell-app/mindwell-api/internal/user"
	"github.com/mindwell-app/mindwell-api/internal/validation"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignupRequest represents the registration request body
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	UserType        string `json:"userType"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	Code string `json:"code"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResendVerificationRequest represents the resend verification email request
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// AuthResponse carries a user view (password hash excluded by the model's
// JSON tags) together with a signed session token.
type AuthResponse struct {
	User    *user.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"message"`
}

// UserResponse carries a user view without a token.
type UserResponse struct {
	User    *user.User `json:"user"`
	Message string     `json:"message"`
}

// GuestResponse is returned for anonymous sessions.
type GuestResponse struct {
	GuestToken string `json:"guestToken"`
	Message    string `json:"message"`
}

// MessageResponse is a bare acknowledgment body.
type MessageResponse struct {
	Message string `json:"message"`
}

// forgotPasswordAck is returned whether or not the email exists; both
// cases must produce byte-identical responses.
const forgotPasswordAck = "If an account with that email exists, we have sent a password reset link."

const resendVerificationAck = "If your email is registered and not verified, a new verification code has been sent."

// Signup handles user registration
// @Summary      Register a new user
// @Description  Create a new account. A 6-digit verification code is emailed; the returned token is usable immediately.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Registration details"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} httputil.ValidationErrorResponse "Validation error or email in use"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkIPLimit(w, r, "signup") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body.", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rules := validation.RuleSet{
		{Field: "name", Checks: []validation.Validator{validation.LengthRange("name", 2, 50)}},
		{Field: "email", Checks: []validation.Validator{validation.Email()}},
		{Field: "password", Checks: []validation.Validator{validation.Password("password")}},
		{Field: "confirmPassword", Checks: []validation.Validator{validation.Equals("passwords do not match", req.Password)}},
		{Field: "userType", Checks: []validation.Validator{validation.OneOf("userType", string(user.TypePatient), string(user.TypeTherapist))}},
	}
	values := map[string]string{
		"name":            strings.TrimSpace(req.Name),
		"email":           req.Email,
		"password":        req.Password,
		"confirmPassword": req.ConfirmPassword,
		"userType":        req.UserType,
	}
	if errs := rules.Apply(values); len(errs) > 0 {
		logger.Warn("signup validation failed", "violations", len(errs))
		respondValidationErrors(w, errs)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, token, err := h.service.Register(r.Context(), strings.TrimSpace(req.Name), req.Email, req.Password, user.Type(req.UserType))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "User with this email already exists.", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error during registration.", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, AuthResponse{
		User:    newUser,
		Token:   token,
		Message: "Account created successfully. Please check your email for verification code.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive a session token. Overwrites any prior session for the user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} httputil.ValidationErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkIPLimit(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body.", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rules := validation.RuleSet{
		{Field: "email", Checks: []validation.Validator{validation.Email()}},
		{Field: "password", Checks: []validation.Validator{validation.Required("password")}},
	}
	if errs := rules.Apply(map[string]string{"email": req.Email, "password": req.Password}); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	existing, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid email or password.", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error during login.", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", existing.ID)

	httputil.RespondJSON(w, AuthResponse{
		User:    existing,
		Token:   token,
		Message: "Login successful",
	}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Delete the caller's session. Idempotent.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Authentication required.", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), identity.UserID); err != nil {
		logger.Error("logout failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error during logout.", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out successfully", "user_id", identity.UserID)

	httputil.RespondJSON(w, MessageResponse{Message: "Logout successful"}, http.StatusOK)
}

// VerifyEmail handles email verification
// @Summary      Verify email address
// @Description  Redeem the 6-digit code sent at signup. Authenticates the bearer token itself since the account is not fully activated yet.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body VerifyEmailRequest true "Verification code"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := BearerToken(r)
	if !ok {
		logger.Warn("email verification failed: no token")
		httputil.RespondErrorWithCode(w, "Access denied. No token provided.", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify email request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body.", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rules := validation.RuleSet{
		{Field: "code", Checks: []validation.Validator{validation.Digits("code", 6)}},
	}
	if errs := rules.Apply(map[string]string{"code": req.Code}); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	verified, err := h.service.VerifyEmail(r.Context(), token, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrExpiredToken), errors.Is(err, ErrInvalidToken):
			logger.Warn("email verification failed: unauthorized")
			httputil.RespondErrorWithCode(w, "Invalid token.", httputil.CodeInvalidToken, http.StatusUnauthorized)
		case errors.Is(err, ErrInvalidVerificationCode):
			logger.Warn("email verification failed: invalid code")
			httputil.RespondErrorWithCode(w, "Invalid or expired verification code.", httputil.CodeInvalidCode, http.StatusBadRequest)
		default:
			logger.Error("email verification failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Internal server error during email verification.", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("email verified successfully", "user_id", verified.ID)

	httputil.RespondJSON(w, UserResponse{
		User:    verified,
		Message: "Email verified successfully",
	}, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a reset link. Always returns the same acknowledgment to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ValidationErrorResponse "Validation error"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body.", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rules := validation.RuleSet{
		{Field: "email", Checks: []validation.Validator{validation.Email()}},
	}
	if errs := rules.Apply(map[string]string{"email": req.Email}); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	if h.checkEmailFlood(w, r, req.Email) {
		return
	}

	// Always acknowledges; the service never reports whether the email exists
	_ = h.service.ForgotPassword(r.Context(), req.Email)

	httputil.RespondJSON(w, MessageResponse{Message: forgotPasswordAck}, http.StatusOK)
}

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Redeem a reset token and set a new password. Invalidates the user's session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body.", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rules := validation.RuleSet{
		{Field: "token", Checks: []validation.Validator{validation.Required("token")}},
		{Field: "newPassword", Checks: []validation.Validator{validation.Password("newPassword")}},
	}
	if errs := rules.Apply(map[string]string{"token": req.Token, "newPassword": req.NewPassword}); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			logger.Warn("password reset failed: invalid or expired token")
			httputil.RespondErrorWithCode(w, "Invalid or expired reset token.", httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error during password reset.", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset successfully")

	httputil.RespondJSON(w, MessageResponse{
		Message: "Password reset successful. Please log in with your new password.",
	}, http.StatusOK)
}

// ResendVerification handles resending the verification code
// @Summary      Resend verification code
// @Description  Issue a fresh 6-digit code. Always returns the same acknowledgment to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendVerificationRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ValidationErrorResponse "Validation error"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/resend-verification [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body.", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rules := validation.RuleSet{
		{Field: "email", Checks: []validation.Validator{validation.Email()}},
	}
	if errs := rules.Apply(map[string]string{"email": req.Email}); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	if h.checkEmailFlood(w, r, req.Email) {
		return
	}

	_ = h.service.ResendVerification(r.Context(), req.Email)

	httputil.RespondJSON(w, MessageResponse{Message: resendVerificationAck}, http.StatusOK)
}

// Guest handles anonymous session creation
// @Summary      Continue as guest
// @Description  Issue a 24-hour anonymous session. No user record is created.
// @Tags         auth
// @Produce      json
// @Success      200 {object} GuestResponse
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/guest [post]
func (h *Handler) Guest(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, sess, err := h.service.ContinueAsGuest(r.Context())
	if err != nil {
		logger.Error("guest session failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error during guest session creation.", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("guest session created", "guest_id", sess.UserID)

	httputil.RespondJSON(w, GuestResponse{
		GuestToken: token,
		Message:    "Guest session created successfully",
	}, http.StatusOK)
}

// Me returns the authenticated caller's identity
// @Summary      Current identity
// @Description  Return the identity resolved by the session gate.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Authentication required.", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, map[string]any{
		"userId":   identity.UserID,
		"email":    identity.Email,
		"userType": identity.UserType,
		"isGuest":  identity.IsGuest,
	}, http.StatusOK)
}

// checkIPLimit enforces and records the per-IP window for a purpose.
// Limiter failures log and fail open so Redis trouble cannot lock
// everyone out. Returns true when the request was rejected.
func (h *Handler) checkIPLimit(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later.", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// checkEmailFlood enforces the IP window plus the per-email cooldown used
// by the email-sending endpoints. Returns true when the request was rejected.
func (h *Handler) checkEmailFlood(w http.ResponseWriter, r *http.Request, email string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later.", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown")
		httputil.RespondErrorWithCode(w, "Please wait before requesting another email.", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	return false
}

func respondValidationErrors(w http.ResponseWriter, errs []validation.FieldError) {
	fieldErrs := make([]httputil.FieldError, len(errs))
	for i, e := range errs {
		fieldErrs[i] = httputil.FieldError{Field: e.Field, Message: e.Message}
	}
	httputil.RespondValidationErrors(w, fieldErrs)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
