package httputil

// Machine-readable error codes returned alongside human messages.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeSessionExpired     = "session_expired"
	CodeForbidden          = "forbidden"
	CodeInvalidCode        = "invalid_or_expired_code"
	CodeInvalidResetToken  = "invalid_or_expired_token"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"
	CodeNotFound           = "not_found"
	CodeInternalError      = "internal_error"
)
