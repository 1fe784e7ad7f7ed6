package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validator checks a single string value and returns an error message,
// or the empty string when the value is valid.
type Validator func(v string) string

// FieldError is one field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Rule binds a request field to its validators.
type Rule struct {
	Field  string
	Checks []Validator
}

// RuleSet is the ordered list of rules for one operation.
type RuleSet []Rule

// Apply runs every rule against the given values and collects all
// violations. It never performs I/O. Each field reports at most its first
// failing check, but every violated field appears in the result.
func (rs RuleSet) Apply(values map[string]string) []FieldError {
	var errs []FieldError
	for _, rule := range rs {
		v := values[rule.Field]
		for _, check := range rule.Checks {
			if msg := check(v); msg != "" {
				errs = append(errs, FieldError{Field: rule.Field, Message: msg})
				break
			}
		}
	}
	return errs
}

const maxEmailLen = 254

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Required validates that a field is not blank.
func Required(fieldName string) Validator {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return fieldName + " is required"
		}
		return ""
	}
}

// LengthRange validates that a field is between minLen and maxLen characters.
// Uses rune count for proper Unicode support.
func LengthRange(fieldName string, minLen, maxLen int) Validator {
	return func(v string) string {
		n := utf8.RuneCountInString(strings.TrimSpace(v))
		if n < minLen || n > maxLen {
			return fmt.Sprintf("%s must be between %d and %d characters", fieldName, minLen, maxLen)
		}
		return ""
	}
}

// Email validates RFC 5322 address syntax and a sane length bound.
func Email() Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "email is required"
		}
		if len(v) > maxEmailLen {
			return "please provide a valid email"
		}
		addr, err := mail.ParseAddress(v)
		// Reject "Name <a@b>" forms; only the bare address is acceptable
		if err != nil || addr.Address != v {
			return "please provide a valid email"
		}
		return ""
	}
}

// Password validates the signup complexity rule: at least 8 characters
// with one lowercase letter, one uppercase letter, and one digit.
func Password(fieldName string) Validator {
	return func(v string) string {
		if len(v) < 8 {
			return fieldName + " must be at least 8 characters long"
		}
		var hasLower, hasUpper, hasDigit bool
		for _, r := range v {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		if !hasLower || !hasUpper || !hasDigit {
			return fieldName + " must contain at least one uppercase letter, one lowercase letter, and one number"
		}
		return ""
	}
}

// Equals validates that a field matches another field's value.
func Equals(message, other string) Validator {
	return func(v string) string {
		if v != other {
			return message
		}
		return ""
	}
}

// Digits validates that a field is exactly n numeric digits.
func Digits(fieldName string, n int) Validator {
	return func(v string) string {
		if len(v) != n || !digitsOnly.MatchString(v) {
			return fmt.Sprintf("%s must be %d digits", fieldName, n)
		}
		return ""
	}
}

// OneOf validates that a field matches one of the provided options.
func OneOf(fieldName string, options ...string) Validator {
	return func(v string) string {
		for _, opt := range options {
			if v == opt {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(options, ", "))
	}
}

// NormalizeEmail lowercases and trims an email address so lookups and the
// unique index agree on a canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
