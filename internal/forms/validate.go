package forms

import (
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// Password limits. The minimum counts UTF-16 code units like the web client
// does; the byte cap matches the backend's bcrypt input limit, which counts
// UTF-8 bytes.
const (
	MinPasswordLength   = 6
	MaxPasswordBytes    = 72
	msgLoginBlank       = "Please enter both email and password"
	msgRegisterBlank    = "Please fill in all fields"
	msgInvalidEmail     = "Please enter a valid email address"
	msgLoginShort       = "Password must be at least 6 characters"
	msgRegisterShort    = "Password must be at least 6 characters long"
	msgPasswordTooLong  = "Password cannot be longer than 72 characters"
	msgPasswordMismatch = "Passwords do not match"
)

// ValidationError is a local input error. It is raised before any network
// call and is shown inline, never logged as a failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

var validate = validator.New()

// passwordLength counts UTF-16 code units, so a character outside the
// basic multilingual plane counts twice.
func passwordLength(s string) int { return len(utf16.Encode([]rune(s))) }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func looksLikeEmail(email string) bool {
	return validate.Var(email, "contains=@") == nil
}

// ValidateLogin checks login input, stopping at the first failure
func ValidateLogin(email, password string) error {
	if blank(email) || blank(password) {
		return invalid(msgLoginBlank)
	}
	if !looksLikeEmail(email) {
		return invalid(msgInvalidEmail)
	}
	if passwordLength(password) < MinPasswordLength {
		return invalid(msgLoginShort)
	}
	return nil
}

// ValidateRegister checks registration input, stopping at the first failure
func ValidateRegister(name, email, password, confirmPassword string) error {
	if blank(name) || blank(email) || blank(password) {
		return invalid(msgRegisterBlank)
	}
	if !looksLikeEmail(email) {
		return invalid(msgInvalidEmail)
	}
	if passwordLength(password) < MinPasswordLength {
		return invalid(msgRegisterShort)
	}
	if len(password) > MaxPasswordBytes {
		return invalid(msgPasswordTooLong)
	}
	if password != confirmPassword {
		return invalid(msgPasswordMismatch)
	}
	return nil
}
