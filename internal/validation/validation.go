package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,32}$`)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 6

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeUsername trims, validates and lowercases a username.
// Usernames are 3-32 characters of letters, numbers, '_' or '.'.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return "", ValidationError{Field: "username", Message: "username must be 3-32 chars and only letters, numbers, _ or ."}
	}
	return strings.ToLower(username), nil
}

// ValidatePassword checks if a password meets requirements.
// Length is counted in characters, not bytes.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}
