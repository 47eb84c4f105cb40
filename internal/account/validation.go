package account

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength = 2
	UsernameMaxLength = 20
	PasswordMinLength = 6
	emailMaxLength    = 254
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameLength     = errors.New("username must be between 2 and 20 characters")
	ErrUsernameCharacters = errors.New("username must not contain special characters")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("please use a valid email address")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters long")
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// NormalizeUsername trims surrounding whitespace and validates the result.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrUsernameRequired
	}
	if n := utf8.RuneCountInString(username); n < UsernameMinLength || n > UsernameMaxLength {
		return "", ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return "", ErrUsernameCharacters
	}
	return username, nil
}

// NormalizeEmail trims and lowercases the address and validates its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	if len(email) > emailMaxLength || !emailPattern.MatchString(email) {
		return "", ErrInvalidEmailFormat
	}
	return email, nil
}

// ValidatePassword checks the minimum password policy.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return ErrPasswordTooShort
	}
	return nil
}

// IsValidationError reports whether err came from one of the Normalize or
// Validate helpers.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrUsernameRequired),
		errors.Is(err, ErrUsernameLength),
		errors.Is(err, ErrUsernameCharacters),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrInvalidEmailFormat),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordTooShort):
		return true
	}
	return false
}
