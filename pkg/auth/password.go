package auth

import (
	"errors"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooWeak  = errors.New("password too weak")
)

var commonPasswordPatterns = []string{"password", "12345678", "qwerty", "abc123"}

// ValidatePassword applies the registration rules: confirm must match,
// at least MinPasswordLength characters, no common pattern and not purely numeric.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	lower := strings.ToLower(password)
	for _, p := range commonPasswordPatterns {
		if strings.Contains(lower, p) {
			return ErrPasswordTooWeak
		}
	}
	if isNumeric(password) {
		return ErrPasswordTooWeak
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
