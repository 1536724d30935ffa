package user

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// PasswordSymbols is the punctuation set a password must draw from.
const PasswordSymbols = "!@#$%^&*"

var (
	ErrInvalidEmail = errors.New("value is not a valid email address")
	ErrWeakPassword = errors.New("password must be 6-128 characters long and contain at least one digit and one of " + PasswordSymbols)

	passwordCharset = regexp.MustCompile(`^[A-Za-z0-9_!@#$%^&*]{6,128}$`)
)

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail accepts a bare addr-spec with a dotted domain.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrInvalidEmail
	}
	at := strings.LastIndexByte(email, '@')
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the signup password policy.
func ValidatePassword(pw string) error {
	if !passwordCharset.MatchString(pw) {
		return ErrWeakPassword
	}
	if !strings.ContainsAny(pw, "0123456789") || !strings.ContainsAny(pw, PasswordSymbols) {
		return ErrWeakPassword
	}
	return nil
}
