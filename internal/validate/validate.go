// Package validate holds the field rules shared by every registration and
// creation path. The rules are deliberately blunt: any failure collapses into
// the single ErrValidationFailed the API contract promises.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = errors.New("validation failed")

const (
	nameMin     = 20
	nameMax     = 60
	addressMax  = 400
	passwordMin = 8
	passwordMax = 16
)

// specialChars matches the set the password rule accepts.
const specialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// non-whitespace local part, one @, and at least one dot in the domain.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Lengths count runes, not bytes, so multi-byte scripts are measured the way
// a user counts characters.
func Name(s string) bool {
	n := utf8.RuneCountInString(s)

	return n >= nameMin && n <= nameMax
}

func Address(s string) bool {
	n := utf8.RuneCountInString(s)

	return n > 0 && n <= addressMax
}

func Email(s string) bool {
	return emailRe.MatchString(s)
}

func Password(s string) bool {
	n := utf8.RuneCountInString(s)

	if n < passwordMin || n > passwordMax {
		return false
	}

	var upper, special bool

	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	return upper && special
}

// Registration checks the full field set used by signup and admin add-user.
func Registration(name, email, password, address string) error {
	if !Name(name) || !Email(email) || !Password(password) || !Address(address) {
		return ErrValidationFailed
	}

	return nil
}

// StoreFields checks the subset a store carries (no password).
func StoreFields(name, email, address string) error {
	if !Name(name) || !Email(email) || !Address(address) {
		return ErrValidationFailed
	}

	return nil
}
