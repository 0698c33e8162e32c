// Package authutil handles password hashing and validation.
package authutil

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the work factor for new hashes. The default (10) is a
	// reasonable balance for an interactive sign-in flow.
	bcryptCost = bcrypt.DefaultCost

	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt truncates beyond 72 bytes
)

// HashPassword returns a bcrypt hash of the given plaintext password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordRules returns a human-readable description of the password policy,
// suitable for display next to the sign-up form.
func PasswordRules() string {
	return "At least 8 characters, including one letter and one digit."
}

// ValidatePassword checks a candidate password against the policy.
// The returned error message is safe to show to the user.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return errors.New("password must be at most 72 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}
