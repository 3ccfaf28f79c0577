package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	// bcrypt only reads the first 72 bytes of its input.
	minPasswordLen   = 6
	maxPasswordBytes = 72
)

// validPassword reports whether password fits the accepted length range.
func validPassword(password string) bool {
	return len(password) >= minPasswordLen && len(password) <= maxPasswordBytes
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with its plaintext version.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
