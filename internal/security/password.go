package security

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var ErrWeakPassword = errors.New("password must be 8-20 characters and contain a letter, a digit and a symbol")

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// ValidatePasswordPolicy enforces the change-password policy: length 8-20
// with at least one letter, one digit and one symbol.
func ValidatePasswordPolicy(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return ErrWeakPassword
	}
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !letter || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}
