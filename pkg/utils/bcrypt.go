package utils

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for staff passwords
const PasswordCost = 10

// MinPasswordLength matches the auth provider's minimum
const MinPasswordLength = 6

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ComparePassword compares a hashed password with a plain text password
func ComparePassword(hashedPassword, password string) error {
	if hashedPassword == "" {
		return errors.New("no password set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return errors.New("invalid password")
	}
	return nil
}

// CheckPasswordStrength rejects passwords the auth provider would refuse
func CheckPasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters long")
	}
	if strings.TrimSpace(password) != password {
		return errors.New("password cannot start or end with whitespace")
	}
	return nil
}
