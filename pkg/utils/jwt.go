package utils

import (
	"errors"
	"strings"
	"time"

	"restaurant_backend/pkg/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the custom JWT claims of a staff session
type TokenClaims struct {
	StaffID string      `json:"staffId"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	jwt.RegisteredClaims
}

// ParseExpiry turns "7d", "12h" or "30m" into a duration, defaulting to 7 days
func ParseExpiry(expiresIn string) time.Duration {
	expiresIn = strings.TrimSpace(expiresIn)
	if strings.HasSuffix(expiresIn, "d") {
		if d, err := time.ParseDuration(strings.TrimSuffix(expiresIn, "d") + "h"); err == nil && d > 0 {
			return d * 24
		}
	}
	if d, err := time.ParseDuration(expiresIn); err == nil && d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

// GenerateToken signs a JWT for a staff member
func GenerateToken(secret string, ttl time.Duration, staff models.Staff, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := TokenClaims{
		StaffID: staff.ID,
		Email:   staff.Email,
		Role:    staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken verifies and parses a JWT token
func VerifyToken(secret, tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid && claims.StaffID != "" {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IsExpired reports whether err came from an expired token
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
