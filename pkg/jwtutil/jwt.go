package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("catalogservicesecretkey")

// Initialize sets the signing key used for token validation
func Initialize(key string) {
	if key != "" {
		signingKey = []byte(key)
	}
}

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email   string `json:"email"`
	UserID  uint   `json:"user_id"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed token for the given user
func GenerateToken(userID uint, email string, isAdmin bool, expiration time.Duration) (string, error) {
	claims := UserClaims{
		Email:   email,
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
