package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"

	"medibook/models"
)

// Load the secret from an environment variable. Fallback to a default (not recommended in production).
var secretKey = []byte(getSecret())

func getSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "MEDIBOOK"
	}
	return secret
}

// GenerateSessionToken creates a signed JWT carrying the session user snapshot.
// The token expires after the specified duration.
func GenerateSessionToken(user models.SessionUser, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"email":    user.Email,
		"phone":    user.Phone,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
}

// SessionUserFromToken extracts the session user snapshot from a valid token string.
func SessionUserFromToken(tokenString string) (*models.SessionUser, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}

	user := &models.SessionUser{ID: sub}
	if v, ok := claims["username"].(string); ok {
		user.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		user.Role = v
	}
	if v, ok := claims["email"].(string); ok {
		user.Email = v
	}
	if v, ok := claims["phone"].(string); ok {
		user.Phone = v
	}
	return user, nil
}
