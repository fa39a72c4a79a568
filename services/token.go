package services

import (
	"strconv"
	"time"

	"chirp/config"
	"chirp/errs"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

func jwtSecret() []byte {
	if config.AppConfig != nil && config.AppConfig.Auth.JWTSecret != "" {
		return []byte(config.AppConfig.Auth.JWTSecret)
	}
	return nil
}

// SignToken issues a bearer token for the user. The same token is
// accepted by the REST middleware and the WebSocket handshake.
func SignToken(userID int64) (string, error) {
	secret := jwtSecret()
	if secret == nil {
		return "", errs.Internal("jwt secret not configured", nil)
	}
	ttl := defaultTokenTTL
	if config.AppConfig != nil && config.AppConfig.Auth.TokenTTLHours > 0 {
		ttl = time.Duration(config.AppConfig.Auth.TokenTTLHours) * time.Hour
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies a bearer token and returns the user id.
func ParseToken(tokenString string) (int64, error) {
	secret := jwtSecret()
	if secret == nil {
		return 0, errs.Unauthenticated("not authorized")
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return 0, errs.Unauthenticated("not authorized")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, errs.Unauthenticated("not authorized")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errs.Unauthenticated("not authorized")
	}
	return userID, nil
}
