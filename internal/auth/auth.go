// Package auth verifies bearer tokens issued by the external identity
// provider. The server never issues credentials of its own and never
// stores a password: the provider is the source of truth for who a user
// is, and this package's job is limited to checking a token's signature
// and reading its subject.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var verificationKey []byte

// SetVerificationKey configures the key used to verify tokens. Call this
// once at startup with cfg.Security.JWTVerificationKey.
func SetVerificationKey(s string) {
	verificationKey = []byte(s)
}

// ParseToken validates a bearer token and returns its subject (user_id).
func ParseToken(tok string) (string, error) {
	if len(verificationKey) == 0 {
		return "", errors.New("jwt verification key not set")
	}
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return verificationKey, nil })
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("no claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("no sub")
	}
	return sub, nil
}

// IssueDemoToken mints a token for local/demo tooling and tests where
// there is no live identity provider to call. Never used on
// the request path in production.
func IssueDemoToken(userID string, ttl time.Duration) (string, error) {
	if len(verificationKey) == 0 {
		return "", errors.New("jwt verification key not set")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(verificationKey)
}
