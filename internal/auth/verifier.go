// Package auth is the boundary to the external auth subsystem. The chat
// core only verifies tokens it is handed; issuing them is someone else's job.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller as seen by this core.
type Identity struct {
	UserID string
	Name   string
}

// TokenVerifier verifies a bearer token and resolves the caller identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier verifies HMAC-signed tokens with the shared secret the
// auth service signs with. Expected claims: "sub" (user id), "name".
func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}

	name, _ := claims["name"].(string)
	return Identity{UserID: sub, Name: name}, nil
}
