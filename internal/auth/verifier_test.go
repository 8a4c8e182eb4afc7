package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyValidToken(t *testing.T) {
	req := require.New(t)
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub":  "user-1",
		"name": "Alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	identity, err := verifier.Verify(token)
	req.NoError(err)
	req.Equal("user-1", identity.UserID)
	req.Equal("Alice", identity.Name)
}

func TestVerifyNameOptional(t *testing.T) {
	req := require.New(t)
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{"sub": "user-1"})

	identity, err := verifier.Verify(token)
	req.NoError(err)
	req.Equal("user-1", identity.UserID)
	req.Empty(identity.Name)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})},
		{"missing sub", signToken(t, "test-secret", jwt.MapClaims{"name": "Alice"})},
		{"expired", signToken(t, "test-secret", jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestStaticDirectory(t *testing.T) {
	req := require.New(t)
	directory := NewStaticDirectory(map[string]string{"user-1": "Alice"})

	name, err := directory.DisplayName(context.Background(), "user-1")
	req.NoError(err)
	req.Equal("Alice", name)

	// unknown ids fall back to the raw id
	name, err = directory.DisplayName(context.Background(), "user-2")
	req.NoError(err)
	req.Equal("user-2", name)
}
