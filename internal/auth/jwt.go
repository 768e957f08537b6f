package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tictacduel/server/internal/domain"
)

// Claims are the token claims the external credential system issues. The core
// only consumes them; it never mints tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed identity tokens into domain identities.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the verified identity.
// Any parse or signature failure surfaces as ErrUnauthorized.
func (v *Verifier) Verify(tokenString string) (domain.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	if claims.UserID == 0 || claims.Email == "" {
		return domain.Identity{}, fmt.Errorf("token missing identity claims: %w", domain.ErrUnauthorized)
	}

	return domain.Identity{
		ID:    claims.UserID,
		Email: domain.NormalizeEmail(claims.Email),
	}, nil
}
