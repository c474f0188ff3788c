// Package auth verifies bearer tokens and turns them into principals.
package auth

import (
	"context"
	"errors"
)

// Token errors
var (
	ErrMissingToken     = errors.New("missing token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingEmail     = errors.New("token carries no email")
)

// Principal is the signed-in user a token was issued to
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TokenVerifier checks a bearer token and returns its principal
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
