package auth

import (
	"context"
	"errors"
	"time"

	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the claims of a locally signed token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// IssuedToken is a signed token and its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // Bearer
}

// JWTVerifier signs and verifies HS256 tokens for local development
type JWTVerifier struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTVerifier creates a verifier from cfg
func NewJWTVerifier(cfg config.JWTConfig) *JWTVerifier {
	return &JWTVerifier{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
		now:        time.Now,
	}
}

// Issue signs a token for p. An empty UID gets a fresh one.
func (v *JWTVerifier) Issue(p Principal) (*IssuedToken, error) {
	if p.Email == "" {
		return nil, ErrMissingEmail
	}
	if p.UID == "" {
		p.UID = uuid.NewString()
	}

	now := v.now()
	expiresAt := now.Add(v.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   p.UID,
			Audience:  jwt.ClaimStrings{v.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: p.Email,
		Name:  p.Name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// Verify parses and validates tokenString
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	if claims.Email == "" {
		return nil, ErrMissingEmail
	}

	return &Principal{UID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
