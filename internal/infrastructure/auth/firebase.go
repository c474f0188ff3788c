package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// idTokenVerifier is the part of the Firebase Auth client used here
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier verifies Firebase Auth ID tokens
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier creates a verifier backed by the app's Auth client
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the ID token signature, audience and expiry
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Principal, error) {
	if idToken == "" {
		return nil, ErrMissingToken
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if fbauth.IsIDTokenExpired(err) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := tok.Claims["email"].(string)
	if email == "" {
		return nil, ErrMissingEmail
	}
	name, _ := tok.Claims["name"].(string)
	return &Principal{UID: tok.UID, Email: email, Name: name}, nil
}
