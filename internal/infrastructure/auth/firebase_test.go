package auth

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIDTokenVerifier struct {
	mock.Mock
}

func (m *mockIDTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	args := m.Called(ctx, idToken)
	if tok := args.Get(0); tok != nil {
		return tok.(*fbauth.Token), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestFirebaseVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("maps claims", func(t *testing.T) {
		m := new(mockIDTokenVerifier)
		m.On("VerifyIDToken", ctx, "good").Return(&fbauth.Token{
			UID:    "fb-1",
			Claims: map[string]any{"email": "mehmet@example.com", "name": "Mehmet"},
		}, nil)

		p, err := (&FirebaseVerifier{client: m}).Verify(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, &Principal{UID: "fb-1", Email: "mehmet@example.com", Name: "Mehmet"}, p)
		m.AssertExpectations(t)
	})

	t.Run("no email", func(t *testing.T) {
		m := new(mockIDTokenVerifier)
		m.On("VerifyIDToken", ctx, "anon").Return(&fbauth.Token{UID: "fb-2", Claims: map[string]any{}}, nil)

		_, err := (&FirebaseVerifier{client: m}).Verify(ctx, "anon")
		assert.ErrorIs(t, err, ErrMissingEmail)
	})

	t.Run("rejected", func(t *testing.T) {
		m := new(mockIDTokenVerifier)
		m.On("VerifyIDToken", ctx, "bad").Return(nil, errors.New("signature mismatch"))

		_, err := (&FirebaseVerifier{client: m}).Verify(ctx, "bad")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := (&FirebaseVerifier{client: new(mockIDTokenVerifier)}).Verify(ctx, "")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}
