package authn_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/pkg/authn"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, rawToken string) (*authn.Principal, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authn.Principal), args.Error(1)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	principalID := uuid.New()
	principal := &authn.Principal{ID: principalID, Email: "user@example.com", EmailVerified: true}

	t.Run("valid credential returns principal", func(t *testing.T) {
		t.Parallel()

		verifier := new(mockVerifier)
		verifier.On("Verify", mock.Anything, "valid-token").Return(principal, nil)

		auth := authn.NewAuthenticator(verifier)
		got, err := auth.Authenticate(context.Background(), "valid-token")
		require.NoError(t, err)
		assert.Equal(t, principalID, got.ID)
		assert.Equal(t, "user@example.com", got.Email)
		verifier.AssertExpectations(t)
	})

	t.Run("bearer prefix stripped", func(t *testing.T) {
		t.Parallel()

		verifier := new(mockVerifier)
		verifier.On("Verify", mock.Anything, "abc123").Return(principal, nil)

		auth := authn.NewAuthenticator(verifier)
		_, err := auth.Authenticate(context.Background(), "Bearer abc123")
		require.NoError(t, err)
		verifier.AssertExpectations(t)
	})

	t.Run("empty credential rejected without provider call", func(t *testing.T) {
		t.Parallel()

		verifier := new(mockVerifier)
		auth := authn.NewAuthenticator(verifier)

		_, err := auth.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, authn.ErrUnauthenticated)
		verifier.AssertNotCalled(t, "Verify")
	})

	t.Run("rejected credential surfaces unauthenticated", func(t *testing.T) {
		t.Parallel()

		verifier := new(mockVerifier)
		verifier.On("Verify", mock.Anything, "expired").Return(nil, authn.ErrUnauthenticated)

		auth := authn.NewAuthenticator(verifier)
		_, err := auth.Authenticate(context.Background(), "expired")
		assert.ErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("provider outage surfaces service unavailable", func(t *testing.T) {
		t.Parallel()

		verifier := new(mockVerifier)
		verifier.On("Verify", mock.Anything, "any").Return(nil, authn.ErrServiceUnavailable)

		auth := authn.NewAuthenticator(verifier)
		_, err := auth.Authenticate(context.Background(), "any")
		assert.ErrorIs(t, err, authn.ErrServiceUnavailable)
		assert.NotErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("nil verifier panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { authn.NewAuthenticator(nil) })
	})
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	p := &authn.Principal{ID: uuid.New(), Email: "ctx@example.com"}
	ctx := authn.SetPrincipalToContext(context.Background(), p)

	got, ok := authn.GetPrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = authn.GetPrincipalFromContext(context.Background())
	assert.False(t, ok)
}
