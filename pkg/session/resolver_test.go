package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/session"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, credential string) (*authn.Principal, error) {
	args := m.Called(ctx, credential)
	if p, ok := args.Get(0).(*authn.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type failingStore struct {
	session.Store
}

func (failingStore) Set(ctx context.Context, key string, sess *session.Session, ttl time.Duration) error {
	return session.ErrStoreFailure
}

func TestResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	principal := &authn.Principal{ID: uuid.New(), Email: "ada@example.com", EmailVerified: true}

	t.Run("verifies once and serves from cache after", func(t *testing.T) {
		t.Parallel()

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, "tok-1").Return(principal, nil).Once()

		resolver := session.NewResolver(session.NewMemoryStore(), auth)

		for range 3 {
			got, err := resolver.Resolve(ctx, "tok-1")
			require.NoError(t, err)
			assert.Equal(t, principal.ID, got.ID)
		}

		auth.AssertExpectations(t)
	})

	t.Run("bearer prefix shares the cache entry", func(t *testing.T) {
		t.Parallel()

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, mock.Anything).Return(principal, nil).Once()

		resolver := session.NewResolver(session.NewMemoryStore(), auth)

		_, err := resolver.Resolve(ctx, "Bearer tok-2")
		require.NoError(t, err)
		_, err = resolver.Resolve(ctx, "tok-2")
		require.NoError(t, err)

		auth.AssertExpectations(t)
	})

	t.Run("expired entry re-verifies", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		store := session.NewMemoryStore().WithClock(func() time.Time { return now })

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, "tok-3").Return(principal, nil).Twice()

		resolver := session.NewResolver(store, auth, session.WithTTL(time.Minute))

		_, err := resolver.Resolve(ctx, "tok-3")
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = resolver.Resolve(ctx, "tok-3")
		require.NoError(t, err)

		auth.AssertExpectations(t)
	})

	t.Run("verification failure is returned and not cached", func(t *testing.T) {
		t.Parallel()

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, "bad").Return(nil, authn.ErrUnauthenticated).Twice()

		resolver := session.NewResolver(session.NewMemoryStore(), auth)

		_, err := resolver.Resolve(ctx, "bad")
		assert.ErrorIs(t, err, authn.ErrUnauthenticated)
		_, err = resolver.Resolve(ctx, "bad")
		assert.ErrorIs(t, err, authn.ErrUnauthenticated)

		auth.AssertExpectations(t)
	})

	t.Run("cache write failure still resolves", func(t *testing.T) {
		t.Parallel()

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, "tok-4").Return(principal, nil)

		resolver := session.NewResolver(failingStore{session.NewMemoryStore()}, auth)

		got, err := resolver.Resolve(ctx, "tok-4")
		require.NoError(t, err)
		assert.Equal(t, principal.Email, got.Email)
	})
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	principal := &authn.Principal{ID: uuid.New(), Email: "ada@example.com"}

	t.Run("single credential", func(t *testing.T) {
		t.Parallel()

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, "tok-5").Return(principal, nil).Twice()

		resolver := session.NewResolver(session.NewMemoryStore(), auth)

		_, err := resolver.Resolve(ctx, "tok-5")
		require.NoError(t, err)
		require.NoError(t, resolver.Invalidate(ctx, "tok-5"))

		_, err = resolver.Resolve(ctx, "tok-5")
		require.NoError(t, err)

		auth.AssertExpectations(t)
	})

	t.Run("every session of a principal", func(t *testing.T) {
		t.Parallel()

		auth := new(mockAuthenticator)
		auth.On("Authenticate", mock.Anything, mock.Anything).Return(principal, nil).Times(4)

		resolver := session.NewResolver(session.NewMemoryStore(), auth)

		_, err := resolver.Resolve(ctx, "laptop")
		require.NoError(t, err)
		_, err = resolver.Resolve(ctx, "phone")
		require.NoError(t, err)

		require.NoError(t, resolver.InvalidatePrincipal(ctx, principal.ID))

		_, err = resolver.Resolve(ctx, "laptop")
		require.NoError(t, err)
		_, err = resolver.Resolve(ctx, "phone")
		require.NoError(t, err)

		auth.AssertExpectations(t)
	})
}
