package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/pkg/audit"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	t.Run("log records success event", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		log := audit.NewLogger(storage)

		err := log.Log(context.Background(), "actor-1", "admin.grant",
			audit.WithTarget("target-1"),
			audit.WithResource("admin_record", "target-1"),
			audit.WithMetadata("role", "moderator"),
		)
		require.NoError(t, err)

		events, err := storage.Query(context.Background(), audit.Criteria{ActorID: "actor-1"})
		require.NoError(t, err)
		require.Len(t, events, 1)

		e := events[0]
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "admin.grant", e.Action)
		assert.Equal(t, "target-1", e.TargetID)
		assert.Equal(t, audit.ResultSuccess, e.Result)
		assert.Equal(t, "moderator", e.Metadata["role"])
		assert.False(t, e.CreatedAt.IsZero())
	})

	t.Run("log error captures cause", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		log := audit.NewLogger(storage)

		cause := errors.New("target not found")
		require.NoError(t, log.LogError(context.Background(), "actor-1", "admin.revoke", cause))

		events, err := storage.Query(context.Background(), audit.Criteria{Action: "admin.revoke"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ResultFailure, events[0].Result)
		assert.Equal(t, "target not found", events[0].Error)
	})

	t.Run("missing actor rejected", func(t *testing.T) {
		t.Parallel()

		log := audit.NewLogger(audit.NewMemoryStorage())
		err := log.Log(context.Background(), "", "admin.grant")
		assert.ErrorIs(t, err, audit.ErrEventValidation)
	})

	t.Run("request id extracted from context", func(t *testing.T) {
		t.Parallel()

		type reqIDKey struct{}

		storage := audit.NewMemoryStorage()
		log := audit.NewLogger(storage, audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
			v, ok := ctx.Value(reqIDKey{}).(string)
			return v, ok
		}))

		ctx := context.WithValue(context.Background(), reqIDKey{}, "req-9")
		require.NoError(t, log.Log(ctx, "actor-1", "promo.create"))

		events, err := storage.Query(context.Background(), audit.Criteria{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "req-9", events[0].RequestID)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { audit.NewLogger(nil) })
	})
}

func TestMemoryStorageQuery(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	log := audit.NewLogger(storage)
	ctx := context.Background()

	require.NoError(t, log.Log(ctx, "a1", "admin.grant", audit.WithTarget("t1")))
	require.NoError(t, log.Log(ctx, "a1", "subscription.grant", audit.WithTarget("t2")))
	require.NoError(t, log.Log(ctx, "a2", "admin.grant", audit.WithTarget("t1")))

	byActor, err := storage.Query(ctx, audit.Criteria{ActorID: "a1"})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	byActionAndTarget, err := storage.Query(ctx, audit.Criteria{Action: "admin.grant", TargetID: "t1"})
	require.NoError(t, err)
	assert.Len(t, byActionAndTarget, 2)

	limited, err := storage.Query(ctx, audit.Criteria{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
