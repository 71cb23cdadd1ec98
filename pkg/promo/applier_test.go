package promo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/audit"
	"github.com/aidehq/aide/pkg/promo"
	"github.com/aidehq/aide/pkg/subscription"
)

type stubProvider struct {
	mock.Mock
}

func (s *stubProvider) CreateCheckoutLink(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	return nil, nil
}

func (s *stubProvider) GetCustomerPortalLink(ctx context.Context, sub *subscription.Subscription) (*subscription.PortalLink, error) {
	return nil, nil
}

func (s *stubProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*subscription.WebhookEvent, error) {
	return nil, nil
}

type fixture struct {
	store     *promo.MemoryStore
	subs      *subscription.MemoryStore
	storage   *audit.MemoryStorage
	applier   promo.Applier
	lifecycle subscription.Manager
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   promo.NewMemoryStore(),
		subs:    subscription.NewMemoryStore(),
		storage: audit.NewMemoryStorage(),
		now:     time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	auditLog := audit.NewLogger(f.storage)
	f.lifecycle = subscription.NewManager(f.subs, new(stubProvider), auditLog,
		subscription.WithNow(func() time.Time { return f.now }))
	f.applier = promo.NewApplier(f.store, f.lifecycle, auditLog,
		promo.WithNow(func() time.Time { return f.now }))
	return f
}

func superAdmin() *admin.Record {
	return &admin.Record{PrincipalID: uuid.New(), Role: admin.RoleSuperAdmin}
}

func promoManager() *admin.Record {
	return &admin.Record{
		PrincipalID: uuid.New(),
		Role:        admin.RoleAdmin,
		Permissions: map[admin.Permission]bool{admin.PermManagePromoCodes: true},
	}
}

func (f *fixture) seedCode(t *testing.T, code *promo.Code) {
	t.Helper()
	require.NoError(t, f.applier.Create(context.Background(), superAdmin(), code))
}

func intPtr(v int) *int { return &v }

func TestApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("redeems and grants the tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedCode(t, &promo.Code{
			Code:          "WELCOME25",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 25,
			GrantMonths:   2,
			IsActive:      true,
		})

		principalID := uuid.New()
		sub, err := f.applier.Apply(ctx, "welcome25", principalID, subscription.TierPlus)
		require.NoError(t, err)
		assert.True(t, sub.IsComplimentary)
		assert.Equal(t, f.now.AddDate(0, 2, 0), sub.CurrentPeriodEnd)

		tier, err := f.lifecycle.EffectiveTier(ctx, principalID)
		require.NoError(t, err)
		assert.Equal(t, subscription.TierPlus, tier)

		code, err := f.store.GetByCode(ctx, "WELCOME25")
		require.NoError(t, err)
		assert.Equal(t, 1, code.CurrentUses)

		events, err := f.storage.Query(ctx, audit.Criteria{Action: "subscription.promo_grant"})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, err := f.applier.Apply(ctx, "NOPE", uuid.New(), subscription.TierBasic)
		assert.ErrorIs(t, err, promo.ErrCodeNotFound)
	})

	t.Run("inactive wins over every later check", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedCode(t, &promo.Code{
			Code:          "OLD",
			DiscountType:  promo.DiscountFixed,
			DiscountValue: 500,
			GrantMonths:   1,
			MaxUses:       intPtr(1),
			ValidUntil:    timePtr(f.now.Add(-time.Hour)),
			ValidFrom:     f.now.Add(-48 * time.Hour),
			IsActive:      true,
		})
		require.NoError(t, f.applier.Deactivate(ctx, superAdmin(), "OLD"))

		// Expired AND inactive: the active check runs first.
		_, err := f.applier.Apply(ctx, "OLD", uuid.New(), subscription.TierBasic)
		assert.ErrorIs(t, err, promo.ErrCodeInactive)
	})

	t.Run("window violations report expired", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedCode(t, &promo.Code{
			Code:          "EARLY",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 10,
			GrantMonths:   1,
			ValidFrom:     f.now.Add(24 * time.Hour),
			IsActive:      true,
		})
		f.seedCode(t, &promo.Code{
			Code:          "LATE",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 10,
			GrantMonths:   1,
			ValidFrom:     f.now.Add(-48 * time.Hour),
			ValidUntil:    timePtr(f.now.Add(-time.Hour)),
			IsActive:      true,
		})

		_, err := f.applier.Apply(ctx, "EARLY", uuid.New(), subscription.TierBasic)
		assert.ErrorIs(t, err, promo.ErrCodeExpired)

		_, err = f.applier.Apply(ctx, "LATE", uuid.New(), subscription.TierBasic)
		assert.ErrorIs(t, err, promo.ErrCodeExpired)
	})

	t.Run("exhausted code", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedCode(t, &promo.Code{
			Code:          "ONCE",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 50,
			GrantMonths:   1,
			MaxUses:       intPtr(1),
			IsActive:      true,
		})

		_, err := f.applier.Apply(ctx, "ONCE", uuid.New(), subscription.TierBasic)
		require.NoError(t, err)

		_, err = f.applier.Apply(ctx, "ONCE", uuid.New(), subscription.TierBasic)
		assert.ErrorIs(t, err, promo.ErrCodeExhausted)
	})

	t.Run("tier restrictions", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedCode(t, &promo.Code{
			Code:            "PLUSONLY",
			DiscountType:    promo.DiscountPercentage,
			DiscountValue:   30,
			GrantMonths:     1,
			ApplicableTiers: []subscription.Tier{subscription.TierPlus},
			IsActive:        true,
		})

		_, err := f.applier.Apply(ctx, "PLUSONLY", uuid.New(), subscription.TierBasic)
		assert.ErrorIs(t, err, promo.ErrTierNotApplicable)

		// Free is never grantable, restricted list or not.
		_, err = f.applier.Apply(ctx, "PLUSONLY", uuid.New(), subscription.TierFree)
		assert.ErrorIs(t, err, promo.ErrTierNotApplicable)

		_, err = f.applier.Apply(ctx, "PLUSONLY", uuid.New(), subscription.TierPlus)
		assert.NoError(t, err)
	})

	t.Run("last use raced by two callers admits exactly one", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedCode(t, &promo.Code{
			Code:          "LASTONE",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 100,
			GrantMonths:   1,
			MaxUses:       intPtr(1),
			IsActive:      true,
		})

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.applier.Apply(ctx, "LASTONE", uuid.New(), subscription.TierBasic)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, promo.ErrCodeExhausted)
			}
		}
		assert.Equal(t, 1, succeeded)

		code, err := f.store.GetByCode(ctx, "LASTONE")
		require.NoError(t, err)
		assert.Equal(t, 1, code.CurrentUses)
	})
}

func TestCodeManagement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	valid := func() *promo.Code {
		return &promo.Code{
			Code:          "SPRING10",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 10,
			GrantMonths:   1,
			IsActive:      true,
		}
	}

	t.Run("requires manage_promo_codes", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		noPerm := &admin.Record{PrincipalID: uuid.New(), Role: admin.RoleSupport}

		assert.ErrorIs(t, f.applier.Create(ctx, noPerm, valid()), promo.ErrForbidden)
		assert.ErrorIs(t, f.applier.Deactivate(ctx, noPerm, "SPRING10"), promo.ErrForbidden)
		_, err := f.applier.List(ctx, noPerm)
		assert.ErrorIs(t, err, promo.ErrForbidden)

		// The scoped permission is enough, super_admin not required.
		require.NoError(t, f.applier.Create(ctx, promoManager(), valid()))
	})

	t.Run("create validates and audits", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		acting := promoManager()

		bad := valid()
		bad.DiscountValue = 130
		assert.ErrorIs(t, f.applier.Create(ctx, acting, bad), promo.ErrInvalidCode)

		bad = valid()
		bad.GrantMonths = 0
		assert.ErrorIs(t, f.applier.Create(ctx, acting, bad), promo.ErrInvalidCode)

		require.NoError(t, f.applier.Create(ctx, acting, valid()))
		assert.ErrorIs(t, f.applier.Create(ctx, acting, valid()), promo.ErrCodeAlreadyExists)

		events, err := f.storage.Query(ctx, audit.Criteria{Action: "promo.create"})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("codes are normalized on create", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		code := valid()
		code.Code = "  spring10 "
		require.NoError(t, f.applier.Create(ctx, promoManager(), code))
		assert.Equal(t, "SPRING10", code.Code)

		got, err := f.store.GetByCode(ctx, "SPRING10")
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("deactivate keeps the code queryable", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		acting := promoManager()
		require.NoError(t, f.applier.Create(ctx, acting, valid()))
		require.NoError(t, f.applier.Deactivate(ctx, acting, "spring10"))

		codes, err := f.applier.List(ctx, acting)
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.False(t, codes[0].IsActive)
	})
}

func timePtr(v time.Time) *time.Time { return &v }
