package quota

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/subscription"
)

// TierResolver resolves the tier a principal is entitled to right now.
// Satisfied by subscription.Manager.
type TierResolver interface {
	EffectiveTier(ctx context.Context, principalID uuid.UUID) (subscription.Tier, error)
}

// Tracker meters resource consumption against per-tier ceilings.
type Tracker interface {
	// Consume spends amount units of a resource. Returns the remaining
	// allowance after consumption (Unlimited for unmetered tiers).
	// ErrQuotaExceeded when the ceiling would be crossed (nothing spent),
	// ErrFeatureUnavailable when the tier has no access to the resource.
	Consume(ctx context.Context, principalID uuid.UUID, kind ResourceKind, amount int64) (int64, error)

	// Remaining reports the current period's quota state for one resource.
	Remaining(ctx context.Context, principalID uuid.UUID, kind ResourceKind) (UsageInfo, error)

	// AllUsage reports every metered resource for the dashboard.
	AllUsage(ctx context.Context, principalID uuid.UUID) (map[ResourceKind]UsageInfo, error)
}

type tracker struct {
	tiers  TierResolver
	store  Store
	limits Limits
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Tracker instance.
type Option func(*tracker)

// WithLimits overrides the shipped tier matrix.
func WithLimits(limits Limits) Option {
	return func(t *tracker) {
		if limits != nil {
			t.limits = limits
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithNow overrides the clock for period-boundary tests.
func WithNow(now func() time.Time) Option {
	return func(t *tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a Tracker. Resolver and store are required.
func NewTracker(tiers TierResolver, store Store, opts ...Option) Tracker {
	if tiers == nil {
		panic("quota: TierResolver is required")
	}
	if store == nil {
		panic("quota: Store is required")
	}

	t := &tracker{
		tiers:  tiers,
		store:  store,
		limits: DefaultLimits,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *tracker) Consume(ctx context.Context, principalID uuid.UUID, kind ResourceKind, amount int64) (int64, error) {
	if !kind.Valid() {
		return 0, ErrUnknownResource
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	limit, err := t.limitFor(ctx, principalID, kind)
	if err != nil {
		return 0, err
	}
	if limit == 0 {
		return 0, ErrFeatureUnavailable
	}

	now := t.now()
	used, err := t.store.Add(ctx, principalID, kind, kind.PeriodStart(now), amount, limit)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			t.log.InfoContext(ctx, "quota exceeded",
				"principal", principalID, "resource", kind, "limit", limit)
		}
		return 0, err
	}

	if limit == Unlimited {
		return Unlimited, nil
	}
	return limit - used, nil
}

func (t *tracker) Remaining(ctx context.Context, principalID uuid.UUID, kind ResourceKind) (UsageInfo, error) {
	if !kind.Valid() {
		return UsageInfo{}, ErrUnknownResource
	}

	limit, err := t.limitFor(ctx, principalID, kind)
	if err != nil {
		return UsageInfo{}, err
	}

	now := t.now()
	used, err := t.store.Used(ctx, principalID, kind, kind.PeriodStart(now))
	if err != nil {
		return UsageInfo{}, err
	}

	return usageInfo(kind, used, limit, now), nil
}

func (t *tracker) AllUsage(ctx context.Context, principalID uuid.UUID) (map[ResourceKind]UsageInfo, error) {
	tier, err := t.tiers.EffectiveTier(ctx, principalID)
	if err != nil {
		return nil, errors.Join(ErrFailedToResolveTier, err)
	}

	now := t.now()
	result := make(map[ResourceKind]UsageInfo, len(t.limits[tier]))
	for kind, limit := range t.limits[tier] {
		used, err := t.store.Used(ctx, principalID, kind, kind.PeriodStart(now))
		if err != nil {
			return nil, err
		}
		result[kind] = usageInfo(kind, used, limit, now)
	}
	return result, nil
}

func (t *tracker) limitFor(ctx context.Context, principalID uuid.UUID, kind ResourceKind) (int64, error) {
	tier, err := t.tiers.EffectiveTier(ctx, principalID)
	if err != nil {
		return 0, errors.Join(ErrFailedToResolveTier, err)
	}
	return t.limits[tier][kind], nil
}

func usageInfo(kind ResourceKind, used, limit int64, now time.Time) UsageInfo {
	info := UsageInfo{
		Used:        used,
		Limit:       limit,
		PeriodStart: kind.PeriodStart(now),
		PeriodEnd:   kind.PeriodEnd(now),
	}
	switch {
	case limit == Unlimited:
		info.Remaining = Unlimited
	case limit > used:
		info.Remaining = limit - used
	}
	return info
}
