package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/audit"
)

// Manager is the single source of truth for what a principal is entitled
// to. Callers never inspect Status themselves; they ask EffectiveTier.
type Manager interface {
	// Get retrieves the raw subscription record.
	Get(ctx context.Context, principalID uuid.UUID) (*Subscription, error)

	// EffectiveTier resolves the tier a principal is entitled to right now.
	// Free when no record exists, the status is not entitling, or the paid
	// period has lapsed. Never returns ErrSubscriptionNotFound.
	EffectiveTier(ctx context.Context, principalID uuid.UUID) (Tier, error)

	// ApplyWebhookEvent applies a normalized billing event. Replayed or
	// out-of-order events (Sequence at or below the record's LastEventSeq)
	// are logged no-ops returning nil.
	ApplyWebhookEvent(ctx context.Context, ev *WebhookEvent) error

	// HandleWebhook verifies, parses and applies a raw provider payload.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// Checkout creates a hosted checkout session for a paid tier.
	Checkout(ctx context.Context, principalID uuid.UUID, tier Tier, opts CheckoutOptions) (*CheckoutLink, error)

	// CustomerPortalLink returns the provider's self-service portal link.
	CustomerPortalLink(ctx context.Context, principalID uuid.UUID) (*PortalLink, error)

	// Cancel cancels the principal's subscription. Deferred cancellation
	// sets CancelAtPeriodEnd and keeps the tier until the period lapses;
	// immediate cancellation transitions right away.
	Cancel(ctx context.Context, principalID uuid.UUID, immediate bool) error

	// Grant creates a complimentary subscription. Super-admin only.
	Grant(ctx context.Context, acting *admin.Record, principalID uuid.UUID, tier Tier, months int, reason string) (*Subscription, error)

	// GrantFromPromo creates a complimentary subscription paid for by a
	// redeemed promo code. Called by the promo applier inside the
	// redemption's transaction, never directly by users or admins.
	GrantFromPromo(ctx context.Context, principalID uuid.UUID, tier Tier, months int, code string) (*Subscription, error)

	// Revoke kills a subscription immediately. Super-admin only.
	Revoke(ctx context.Context, acting *admin.Record, principalID uuid.UUID, reason string) error

	// List returns all subscription records for the back-office.
	List(ctx context.Context) ([]Subscription, error)
}

type manager struct {
	store    Store
	provider BillingProvider
	auditLog audit.Logger
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Manager instance.
type Option func(*manager)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithNow overrides the clock. Tests use this to exercise period rollover
// with fixed time values.
func WithNow(now func() time.Time) Option {
	return func(m *manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager. Store, provider and audit logger are all
// required; entitlement changes without an audit trail must not start.
func NewManager(store Store, provider BillingProvider, auditLog audit.Logger, opts ...Option) Manager {
	if store == nil {
		panic("subscription: Store is required")
	}
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if auditLog == nil {
		panic("subscription: audit.Logger is required")
	}

	m := &manager{
		store:    store,
		provider: provider,
		auditLog: auditLog,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) Get(ctx context.Context, principalID uuid.UUID) (*Subscription, error) {
	return m.store.Get(ctx, principalID)
}

func (m *manager) EffectiveTier(ctx context.Context, principalID uuid.UUID) (Tier, error) {
	sub, err := m.store.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return TierFree, nil
		}
		return TierFree, err
	}

	now := m.now()
	if sub.PendingRollover(now) {
		m.rollover(ctx, sub, now)
		return TierFree, nil
	}
	if !sub.EffectiveAt(now) {
		return TierFree, nil
	}
	return sub.Tier, nil
}

// rollover persists the deferred cancellation on read. Losing the write to
// a concurrent event is fine, the winner carries newer state.
func (m *manager) rollover(ctx context.Context, sub *Subscription, now time.Time) {
	updated := *sub
	updated.Status = StatusCancelled
	updated.UpdatedAt = now

	if err := m.store.SaveSequenced(ctx, &updated, sub.LastEventSeq); err != nil && !errors.Is(err, ErrStaleEvent) {
		m.log.ErrorContext(ctx, "failed to persist period rollover",
			"principal", sub.PrincipalID, "error", err)
		return
	}
	m.log.InfoContext(ctx, "subscription rolled over to cancelled",
		"principal", sub.PrincipalID, "tier", sub.Tier)
}

func (m *manager) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := m.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	return m.ApplyWebhookEvent(ctx, ev)
}

func (m *manager) ApplyWebhookEvent(ctx context.Context, ev *WebhookEvent) error {
	principalID, err := uuid.Parse(ev.PrincipalID)
	if err != nil {
		return errors.Join(ErrInvalidPrincipalID, err)
	}

	switch ev.Type {
	case EventSubscriptionCreated:
		return m.applyCreated(ctx, principalID, ev)
	case EventSubscriptionUpdated, EventSubscriptionCancelled, EventPaymentSucceeded, EventPaymentFailed:
		return m.applyUpdate(ctx, principalID, ev)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventType, ev.Type)
	}
}

func (m *manager) applyCreated(ctx context.Context, principalID uuid.UUID, ev *WebhookEvent) error {
	status := ev.Status
	if status == "" {
		status = StatusActive
	}
	switch status {
	case StatusActive, StatusTrialing, StatusIncomplete:
	default:
		return fmt.Errorf("%w: created event with status %s", ErrInvalidTransition, status)
	}

	var expectedSeq int64
	existing, err := m.store.Get(ctx, principalID)
	switch {
	case err == nil:
		if ev.Sequence <= existing.LastEventSeq {
			m.logReplay(ctx, principalID, ev, existing.LastEventSeq)
			return nil
		}
		expectedSeq = existing.LastEventSeq
	case errors.Is(err, ErrSubscriptionNotFound):
		expectedSeq = 0
	default:
		return err
	}

	now := m.now()
	sub := &Subscription{
		PrincipalID:        principalID,
		Tier:               ev.Tier,
		Status:             status,
		CurrentPeriodStart: ev.PeriodStart,
		CurrentPeriodEnd:   ev.PeriodEnd,
		ProviderSubID:      ev.SubscriptionID,
		LastEventSeq:       ev.Sequence,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if existing != nil {
		sub.CreatedAt = existing.CreatedAt
	}

	if err := m.store.SaveSequenced(ctx, sub, expectedSeq); err != nil {
		if errors.Is(err, ErrStaleEvent) {
			m.logReplay(ctx, principalID, ev, expectedSeq)
			return nil
		}
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	m.log.InfoContext(ctx, "subscription created",
		"principal", principalID, "tier", sub.Tier, "status", sub.Status, "seq", ev.Sequence)
	return nil
}

func (m *manager) applyUpdate(ctx context.Context, principalID uuid.UUID, ev *WebhookEvent) error {
	sub, err := m.store.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return fmt.Errorf("%w: %s event for principal %s", ErrSubscriptionNotFound, ev.Type, principalID)
		}
		return err
	}

	if ev.Sequence <= sub.LastEventSeq {
		m.logReplay(ctx, principalID, ev, sub.LastEventSeq)
		return nil
	}

	updated := *sub
	switch ev.Type {
	case EventPaymentFailed:
		updated.Status = StatusPastDue
	case EventPaymentSucceeded:
		updated.Status = StatusActive
	case EventSubscriptionCancelled:
		updated.Status = StatusCancelled
	case EventSubscriptionUpdated:
		if ev.Status != "" {
			updated.Status = ev.Status
		}
		if ev.Tier != "" {
			updated.Tier = ev.Tier
		}
	}
	if !ev.PeriodStart.IsZero() {
		updated.CurrentPeriodStart = ev.PeriodStart
	}
	if !ev.PeriodEnd.IsZero() {
		updated.CurrentPeriodEnd = ev.PeriodEnd
	}

	if !sub.Status.CanTransitionTo(updated.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, updated.Status)
	}

	updated.LastEventSeq = ev.Sequence
	updated.UpdatedAt = m.now()

	if err := m.store.SaveSequenced(ctx, &updated, sub.LastEventSeq); err != nil {
		if errors.Is(err, ErrStaleEvent) {
			m.logReplay(ctx, principalID, ev, sub.LastEventSeq)
			return nil
		}
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	m.log.InfoContext(ctx, "subscription updated",
		"principal", principalID, "event", ev.Type, "status", updated.Status, "seq", ev.Sequence)
	return nil
}

func (m *manager) logReplay(ctx context.Context, principalID uuid.UUID, ev *WebhookEvent, lastSeq int64) {
	m.log.InfoContext(ctx, "ignoring replayed billing event",
		"principal", principalID, "event", ev.Type, "seq", ev.Sequence, "last_seq", lastSeq)
}

func (m *manager) Checkout(ctx context.Context, principalID uuid.UUID, tier Tier, opts CheckoutOptions) (*CheckoutLink, error) {
	if !tier.Paid() {
		return nil, fmt.Errorf("%w: checkout requires a paid tier, got %q", ErrInvalidTier, tier)
	}

	// A principal with a live entitlement must go through the portal to
	// change plans, not through a second checkout.
	sub, err := m.store.Get(ctx, principalID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}
	if sub.EffectiveAt(m.now()) {
		return nil, ErrSubscriptionAlreadyExists
	}

	return m.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		Tier:        tier,
		PrincipalID: principalID.String(),
		Email:       opts.Email,
		SuccessURL:  opts.SuccessURL,
		CancelURL:   opts.CancelURL,
	})
}

func (m *manager) CustomerPortalLink(ctx context.Context, principalID uuid.UUID) (*PortalLink, error) {
	sub, err := m.store.Get(ctx, principalID)
	if err != nil {
		return nil, err
	}
	// Complimentary grants have nothing to manage at the provider.
	if sub.ProviderSubID == "" {
		return nil, ErrNoProviderSubscription
	}
	return m.provider.GetCustomerPortalLink(ctx, sub)
}

func (m *manager) Cancel(ctx context.Context, principalID uuid.UUID, immediate bool) error {
	sub, err := m.store.Get(ctx, principalID)
	if err != nil {
		return err
	}
	if sub.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, StatusCancelled)
	}

	now := m.now()
	if immediate {
		sub.Status = StatusCancelled
	} else {
		sub.CancelAtPeriodEnd = true
	}
	sub.UpdatedAt = now

	if err := m.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	m.log.InfoContext(ctx, "subscription cancelled",
		"principal", principalID, "immediate", immediate)
	return nil
}

func (m *manager) Grant(ctx context.Context, acting *admin.Record, principalID uuid.UUID, tier Tier, months int, reason string) (*Subscription, error) {
	// Entitlement grants are not delegable through the permission map.
	if !acting.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	if !tier.Paid() {
		return nil, fmt.Errorf("%w: complimentary grant requires a paid tier, got %q", ErrInvalidTier, tier)
	}
	if months <= 0 {
		return nil, ErrInvalidGrantPeriod
	}

	now := m.now()
	sub := &Subscription{
		PrincipalID:        principalID,
		Tier:               tier,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, months, 0),
		IsComplimentary:    true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// Re-granting over an existing record replaces it but keeps its
	// creation time and event cursor.
	if existing, err := m.store.Get(ctx, principalID); err == nil {
		sub.CreatedAt = existing.CreatedAt
		sub.LastEventSeq = existing.LastEventSeq
	}

	if err := m.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save complimentary subscription: %w", err)
	}

	m.log.InfoContext(ctx, "complimentary subscription granted",
		"actor", acting.PrincipalID, "principal", principalID, "tier", tier, "months", months)
	if err := m.auditLog.Log(ctx, acting.PrincipalID.String(), "subscription.grant",
		audit.WithTarget(principalID.String()),
		audit.WithResource("subscription", principalID.String()),
		audit.WithReason(reason),
		audit.WithMetadata("tier", string(tier)),
		audit.WithMetadata("months", months),
	); err != nil {
		m.log.ErrorContext(ctx, "failed to write audit event", "action", "subscription.grant", "error", err)
	}

	return sub, nil
}

func (m *manager) GrantFromPromo(ctx context.Context, principalID uuid.UUID, tier Tier, months int, code string) (*Subscription, error) {
	if !tier.Paid() {
		return nil, fmt.Errorf("%w: promo grant requires a paid tier, got %q", ErrInvalidTier, tier)
	}
	if months <= 0 {
		return nil, ErrInvalidGrantPeriod
	}

	now := m.now()
	sub := &Subscription{
		PrincipalID:        principalID,
		Tier:               tier,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, months, 0),
		IsComplimentary:    true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if existing, err := m.store.Get(ctx, principalID); err == nil {
		sub.CreatedAt = existing.CreatedAt
		sub.LastEventSeq = existing.LastEventSeq
	}

	if err := m.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save promo subscription: %w", err)
	}

	m.log.InfoContext(ctx, "promo subscription granted",
		"principal", principalID, "tier", tier, "months", months, "code", code)
	if err := m.auditLog.Log(ctx, principalID.String(), "subscription.promo_grant",
		audit.WithResource("subscription", principalID.String()),
		audit.WithMetadata("tier", string(tier)),
		audit.WithMetadata("months", months),
		audit.WithMetadata("code", code),
	); err != nil {
		m.log.ErrorContext(ctx, "failed to write audit event", "action", "subscription.promo_grant", "error", err)
	}

	return sub, nil
}

func (m *manager) Revoke(ctx context.Context, acting *admin.Record, principalID uuid.UUID, reason string) error {
	if !acting.IsSuperAdmin() {
		return ErrForbidden
	}

	sub, err := m.store.Get(ctx, principalID)
	if err != nil {
		return err
	}

	// Revocation is immediate and unconditional. Revoked is reachable from
	// every state, including cancelled.
	sub.Status = StatusRevoked
	sub.CancelAtPeriodEnd = false
	sub.UpdatedAt = m.now()

	if err := m.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to revoke subscription: %w", err)
	}

	m.log.InfoContext(ctx, "subscription revoked",
		"actor", acting.PrincipalID, "principal", principalID)
	if err := m.auditLog.Log(ctx, acting.PrincipalID.String(), "subscription.revoke",
		audit.WithTarget(principalID.String()),
		audit.WithResource("subscription", principalID.String()),
		audit.WithReason(reason),
		audit.WithMetadata("tier", string(sub.Tier)),
	); err != nil {
		m.log.ErrorContext(ctx, "failed to write audit event", "action", "subscription.revoke", "error", err)
	}

	return nil
}

func (m *manager) List(ctx context.Context) ([]Subscription, error) {
	return m.store.List(ctx)
}
