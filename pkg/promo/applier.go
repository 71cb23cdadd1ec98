package promo

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/audit"
	"github.com/aidehq/aide/pkg/subscription"
)

// Granter is the lifecycle entry point a successful redemption pays into.
// Satisfied by subscription.Manager.
type Granter interface {
	GrantFromPromo(ctx context.Context, principalID uuid.UUID, tier subscription.Tier, months int, code string) (*subscription.Subscription, error)
}

// Transactor runs a function with both-or-neither semantics. Production
// wiring passes pg.NewTxRunner; the default runs the function directly,
// which is what the in-memory stores want.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Applier validates and redeems promo codes, and carries the back-office
// CRUD surface for them.
type Applier interface {
	// Apply redeems a code for a principal, granting the target tier.
	// Validation order: existence, active flag, validity window,
	// exhaustion, tier applicability; the first failure wins and nothing
	// is mutated. On success the use count, the redemption record and the
	// entitlement grant commit together or not at all.
	Apply(ctx context.Context, code string, principalID uuid.UUID, targetTier subscription.Tier) (*subscription.Subscription, error)

	// Create adds a code. Requires the manage_promo_codes permission.
	Create(ctx context.Context, acting *admin.Record, code *Code) error

	// Update replaces a code's definition. Requires manage_promo_codes.
	Update(ctx context.Context, acting *admin.Record, code *Code) error

	// Deactivate turns a code off without deleting its history.
	Deactivate(ctx context.Context, acting *admin.Record, code string) error

	// List returns all codes for the back-office.
	List(ctx context.Context, acting *admin.Record) ([]Code, error)
}

type applier struct {
	store    Store
	granter  Granter
	auditLog audit.Logger
	tx       Transactor
	log      *slog.Logger
	now      func() time.Time
}

// Option configures an Applier instance.
type Option func(*applier)

// WithTransactor sets the transaction runner for redemptions.
func WithTransactor(tx Transactor) Option {
	return func(a *applier) {
		if tx != nil {
			a.tx = tx
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *applier) {
		if log != nil {
			a.log = log
		}
	}
}

// WithNow overrides the clock for validity-window tests.
func WithNow(now func() time.Time) Option {
	return func(a *applier) {
		if now != nil {
			a.now = now
		}
	}
}

// NewApplier creates an Applier. Store, granter and audit logger are all
// required.
func NewApplier(store Store, granter Granter, auditLog audit.Logger, opts ...Option) Applier {
	if store == nil {
		panic("promo: Store is required")
	}
	if granter == nil {
		panic("promo: Granter is required")
	}
	if auditLog == nil {
		panic("promo: audit.Logger is required")
	}

	a := &applier{
		store:    store,
		granter:  granter,
		auditLog: auditLog,
		tx:       passthroughTransactor{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *applier) Apply(ctx context.Context, code string, principalID uuid.UUID, targetTier subscription.Tier) (*subscription.Subscription, error) {
	record, err := a.store.GetByCode(ctx, Normalize(code))
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, ErrCodeInactive
	}
	if !record.WithinWindow(a.now()) {
		return nil, ErrCodeExpired
	}
	if record.Exhausted() {
		return nil, ErrCodeExhausted
	}
	if !record.AppliesTo(targetTier) {
		return nil, ErrTierNotApplicable
	}

	var sub *subscription.Subscription
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The conditional increment re-checks max_uses inside the
		// transaction; a concurrent redemption at the boundary loses here.
		if err := a.store.Redeem(ctx, &Redemption{
			ID:          uuid.New(),
			CodeID:      record.ID,
			PrincipalID: principalID,
			Tier:        targetTier,
			CreatedAt:   a.now(),
		}); err != nil {
			return err
		}

		var err error
		sub, err = a.granter.GrantFromPromo(ctx, principalID, targetTier, record.GrantMonths, record.Code)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.log.InfoContext(ctx, "promo code redeemed",
		"code", record.Code, "principal", principalID, "tier", targetTier)
	return sub, nil
}

func (a *applier) Create(ctx context.Context, acting *admin.Record, code *Code) error {
	if !acting.HasPermission(admin.PermManagePromoCodes) {
		return ErrForbidden
	}
	if err := code.Validate(); err != nil {
		return err
	}

	now := a.now()
	code.ID = uuid.New()
	code.Code = Normalize(code.Code)
	code.CurrentUses = 0
	code.CreatedAt = now
	code.UpdatedAt = now
	if code.ValidFrom.IsZero() {
		code.ValidFrom = now
	}

	if err := a.store.Create(ctx, code); err != nil {
		return err
	}

	a.audit(ctx, acting, "promo.create", code.Code)
	return nil
}

func (a *applier) Update(ctx context.Context, acting *admin.Record, code *Code) error {
	if !acting.HasPermission(admin.PermManagePromoCodes) {
		return ErrForbidden
	}
	if err := code.Validate(); err != nil {
		return err
	}

	code.Code = Normalize(code.Code)
	code.UpdatedAt = a.now()

	if err := a.store.Update(ctx, code); err != nil {
		return err
	}

	a.audit(ctx, acting, "promo.update", code.Code)
	return nil
}

func (a *applier) Deactivate(ctx context.Context, acting *admin.Record, code string) error {
	if !acting.HasPermission(admin.PermManagePromoCodes) {
		return ErrForbidden
	}

	record, err := a.store.GetByCode(ctx, Normalize(code))
	if err != nil {
		return err
	}
	record.IsActive = false
	record.UpdatedAt = a.now()

	if err := a.store.Update(ctx, record); err != nil {
		return err
	}

	a.audit(ctx, acting, "promo.deactivate", record.Code)
	return nil
}

func (a *applier) List(ctx context.Context, acting *admin.Record) ([]Code, error) {
	if !acting.HasPermission(admin.PermManagePromoCodes) {
		return nil, ErrForbidden
	}
	return a.store.List(ctx)
}

func (a *applier) audit(ctx context.Context, acting *admin.Record, action, code string) {
	if err := a.auditLog.Log(ctx, acting.PrincipalID.String(), action,
		audit.WithResource("promo_code", code),
	); err != nil {
		a.log.ErrorContext(ctx, "failed to write audit event", "action", action, "error", err)
	}
}
