package promo

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/subscription"
)

// DiscountType describes what a code is worth.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed" // smallest currency unit
)

// Code is a redeemable promo code. Codes are stored and matched in
// upper-case; Normalize before lookups.
type Code struct {
	ID            uuid.UUID
	Code          string
	DiscountType  DiscountType
	DiscountValue int64
	// GrantMonths is how long the complimentary entitlement paid for by
	// this code lasts.
	GrantMonths     int
	MaxUses         *int // nil = unlimited
	CurrentUses     int
	ValidFrom       time.Time
	ValidUntil      *time.Time // nil = no end
	ApplicableTiers []subscription.Tier
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Normalize upper-cases and trims a user-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the code has no redemptions left.
func (c *Code) Exhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}

// WithinWindow reports whether now falls inside the validity window.
func (c *Code) WithinWindow(now time.Time) bool {
	if now.Before(c.ValidFrom) {
		return false
	}
	return c.ValidUntil == nil || now.Before(*c.ValidUntil)
}

// AppliesTo reports whether the code can buy the given tier. An empty
// ApplicableTiers set means every paid tier.
func (c *Code) AppliesTo(tier subscription.Tier) bool {
	if !tier.Paid() {
		return false
	}
	return len(c.ApplicableTiers) == 0 || slices.Contains(c.ApplicableTiers, tier)
}

// Validate checks the admin-supplied fields on create and update.
func (c *Code) Validate() error {
	if Normalize(c.Code) == "" {
		return ErrInvalidCode
	}
	switch c.DiscountType {
	case DiscountPercentage:
		if c.DiscountValue <= 0 || c.DiscountValue > 100 {
			return ErrInvalidCode
		}
	case DiscountFixed:
		if c.DiscountValue <= 0 {
			return ErrInvalidCode
		}
	default:
		return ErrInvalidCode
	}
	if c.GrantMonths <= 0 {
		return ErrInvalidCode
	}
	if c.MaxUses != nil && *c.MaxUses <= 0 {
		return ErrInvalidCode
	}
	if c.ValidUntil != nil && !c.ValidUntil.After(c.ValidFrom) {
		return ErrInvalidCode
	}
	for _, tier := range c.ApplicableTiers {
		if !tier.Paid() {
			return ErrInvalidCode
		}
	}
	return nil
}

// Redemption records one successful use of a code.
type Redemption struct {
	ID          uuid.UUID
	CodeID      uuid.UUID
	PrincipalID uuid.UUID
	Tier        subscription.Tier
	CreatedAt   time.Time
}
