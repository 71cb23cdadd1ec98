package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a principal's subscription record. Each principal has at
// most one record; PrincipalID is the primary key.
type Subscription struct {
	PrincipalID        uuid.UUID
	Tier               Tier
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	IsComplimentary    bool
	ProviderSubID      string // empty for complimentary grants
	LastEventSeq       int64  // highest billing event sequence applied
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EffectiveAt reports whether the record entitles its tier at the given
// instant: status must be active or trialing and the paid-through period
// must not have lapsed.
func (s *Subscription) EffectiveAt(now time.Time) bool {
	if s == nil || !s.Status.Entitling() {
		return false
	}
	return now.Before(s.CurrentPeriodEnd)
}

// PendingRollover reports whether a deferred cancellation is due: the
// record asked to cancel at period end and the period has lapsed.
func (s *Subscription) PendingRollover(now time.Time) bool {
	if s == nil || !s.CancelAtPeriodEnd || s.Status.Terminal() {
		return false
	}
	return !now.Before(s.CurrentPeriodEnd)
}

// IsActive returns true if the subscription is in active status.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// IsTrialing returns true if the subscription is in trial status.
func (s *Subscription) IsTrialing() bool {
	return s != nil && s.Status == StatusTrialing
}

// DaysRemainingAt returns full days left in the current period at a given
// time, rounding partial days up. Zero once the period has lapsed.
func (s *Subscription) DaysRemainingAt(now time.Time) int {
	if s == nil {
		return 0
	}
	remaining := s.CurrentPeriodEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours()/24 + 0.5)
}
