package quota

import (
	"time"

	"github.com/aidehq/aide/pkg/subscription"
)

// ResourceKind identifies a metered resource. Each kind carries its own
// reset cadence.
type ResourceKind string

const (
	// ResourceChatMessages resets daily.
	ResourceChatMessages ResourceKind = "chat_messages"
	// ResourceExports resets monthly.
	ResourceExports ResourceKind = "exports"
)

// Unlimited indicates no ceiling for a resource (-1 for SQL compatibility).
const Unlimited int64 = -1

// periods maps each kind to its reset cadence.
var periods = map[ResourceKind]period{
	ResourceChatMessages: periodDaily,
	ResourceExports:      periodMonthly,
}

// Valid reports whether the kind is one of the metered resources.
func (k ResourceKind) Valid() bool {
	_, ok := periods[k]
	return ok
}

type period int

const (
	periodDaily period = iota
	periodMonthly
)

// PeriodStart returns the UTC open-period boundary containing now: midnight
// for daily kinds, first of the month for monthly ones. Usage rows are
// keyed on this value, so rollover is just a new key.
func (k ResourceKind) PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	switch periods[k] {
	case periodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// PeriodEnd returns the instant the current period lapses.
func (k ResourceKind) PeriodEnd(now time.Time) time.Time {
	start := k.PeriodStart(now)
	if periods[k] == periodMonthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}

// Limits maps tiers to per-resource ceilings. A limit of 0 means the
// feature is not available on the tier at all, which surfaces as
// ErrFeatureUnavailable rather than ErrQuotaExceeded.
type Limits map[subscription.Tier]map[ResourceKind]int64

// DefaultLimits is the shipped tier matrix.
var DefaultLimits = Limits{
	subscription.TierFree: {
		ResourceChatMessages: 20,
		ResourceExports:      0,
	},
	subscription.TierBasic: {
		ResourceChatMessages: 200,
		ResourceExports:      10,
	},
	subscription.TierPlus: {
		ResourceChatMessages: 1000,
		ResourceExports:      50,
	},
	subscription.TierPremium: {
		ResourceChatMessages: Unlimited,
		ResourceExports:      Unlimited,
	},
}

// UsageInfo is a dashboard-facing snapshot of one resource's quota state.
type UsageInfo struct {
	Used        int64     `json:"used"`
	Limit       int64     `json:"limit"` // -1 unlimited, 0 unavailable
	Remaining   int64     `json:"remaining"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}
