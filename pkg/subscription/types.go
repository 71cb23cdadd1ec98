package subscription

import "time"

// Tier identifies a subscription level. Tiers are ordered: each paid tier
// includes everything below it.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPlus    Tier = "plus"
	TierPremium Tier = "premium"
)

var tierRank = map[Tier]int{
	TierFree:    0,
	TierBasic:   1,
	TierPlus:    2,
	TierPremium: 3,
}

// Valid reports whether the tier is one of the defined set.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Paid reports whether the tier requires a subscription record.
func (t Tier) Paid() bool {
	return t.Valid() && t != TierFree
}

// AtLeast reports whether the tier includes everything other grants.
func (t Tier) AtLeast(other Tier) bool {
	return tierRank[t] >= tierRank[other]
}

// Status represents the lifecycle state of a subscription record.
type Status string

const (
	StatusActive     Status = "active"
	StatusTrialing   Status = "trialing"
	StatusPastDue    Status = "past_due"
	StatusIncomplete Status = "incomplete"
	StatusCancelled  Status = "cancelled"
	StatusRevoked    Status = "revoked"
)

// transitions lists the allowed status changes. Same-status writes are
// always allowed (period and tier refreshes keep the status). Revoked is
// reachable from every state; cancelled and revoked accept nothing else,
// recovery goes through a fresh checkout or grant.
var transitions = map[Status][]Status{
	StatusActive:     {StatusPastDue, StatusCancelled, StatusRevoked},
	StatusTrialing:   {StatusActive, StatusPastDue, StatusCancelled, StatusRevoked},
	StatusPastDue:    {StatusActive, StatusCancelled, StatusRevoked},
	StatusIncomplete: {StatusActive, StatusCancelled, StatusRevoked},
	StatusCancelled:  {StatusRevoked},
	StatusRevoked:    {},
}

// CanTransitionTo reports whether the lifecycle table allows moving from
// the current status to the target.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Entitling reports whether the status grants paid-tier access, period
// bounds permitting.
func (s Status) Entitling() bool {
	return s == StatusActive || s == StatusTrialing
}

// Terminal reports whether the record is dead and only re-creation applies.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusRevoked
}

// EventType represents a normalized billing event. Each provider adapter
// maps its own event names onto these.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventPaymentSucceeded      EventType = "payment_succeeded"
	EventPaymentFailed         EventType = "payment_failed"
)

// WebhookEvent is a normalized billing event from the provider. Sequence is
// a provider-side monotonic ordering value; events at or below a record's
// LastEventSeq are replays and must be ignored.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider's subscription ID
	PrincipalID    string // our principal ID, carried in provider custom data
	Status         Status
	Tier           Tier
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Sequence       int64
	Raw            map[string]any
}

// CheckoutOptions contains options for creating a checkout session.
type CheckoutOptions struct {
	Email      string // pre-fill billing email if known
	SuccessURL string // redirect after successful payment
	CancelURL  string // redirect if the customer backs out
}
