// Package subscription owns the lifecycle of a principal's paid tier, from
// checkout through billing events to cancellation or revocation.
//
// The Manager is the single source of truth for entitlement. Every consumer
// asks EffectiveTier and never inspects Status directly: a record only
// entitles its tier while the status is active or trialing AND the
// paid-through period has not lapsed. A deferred cancellation whose period
// has run out is rolled over to cancelled lazily, on the read that first
// observes it.
//
// Billing events arrive via webhooks and are inherently unordered and
// at-least-once. Each event carries a provider-side Sequence; the store's
// conditional write (SaveSequenced) admits exactly one winner per sequence
// step, so replays and races degrade to logged no-ops rather than state
// corruption.
//
// Status changes are validated against an explicit transition table.
// Cancelled and revoked are terminal; recovery is a fresh checkout or a
// complimentary grant. Grants and revocations are super-admin-only and
// audit-logged with the operator's reason.
package subscription
