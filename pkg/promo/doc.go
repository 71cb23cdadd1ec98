// Package promo validates and redeems promotional codes against the
// subscription lifecycle.
//
// Redemption validates in a fixed order (existence, active flag, validity
// window, exhaustion, tier applicability) and fails on the first miss
// without mutating anything. A successful redemption consumes one use,
// records who redeemed what, and grants the entitlement, all inside one
// transaction: a code is never consumed without its grant and a grant
// never lands without its consumption. The max_uses cap is enforced by a
// conditional increment at the store, so two concurrent redemptions of the
// last use produce exactly one success and one ErrCodeExhausted.
//
// Code management (create, update, deactivate, list) is an admin surface
// gated on the manage_promo_codes permission and audit-logged. Codes are
// deactivated rather than deleted so redemption history stays intact.
package promo
