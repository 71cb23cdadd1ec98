// Package audit records who did what to whom for every administrative and
// financial action in the engine: admin grants and revokes, complimentary
// subscription grants, subscription revocations, and promo code management.
//
// Events are written synchronously through a Storage implementation so a
// successful mutation is never observable without its audit record. The
// memory store backs tests; the postgres store is the production trail.
package audit
