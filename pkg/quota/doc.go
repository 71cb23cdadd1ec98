// Package quota meters resource consumption against per-tier ceilings.
//
// Usage is tracked in calendar periods computed in UTC: chat messages reset
// daily, exports monthly. Rollover is lazy; the first consumption after a
// boundary opens a fresh counter row and old rows are kept for reporting.
//
// The ceiling is enforced at the store, not in application code: Add is a
// single atomic increment-with-ceiling, so concurrent consumers racing for
// the last units of quota admit exactly as many as the limit allows and
// nothing is ever partially consumed.
//
// A limit of zero means the tier has no access to the resource at all
// (ErrFeatureUnavailable), which callers present differently from a quota
// that was used up (ErrQuotaExceeded). A limit of -1 is unmetered.
package quota
