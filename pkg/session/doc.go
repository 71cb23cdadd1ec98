// Package session caches verified principals for a short TTL so that hot
// request paths do not hit the identity provider on every call.
//
// The cache is keyed by a SHA-256 digest of the bearer credential; raw
// tokens are never stored. A cache miss or any store error falls through to
// the authenticator, so a degraded Redis only costs latency, never
// correctness. Logout invalidates both the single credential and, when the
// provider signals it, every cached session of the principal.
package session
