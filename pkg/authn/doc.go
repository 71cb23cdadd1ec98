// Package authn verifies bearer credentials against the identity provider
// and resolves them to a Principal.
//
// The package holds no role or tier knowledge: it answers "who is this"
// and nothing else. Credentials are re-verified on every call; short-lived
// caching of the result is the session package's responsibility so that a
// provider-side revoke is honored at the next session start.
//
// Failure modes are deliberately split in two: a rejected credential is
// ErrUnauthenticated, an unreachable provider is ErrServiceUnavailable.
// Callers must never present an infrastructure outage as "not logged in".
package authn
