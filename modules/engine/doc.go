// Package engine exposes the authorization and entitlement services over a
// JSON HTTP API.
//
// The module owns no business rules: it authenticates the caller through the
// session cache, resolves admin standing where a route demands it, delegates
// to the domain services, and maps their sentinel errors onto the HTTP
// status taxonomy. Everything behind /admin is double-gated: a valid bearer
// credential first, then an admin record with the route's permission.
package engine
