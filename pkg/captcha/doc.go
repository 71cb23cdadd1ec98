// Package captcha verifies challenge tokens with an external provider.
//
// The verifier is a stateless pass-through: it answers whether the token is
// valid, optionally with a risk score, and keeps no state of its own. When
// the provider cannot be reached the error surfaces to the caller; an
// unreachable captcha service never counts as a passed challenge.
package captcha
