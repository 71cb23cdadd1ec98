package authn

import "context"

type principalCtxKey struct{}

// SetPrincipalToContext stores the authenticated principal in the context.
func SetPrincipalToContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// GetPrincipalFromContext retrieves the authenticated principal from the context.
func GetPrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok
}
