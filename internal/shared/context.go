package shared

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

type authFailureContextKey struct{}

// ContextWithAuthFailure records that a presented credential could not be
// checked because a dependency failed.
func ContextWithAuthFailure(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authFailureContextKey{}, err)
}

// AuthFailureFromContext returns the error recorded by ContextWithAuthFailure.
func AuthFailureFromContext(ctx context.Context) error {
	err, _ := ctx.Value(authFailureContextKey{}).(error)
	return err
}
