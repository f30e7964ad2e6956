package auth

import (
	"context"

	"fieldlog/internal/core"
)

type contextKey string

const principalKey contextKey = "fieldlog-principal"

// Principal is the authenticated caller.
type Principal struct {
	User string
	Role core.Role
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext retrieves the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}
