package auth

import (
	"context"

	"github.com/spec-kit/account-service/internal/domain"
)

// IdentityResolver turns a raw bearer token into the caller's identity.
type IdentityResolver interface {
	GetUserAuthByToken(ctx context.Context, token string) (*domain.Identity, error)
}

// Gate authorizes callers for HTTP routes and socket connections alike.
type Gate struct {
	resolver IdentityResolver
}

// NewGate constructs a gate.
func NewGate(resolver IdentityResolver) *Gate {
	return &Gate{resolver: resolver}
}

// Authorize resolves token and enforces the allow-list. An empty allow-list admits any role.
func (g *Gate) Authorize(ctx context.Context, token string, allowed ...domain.Role) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	identity, err := g.resolver.GetUserAuthByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !identity.HasRole(allowed...) {
		return nil, domain.ErrAccessDenied
	}
	return identity, nil
}
