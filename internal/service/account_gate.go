package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// AccountGate checks that the profile behind a user id exists and is active.
// Each role is routed to the store that holds its profiles; roles without an
// entry are treated as unknown accounts.
type AccountGate struct {
	stores map[domain.Role]repository.AccountRepository
}

// NewAccountGate builds the role lookup table.
func NewAccountGate(clients, managers repository.AccountRepository) *AccountGate {
	return &AccountGate{stores: map[domain.Role]repository.AccountRepository{
		domain.RoleClient:     clients,
		domain.RoleManager:    managers,
		domain.RoleSuperAdmin: managers,
	}}
}

// CheckActive returns the account or ErrAccountNotFound / ErrAccountNotActivated.
func (g *AccountGate) CheckActive(ctx context.Context, userID string, role domain.Role) (*domain.Account, error) {
	store, ok := g.stores[role]
	if !ok || store == nil {
		return nil, domain.ErrAccountNotFound
	}
	account, err := store.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s account: %w", role, err)
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountNotActivated
	}
	return account, nil
}
