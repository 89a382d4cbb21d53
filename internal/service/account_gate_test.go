package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/repository/memory"
)

type brokenAccounts struct {
	repository.AccountRepository
}

func (brokenAccounts) GetByID(context.Context, string) (*domain.Account, error) {
	return nil, errors.New("timeout")
}

func TestAccountGateRoutesByRole(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	gate := NewAccountGate(repos.Clients, repos.Managers)

	require.NoError(t, repos.Clients.Create(ctx, &domain.Account{ID: "c1", RoleID: domain.RoleClient, Status: domain.AccountStatusActive}))
	require.NoError(t, repos.Managers.Create(ctx, &domain.Account{ID: "m1", RoleID: domain.RoleManager, Status: domain.AccountStatusActive}))
	require.NoError(t, repos.Managers.Create(ctx, &domain.Account{ID: "s1", RoleID: domain.RoleSuperAdmin, Status: domain.AccountStatusActive}))
	require.NoError(t, repos.Managers.Create(ctx, &domain.Account{ID: "m2", RoleID: domain.RoleManager, Status: domain.AccountStatusInactive}))

	tests := []struct {
		userID  string
		role    domain.Role
		wantErr error
	}{
		{"c1", domain.RoleClient, nil},
		{"m1", domain.RoleManager, nil},
		{"s1", domain.RoleSuperAdmin, nil},
		{"m2", domain.RoleManager, domain.ErrAccountNotActivated},
		{"c1", domain.RoleManager, domain.ErrAccountNotFound},
		{"m1", domain.RoleClient, domain.ErrAccountNotFound},
		{"c1", domain.Role("AUDITOR"), domain.ErrAccountNotFound},
		{"c1", domain.Role(""), domain.ErrAccountNotFound},
	}
	for _, tt := range tests {
		account, err := gate.CheckActive(ctx, tt.userID, tt.role)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "%s/%s", tt.userID, tt.role)
			assert.Nil(t, account)
			continue
		}
		require.NoError(t, err, "%s/%s", tt.userID, tt.role)
		assert.Equal(t, tt.userID, account.ID)
	}
}

func TestAccountGateStoreFailure(t *testing.T) {
	gate := NewAccountGate(brokenAccounts{}, brokenAccounts{})
	_, err := gate.CheckActive(context.Background(), "c1", domain.RoleClient)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAccountNotFound)
}
