package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

func TestAuthRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	cred := &domain.AuthCredential{
		UserID:       "u1",
		Username:     "a@x.io",
		PasswordHash: "hash",
		AuthType:     domain.AuthTypePersonalEmail,
	}
	require.NoError(t, repos.Auths.Create(ctx, cred))
	require.NotEmpty(t, cred.ID)

	dup := &domain.AuthCredential{UserID: "u2", Username: "a@x.io", AuthType: domain.AuthTypePersonalEmail}
	assert.ErrorIs(t, repos.Auths.Create(ctx, dup), repository.ErrConflict)

	byName, err := repos.Auths.GetByUsername(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, byName.ID)

	expiry := time.Now().Add(time.Hour)
	byName.IssueResetToken("tok", expiry)
	require.NoError(t, repos.Auths.Update(ctx, byName))

	// mutating the returned copy must not leak into the store
	*byName.ResetToken = "changed"

	byUser, err := repos.Auths.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, byUser.ResetToken)
	assert.Equal(t, "tok", *byUser.ResetToken)
	assert.WithinDuration(t, expiry, *byUser.ResetTokenExpiry, time.Millisecond)

	_, err = repos.Auths.GetByUsername(ctx, "missing@x.io")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	missing := &domain.AuthCredential{ID: "nope"}
	assert.ErrorIs(t, repos.Auths.Update(ctx, missing), repository.ErrNotFound)
}

func TestAccountTablesAreSeparate(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	require.NoError(t, repos.Clients.Create(ctx, &domain.Account{ID: "u1", RoleID: domain.RoleClient, Status: domain.AccountStatusActive}))

	_, err := repos.Managers.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	acc, err := repos.Clients.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acc.IsActive())

	assert.ErrorIs(t, repos.Clients.Create(ctx, &domain.Account{ID: "u1"}), repository.ErrConflict)
}

func TestDoRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user := &domain.User{RoleID: domain.RoleSuperAdmin}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := repos.Managers.Create(ctx, &domain.Account{ID: user.ID, RoleID: domain.RoleSuperAdmin}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.users)
	assert.Empty(t, store.managers)
}

func TestDoCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var userID string
	err := store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user := &domain.User{RoleID: domain.RoleClient}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		userID = user.ID
		return repos.Clients.Create(ctx, &domain.Account{ID: user.ID, RoleID: domain.RoleClient})
	})
	require.NoError(t, err)

	_, err = store.Repositories().Clients.GetByID(ctx, userID)
	assert.NoError(t, err)
}

func TestDoKeepsWritesMadeDuringTransaction(t *testing.T) {
	for _, fail := range []bool{false, true} {
		t.Run(map[bool]string{false: "commit", true: "rollback"}[fail], func(t *testing.T) {
			ctx := context.Background()
			store := NewStore()
			repos := store.Repositories()

			started := make(chan struct{})
			release := make(chan struct{})
			txErr := make(chan error, 1)
			go func() {
				txErr <- store.Do(ctx, func(ctx context.Context, tx repository.Repositories) error {
					if err := tx.Users.Create(ctx, &domain.User{ID: "in-tx", RoleID: domain.RoleClient}); err != nil {
						return err
					}
					close(started)
					<-release
					if fail {
						return errors.New("boom")
					}
					return nil
				})
			}()
			<-started

			// uncommitted rows stay invisible
			_, err := repos.Users.GetByID(ctx, "in-tx")
			assert.ErrorIs(t, err, repository.ErrNotFound)

			written := make(chan error, 1)
			go func() {
				written <- repos.Users.Create(ctx, &domain.User{ID: "outside", RoleID: domain.RoleClient})
			}()
			select {
			case <-written:
				t.Fatal("write finished while a transaction was open")
			case <-time.After(50 * time.Millisecond):
			}

			close(release)
			if fail {
				require.Error(t, <-txErr)
			} else {
				require.NoError(t, <-txErr)
			}
			require.NoError(t, <-written)

			_, err = repos.Users.GetByID(ctx, "outside")
			assert.NoError(t, err)
			_, err = repos.Users.GetByID(ctx, "in-tx")
			if fail {
				assert.ErrorIs(t, err, repository.ErrNotFound)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
