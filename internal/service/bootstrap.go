package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// EnsureSuperAdmin creates the configured super-admin when its username is
// free. The user, manager profile and credential commit together. It reports
// whether an account was created.
func EnsureSuperAdmin(ctx context.Context, uow repository.UnitOfWork, hasher *auth.Hasher, cfg config.BootstrapConfig, logger *zap.Logger) (bool, error) {
	email := NormalizeEmail(cfg.SuperAdminEmail)
	if email == "" {
		return false, nil
	}

	hash, err := hasher.Hash(cfg.SuperAdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}

	created := false
	err = uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Auths.GetByUsername(ctx, email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		user := &domain.User{RoleID: domain.RoleSuperAdmin}
		if err := repos.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := repos.Managers.Create(ctx, &domain.Account{
			ID:     user.ID,
			RoleID: domain.RoleSuperAdmin,
			Name:   cfg.SuperAdminName,
			Email:  email,
			Status: domain.AccountStatusActive,
		}); err != nil {
			return fmt.Errorf("create manager: %w", err)
		}
		if err := repos.Auths.Create(ctx, &domain.AuthCredential{
			UserID:       user.ID,
			Username:     email,
			PasswordHash: hash,
			AuthType:     domain.AuthTypePersonalEmail,
		}); err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		created = true
		return nil
	})
	if errors.Is(err, repository.ErrConflict) {
		logger.Info("super-admin created concurrently, skipping", zap.String("email", email))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if created {
		logger.Info("super-admin bootstrapped", zap.String("email", email))
	}
	return created, nil
}
