package repository

import (
	"context"

	"github.com/spec-kit/account-service/internal/domain"
)

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (role_id)
        VALUES ($1)
        RETURNING id, created_at`

	return mapError(r.db.QueryRow(ctx, query, user.RoleID).Scan(&user.ID, &user.CreatedAt))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, role_id, created_at FROM users WHERE id=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.RoleID, &user.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}
