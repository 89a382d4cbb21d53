package repository

import (
	"context"

	"github.com/spec-kit/account-service/internal/domain"
)

const authColumns = `id, user_id, username, password_hash, auth_type, reset_token, reset_token_expiry, created_at, updated_at`

type authRepository struct {
	db DBTX
}

// NewAuthRepository returns a Postgres-backed implementation.
func NewAuthRepository(db DBTX) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) Create(ctx context.Context, cred *domain.AuthCredential) error {
	const query = `
        INSERT INTO auths (user_id, username, password_hash, auth_type, reset_token, reset_token_expiry)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cred.UserID,
		cred.Username,
		cred.PasswordHash,
		cred.AuthType,
		cred.ResetToken,
		cred.ResetTokenExpiry,
	).Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	return mapError(err)
}

// Update writes the password and reset-token columns in a single statement,
// so a password change and the token clear commit together.
func (r *authRepository) Update(ctx context.Context, cred *domain.AuthCredential) error {
	const query = `
        UPDATE auths
        SET password_hash=$1, auth_type=$2, reset_token=$3, reset_token_expiry=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		cred.PasswordHash,
		cred.AuthType,
		cred.ResetToken,
		cred.ResetTokenExpiry,
		cred.ID,
	).Scan(&cred.UpdatedAt)
	return mapError(err)
}

func (r *authRepository) GetByID(ctx context.Context, id string) (*domain.AuthCredential, error) {
	return r.getOne(ctx, `SELECT `+authColumns+` FROM auths WHERE id=$1`, id)
}

func (r *authRepository) GetByUsername(ctx context.Context, username string) (*domain.AuthCredential, error) {
	return r.getOne(ctx, `SELECT `+authColumns+` FROM auths WHERE username=$1`, username)
}

func (r *authRepository) GetByUserID(ctx context.Context, userID string) (*domain.AuthCredential, error) {
	return r.getOne(ctx, `SELECT `+authColumns+` FROM auths WHERE user_id=$1 ORDER BY created_at LIMIT 1`, userID)
}

func (r *authRepository) getOne(ctx context.Context, query string, arg string) (*domain.AuthCredential, error) {
	var cred domain.AuthCredential
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Username,
		&cred.PasswordHash,
		&cred.AuthType,
		&cred.ResetToken,
		&cred.ResetTokenExpiry,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &cred, nil
}
