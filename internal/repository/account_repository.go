package repository

import (
	"context"

	"github.com/spec-kit/account-service/internal/domain"
)

// accountRepository serves both profile tables; they share one column layout.
type accountRepository struct {
	db    DBTX
	table string
}

// NewClientRepository returns the Postgres-backed client profile store.
func NewClientRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db, table: "clients"}
}

// NewManagerRepository returns the Postgres-backed manager profile store.
// Super-admins live in the managers table.
func NewManagerRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db, table: "managers"}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
        INSERT INTO ` + r.table + ` (id, role_id, name, email, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`

	return mapError(r.db.QueryRow(ctx, query,
		account.ID,
		account.RoleID,
		account.Name,
		account.Email,
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt))
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
        SELECT id, role_id, name, email, status, created_at, updated_at
        FROM ` + r.table + ` WHERE id=$1`

	var account domain.Account
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.RoleID,
		&account.Name,
		&account.Email,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}
