package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("record already exists")
)

const uniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AuthRepository persists login credentials.
type AuthRepository interface {
	Create(ctx context.Context, cred *domain.AuthCredential) error
	Update(ctx context.Context, cred *domain.AuthCredential) error
	GetByID(ctx context.Context, id string) (*domain.AuthCredential, error)
	GetByUsername(ctx context.Context, username string) (*domain.AuthCredential, error)
	GetByUserID(ctx context.Context, userID string) (*domain.AuthCredential, error)
}

// UserRepository persists the account directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AccountRepository persists client or manager profiles.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// Repositories groups the stores a use case may touch.
type Repositories struct {
	Auths    AuthRepository
	Users    UserRepository
	Clients  AccountRepository
	Managers AccountRepository
}

// UnitOfWork runs fn against repositories that commit or roll back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// NewRepositories builds Postgres repositories on db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Auths:    NewAuthRepository(db),
		Users:    NewUserRepository(db),
		Clients:  NewClientRepository(db),
		Managers: NewManagerRepository(db),
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}
