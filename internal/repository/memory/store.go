package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// Store keeps every table in process memory. It backs tests and runs
// started without POSTGRES_DSN.
type Store struct {
	// txMu is held by Do for its whole run and by every write outside it,
	// so a transaction never commits over a concurrent write.
	txMu     sync.Mutex
	mu       sync.RWMutex
	auths    map[string]domain.AuthCredential
	users    map[string]domain.User
	clients  map[string]domain.Account
	managers map[string]domain.Account
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		auths:    make(map[string]domain.AuthCredential),
		users:    make(map[string]domain.User),
		clients:  make(map[string]domain.Account),
		managers: make(map[string]domain.Account),
		now:      time.Now,
	}
}

// Repositories exposes the store through the repository contracts.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Auths:    &authRepository{s: s},
		Users:    &userRepository{s: s},
		Clients:  &accountRepository{s: s, table: func(st *Store) map[string]domain.Account { return st.clients }},
		Managers: &accountRepository{s: s, table: func(st *Store) map[string]domain.Account { return st.managers }},
	}
}

// Do runs fn against a private copy of the tables and publishes the copy
// only when fn succeeds. Transactions run one at a time and other writes
// wait for them; reads outside the transaction see the last committed state.
// Repositories captured outside fn must not be used inside it.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	staged := s.stage()
	if err := fn(ctx, staged.Repositories()); err != nil {
		return err
	}

	staged.mu.RLock()
	defer staged.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auths = staged.auths
	s.users = staged.users
	s.clients = staged.clients
	s.managers = staged.managers
	return nil
}

func (s *Store) stage() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Store{
		auths:    copyMap(s.auths),
		users:    copyMap(s.users),
		clients:  copyMap(s.clients),
		managers: copyMap(s.managers),
		now:      s.now,
	}
}

// lock takes the write locks in order and returns the matching unlock.
func (s *Store) lock() func() {
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type authRepository struct {
	s *Store
}

func (r *authRepository) Create(_ context.Context, cred *domain.AuthCredential) error {
	defer r.s.lock()()

	for _, existing := range r.s.auths {
		if existing.Username == cred.Username {
			return repository.ErrConflict
		}
	}
	now := r.s.now()
	cred.ID = uuid.NewString()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	r.s.auths[cred.ID] = cloneCredential(*cred)
	return nil
}

func (r *authRepository) Update(_ context.Context, cred *domain.AuthCredential) error {
	defer r.s.lock()()

	existing, ok := r.s.auths[cred.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.PasswordHash = cred.PasswordHash
	existing.AuthType = cred.AuthType
	existing.ResetToken = cloneString(cred.ResetToken)
	existing.ResetTokenExpiry = cloneTime(cred.ResetTokenExpiry)
	existing.UpdatedAt = r.s.now()
	r.s.auths[cred.ID] = existing
	cred.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *authRepository) GetByID(_ context.Context, id string) (*domain.AuthCredential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cred, ok := r.s.auths[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneCredential(cred)
	return &out, nil
}

func (r *authRepository) GetByUsername(_ context.Context, username string) (*domain.AuthCredential, error) {
	return r.find(func(c domain.AuthCredential) bool { return c.Username == username })
}

func (r *authRepository) GetByUserID(_ context.Context, userID string) (*domain.AuthCredential, error) {
	return r.find(func(c domain.AuthCredential) bool { return c.UserID == userID })
}

func (r *authRepository) find(match func(domain.AuthCredential) bool) (*domain.AuthCredential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *domain.AuthCredential
	for _, cred := range r.s.auths {
		if !match(cred) {
			continue
		}
		if found == nil || cred.CreatedAt.Before(found.CreatedAt) {
			c := cloneCredential(cred)
			found = &c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()

	if user.ID == "" {
		user.ID = uuid.NewString()
	} else if _, exists := r.s.users[user.ID]; exists {
		return repository.ErrConflict
	}
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

type accountRepository struct {
	s     *Store
	table func(*Store) map[string]domain.Account
}

func (r *accountRepository) Create(_ context.Context, account *domain.Account) error {
	defer r.s.lock()()

	rows := r.table(r.s)
	if _, exists := rows[account.ID]; exists {
		return repository.ErrConflict
	}
	now := r.s.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	rows[account.ID] = *account
	return nil
}

func (r *accountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.table(r.s)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func cloneCredential(c domain.AuthCredential) domain.AuthCredential {
	c.ResetToken = cloneString(c.ResetToken)
	c.ResetTokenExpiry = cloneTime(c.ResetTokenExpiry)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
