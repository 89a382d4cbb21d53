package domain

import "time"

// Role enumerates the account kinds that can authenticate.
type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleManager    Role = "MANAGER"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Roles lists every known role.
var Roles = []Role{RoleClient, RoleManager, RoleSuperAdmin}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// AccountStatus represents the lifecycle state of a client or manager profile.
type AccountStatus string

const (
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusArchived AccountStatus = "ARCHIVED"
)

// User is the account directory row a credential points at.
type User struct {
	ID        string
	RoleID    Role
	CreatedAt time.Time
}

// Account is the client or manager profile whose status gates authentication.
type Account struct {
	ID        string
	RoleID    Role
	Name      string
	Email     string
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the account may authenticate.
func (a *Account) IsActive() bool {
	return a != nil && a.Status == AccountStatusActive
}
