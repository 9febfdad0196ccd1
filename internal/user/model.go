package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khmerdata/registry/internal/principal"
)

var (
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when the username already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrProvinceRequired is returned when a manager is created without a province.
	ErrProvinceRequired = errors.New("province is required for managers")
	// ErrSelfDelete is returned when a principal tries to delete its own account.
	ErrSelfDelete = errors.New("cannot delete yourself")
	// ErrUnauthorized is returned when the actor is not a super admin.
	ErrUnauthorized = errors.New("super admin access required")
)

// ProvinceManagedError reports that a province already has an active
// manager, naming the conflicting account.
type ProvinceManagedError struct {
	Province string
	Manager  string
}

func (e *ProvinceManagedError) Error() string {
	return fmt.Sprintf("province %s already has a manager: %s", e.Province, e.Manager)
}

// User is one account row. Province is set only for managers.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Role         principal.Role `json:"role"`
	Province     *string        `json:"province,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Principal converts the account into the explicit actor value the core
// operations take.
func (u User) Principal() principal.Principal {
	province := ""
	if u.Province != nil {
		province = *u.Province
	}
	p, err := principal.New(u.ID, u.Username, u.Role, province)
	if err != nil {
		// The storage constraints guarantee the role/province pairing; a
		// violation here means a corrupted row, so fall back to the least
		// privileged shape.
		return principal.Principal{ID: u.ID, Username: u.Username, Role: principal.RoleUser}
	}
	return p
}

// CreateInput carries the validated fields for a new account.
type CreateInput struct {
	Username     string
	PasswordHash string
	Role         principal.Role
	Province     *string
}
