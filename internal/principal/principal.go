package principal

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of roles an authenticated actor can hold.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleUser       Role = "user"
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrProvinceMissing = errors.New("manager requires a province")
)

// ParseRole normalizes and validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", ErrUnknownRole
}

// Principal is the authenticated actor every core operation receives
// explicitly. Province is non-empty iff Role is RoleManager.
type Principal struct {
	ID       uuid.UUID
	Username string
	Role     Role
	Province string
}

// New builds a principal, enforcing the role/province pairing: managers must
// carry a province, every other role has it discarded.
func New(id uuid.UUID, username string, role Role, province string) (Principal, error) {
	province = strings.TrimSpace(province)
	if role == RoleManager {
		if province == "" {
			return Principal{}, ErrProvinceMissing
		}
		return Principal{ID: id, Username: username, Role: role, Province: province}, nil
	}
	return Principal{ID: id, Username: username, Role: role}, nil
}

// Scoped reports whether searches by this principal are restricted to a
// single province. Only managers are scoped; super admins and plain users
// see the whole directory.
func (p Principal) Scoped() bool {
	return p.Role == RoleManager && p.Province != ""
}

// CanManageUsers reports whether the principal may create or delete accounts.
func (p Principal) CanManageUsers() bool {
	return p.Role == RoleSuperAdmin
}

// CanViewHistory reports whether the principal may read the audit history.
// Managers see only their own entries; plain users have no history view.
func (p Principal) CanViewHistory() bool {
	return p.Role == RoleSuperAdmin || p.Role == RoleManager
}
