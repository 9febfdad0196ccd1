package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/khmerdata/registry/internal/audit"
	"github.com/khmerdata/registry/internal/auth"
	"github.com/khmerdata/registry/internal/principal"
	"github.com/khmerdata/registry/internal/util"
)

type registryStore interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	ManagerForProvince(ctx context.Context, province string) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, input CreateInput, event audit.Event) (User, error)
	Delete(ctx context.Context, id uuid.UUID, event audit.Event) (User, error)
}

// Service enforces the account invariants: unique usernames, at most one
// manager per province, province present iff the role is manager, and no
// self-deletion. All mutations require a super admin actor and commit their
// audit row atomically with the change.
type Service struct {
	store registryStore
}

func NewService(store registryStore) *Service {
	return &Service{store: store}
}

// List returns every account. Super admin only.
func (s *Service) List(ctx context.Context, actor principal.Principal) ([]User, error) {
	if !actor.CanManageUsers() {
		return nil, ErrUnauthorized
	}
	return s.store.List(ctx)
}

// Create provisions a new account.
func (s *Service) Create(ctx context.Context, actor principal.Principal, username, password, rawRole, province string) (User, error) {
	if !actor.CanManageUsers() {
		return User{}, ErrUnauthorized
	}

	username = strings.TrimSpace(username)
	if err := util.RequireString(username, "username"); err != nil {
		return User{}, err
	}
	if err := util.ValidatePassword(password); err != nil {
		return User{}, err
	}

	role, err := principal.ParseRole(rawRole)
	if err != nil {
		return User{}, err
	}

	province = strings.TrimSpace(province)
	input := CreateInput{Username: username, Role: role}
	if role == principal.RoleManager {
		if province == "" {
			return User{}, ErrProvinceRequired
		}
		input.Province = &province
	}
	// Province supplied for any other role is discarded.

	// Pre-checks give friendly conflict answers; the schema constraints
	// close the remaining race window.
	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	if input.Province != nil {
		holder, err := s.store.ManagerForProvince(ctx, *input.Province)
		if err == nil {
			return User{}, &ProvinceManagedError{Province: *input.Province, Manager: holder.Username}
		}
		if !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return User{}, err
	}
	input.PasswordHash = hash

	details := fmt.Sprintf("Created user: %s (role: %s, province: %s)", username, role, province)
	event := audit.Event{
		UserID:  actor.ID,
		Action:  audit.ActionCreateUser,
		Details: &details,
	}

	return s.store.Create(ctx, input, event)
}

// Delete removes an account. A principal may never delete itself, super
// admin or not.
func (s *Service) Delete(ctx context.Context, actor principal.Principal, targetID uuid.UUID) (User, error) {
	if !actor.CanManageUsers() {
		return User{}, ErrUnauthorized
	}
	if targetID == actor.ID {
		return User{}, ErrSelfDelete
	}

	event := audit.Event{
		UserID: actor.ID,
		Action: audit.ActionDeleteUser,
	}
	return s.store.Delete(ctx, targetID, event)
}
