package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/khmerdata/registry/internal/audit"
	"github.com/khmerdata/registry/internal/principal"
)

type stubStore struct {
	users        map[string]User
	byID         map[uuid.UUID]User
	created      []CreateInput
	createEvents []audit.Event
	deleteEvents []audit.Event
}

func newStubStore() *stubStore {
	return &stubStore{users: map[string]User{}, byID: map[uuid.UUID]User{}}
}

func (s *stubStore) add(u User) {
	s.users[u.Username] = u
	s.byID[u.ID] = u
}

func (s *stubStore) GetByUsername(_ context.Context, username string) (User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (s *stubStore) ManagerForProvince(_ context.Context, province string) (User, error) {
	for _, u := range s.users {
		if u.Role == principal.RoleManager && u.Province != nil && *u.Province == province {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *stubStore) List(_ context.Context) ([]User, error) {
	var all []User
	for _, u := range s.users {
		all = append(all, u)
	}
	return all, nil
}

func (s *stubStore) Create(_ context.Context, input CreateInput, event audit.Event) (User, error) {
	s.created = append(s.created, input)
	s.createEvents = append(s.createEvents, event)
	u := User{ID: uuid.New(), Username: input.Username, PasswordHash: input.PasswordHash, Role: input.Role, Province: input.Province}
	s.add(u)
	return u, nil
}

func (s *stubStore) Delete(_ context.Context, id uuid.UUID, event audit.Event) (User, error) {
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	s.deleteEvents = append(s.deleteEvents, event)
	delete(s.byID, id)
	delete(s.users, u.Username)
	return u, nil
}

func superAdmin() principal.Principal {
	return principal.Principal{ID: uuid.New(), Username: "admin", Role: principal.RoleSuperAdmin}
}

func TestCreateRequiresSuperAdmin(t *testing.T) {
	svc := NewService(newStubStore())

	actor := principal.Principal{ID: uuid.New(), Username: "kampot", Role: principal.RoleManager, Province: "Kampot"}
	if _, err := svc.Create(context.Background(), actor, "u1", "password1", "user", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	store := newStubStore()
	store.add(User{ID: uuid.New(), Username: "sok"})
	svc := NewService(store)

	if _, err := svc.Create(context.Background(), superAdmin(), "sok", "password1", "user", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestCreateManagerWithoutProvince(t *testing.T) {
	svc := NewService(newStubStore())

	if _, err := svc.Create(context.Background(), superAdmin(), "m1", "password1", "manager", "  "); !errors.Is(err, ErrProvinceRequired) {
		t.Fatalf("expected ErrProvinceRequired, got %v", err)
	}
}

func TestCreateSecondManagerForProvinceNamesConflict(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)
	ctx := context.Background()
	actor := superAdmin()

	if _, err := svc.Create(ctx, actor, "m1", "password1", "manager", "Pursat"); err != nil {
		t.Fatalf("first manager: %v", err)
	}

	_, err := svc.Create(ctx, actor, "m2", "password1", "manager", "Pursat")
	var conflict *ProvinceManagedError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ProvinceManagedError, got %v", err)
	}
	if conflict.Manager != "m1" || conflict.Province != "Pursat" {
		t.Fatalf("conflict must name the existing manager, got %+v", conflict)
	}
}

func TestCreateDiscardsProvinceForNonManagers(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	u, err := svc.Create(context.Background(), superAdmin(), "u1", "password1", "user", "Kampot")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Province != nil {
		t.Fatalf("province must be discarded for non-managers, got %q", *u.Province)
	}
}

func TestCreateHashesPasswordAndAuditsOnce(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)
	actor := superAdmin()

	if _, err := svc.Create(context.Background(), actor, "m1", "password1", "manager", "Kampot"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.created))
	}
	if store.created[0].PasswordHash == "password1" || !strings.HasPrefix(store.created[0].PasswordHash, "$argon2id$") {
		t.Fatalf("password must be stored hashed, got %q", store.created[0].PasswordHash)
	}

	if len(store.createEvents) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(store.createEvents))
	}
	e := store.createEvents[0]
	if e.Action != audit.ActionCreateUser || e.UserID != actor.ID {
		t.Fatalf("unexpected audit event %+v", e)
	}
	if e.Details == nil || !strings.Contains(*e.Details, "m1") || !strings.Contains(*e.Details, "Kampot") {
		t.Fatalf("audit details must name the created account, got %v", e.Details)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newStubStore())

	if _, err := svc.Create(context.Background(), superAdmin(), "u1", "password1", "root", ""); !errors.Is(err, principal.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestDeleteSelfForbidden(t *testing.T) {
	store := newStubStore()
	actor := superAdmin()
	store.add(User{ID: actor.ID, Username: actor.Username, Role: principal.RoleSuperAdmin})
	svc := NewService(store)

	if _, err := svc.Delete(context.Background(), actor, actor.ID); !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if len(store.deleteEvents) != 0 {
		t.Fatal("no audit event may be written for a refused deletion")
	}
}

func TestDeleteUnknownTarget(t *testing.T) {
	svc := NewService(newStubStore())

	if _, err := svc.Delete(context.Background(), superAdmin(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRequiresSuperAdmin(t *testing.T) {
	store := newStubStore()
	target := User{ID: uuid.New(), Username: "victim", Role: principal.RoleUser}
	store.add(target)
	svc := NewService(store)

	actor := principal.Principal{ID: uuid.New(), Username: "user", Role: principal.RoleUser}
	if _, err := svc.Delete(context.Background(), actor, target.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeleteAuditsOnce(t *testing.T) {
	store := newStubStore()
	target := User{ID: uuid.New(), Username: "victim", Role: principal.RoleUser}
	store.add(target)
	svc := NewService(store)
	actor := superAdmin()

	deleted, err := svc.Delete(context.Background(), actor, target.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Username != "victim" {
		t.Fatalf("expected deleted account back, got %+v", deleted)
	}
	if len(store.deleteEvents) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(store.deleteEvents))
	}
	if store.deleteEvents[0].Action != audit.ActionDeleteUser || store.deleteEvents[0].UserID != actor.ID {
		t.Fatalf("unexpected audit event %+v", store.deleteEvents[0])
	}
}
