package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khmerdata/registry/internal/audit"
	"github.com/khmerdata/registry/internal/auth"
	"github.com/khmerdata/registry/internal/principal"
	"github.com/khmerdata/registry/internal/repo"
	"github.com/khmerdata/registry/internal/user"
)

type stubUserStore struct {
	account user.User
}

func (s *stubUserStore) GetByUsername(_ context.Context, username string) (user.User, error) {
	if username == s.account.Username {
		return s.account, nil
	}
	return user.User{}, user.ErrNotFound
}

func (s *stubUserStore) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	if id == s.account.ID {
		return s.account, nil
	}
	return user.User{}, user.ErrNotFound
}

type stubTokenStore struct {
	inserted []repo.RefreshToken
	revoked  []string
}

func (s *stubTokenStore) InsertRefreshToken(_ context.Context, rt repo.RefreshToken) error {
	s.inserted = append(s.inserted, rt)
	return nil
}

func (s *stubTokenStore) GetRefreshTokenByHash(_ context.Context, tokenHash string) (repo.RefreshToken, error) {
	for _, rt := range s.inserted {
		if rt.TokenHash == tokenHash && !s.isRevoked(tokenHash) {
			return rt, nil
		}
	}
	return repo.RefreshToken{}, repo.ErrNotFound
}

func (s *stubTokenStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	s.revoked = append(s.revoked, tokenHash)
	return nil
}

func (s *stubTokenStore) InvalidateOtherRefreshTokens(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func (s *stubTokenStore) isRevoked(hash string) bool {
	for _, h := range s.revoked {
		if h == hash {
			return true
		}
	}
	return false
}

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

type recordedEvent struct {
	actor  principal.Principal
	action string
}

type stubRecorder struct {
	events []recordedEvent
}

func (s *stubRecorder) Record(_ context.Context, actor principal.Principal, action string, _ *int64, _ string) {
	s.events = append(s.events, recordedEvent{actor: actor, action: action})
}

func managerAccount(t *testing.T, password string) user.User {
	t.Helper()
	hash, err := auth.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	province := "Kampot"
	return user.User{
		ID:           uuid.New(),
		Username:     "kampot",
		PasswordHash: hash,
		Role:         principal.RoleManager,
		Province:     &province,
	}
}

func newService(users userStore, tokens tokenStore, rec auditRecorder) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		redis:      &stubRedis{},
		jwt:        auth.NewJWTManager(strings.Repeat("a", 32), time.Minute),
		refreshTTL: time.Hour,
		recorder:   rec,
	}
}

func TestLoginIssuesScopedPrincipalAndAudits(t *testing.T) {
	password := "manager123"
	account := managerAccount(t, password)
	tokens := &stubTokenStore{}
	rec := &stubRecorder{}
	svc := newService(&stubUserStore{account: account}, tokens, rec)

	result, err := svc.Login(context.Background(), "kampot", password)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if result.Principal.Role != principal.RoleManager || result.Principal.Province != "Kampot" {
		t.Fatalf("principal must carry the manager scope, got %+v", result.Principal)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if len(tokens.inserted) != 1 {
		t.Fatalf("expected one persisted refresh token, got %d", len(tokens.inserted))
	}

	if len(rec.events) != 1 || rec.events[0].action != audit.ActionLogin {
		t.Fatalf("expected exactly one login audit event, got %v", rec.events)
	}
	if rec.events[0].actor.ID != account.ID {
		t.Fatal("audit event must be attributed to the authenticated principal")
	}

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("issued token must validate: %v", err)
	}
	if claims.Role != "manager" || claims.Province != "Kampot" || claims.Username != "kampot" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	account := managerAccount(t, "manager123")
	rec := &stubRecorder{}
	svc := newService(&stubUserStore{account: account}, &stubTokenStore{}, rec)

	if _, err := svc.Login(context.Background(), "kampot", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost", "manager123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("failed logins must not be audited, got %v", rec.events)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	password := "manager123"
	account := managerAccount(t, password)
	tokens := &stubTokenStore{}
	redisStub := &stubRedis{}
	svc := &AuthService{
		users:      &stubUserStore{account: account},
		tokens:     tokens,
		redis:      redisStub,
		jwt:        auth.NewJWTManager(strings.Repeat("b", 32), time.Minute),
		refreshTTL: time.Hour,
		recorder:   &stubRecorder{},
	}

	first, err := svc.Login(context.Background(), "kampot", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// The consumed token is revoked; replaying it must fail.
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid on replay, got %v", err)
	}
}

func TestLogoutRevokesAndAudits(t *testing.T) {
	password := "manager123"
	account := managerAccount(t, password)
	tokens := &stubTokenStore{}
	rec := &stubRecorder{}
	svc := newService(&stubUserStore{account: account}, tokens, rec)

	result, err := svc.Login(context.Background(), "kampot", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	rec.events = nil

	if err := svc.Logout(context.Background(), result.Principal, result.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if len(tokens.revoked) == 0 {
		t.Fatal("logout must revoke the refresh token")
	}
	if len(rec.events) != 1 || rec.events[0].action != audit.ActionLogout {
		t.Fatalf("expected exactly one logout audit event, got %v", rec.events)
	}
}
