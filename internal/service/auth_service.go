package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/khmerdata/registry/internal/audit"
	"github.com/khmerdata/registry/internal/auth"
	"github.com/khmerdata/registry/internal/principal"
	"github.com/khmerdata/registry/internal/repo"
	"github.com/khmerdata/registry/internal/user"
)

var (
	// ErrInvalidCredentials indicates an authentication failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshInvalid indicates an invalid or expired refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")
)

type userStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type tokenStore interface {
	InsertRefreshToken(ctx context.Context, rt repo.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type auditRecorder interface {
	Record(ctx context.Context, actor principal.Principal, action string, personID *int64, details string)
}

// AuthService concentrates login, logout and refresh rules. Login and
// logout append best-effort audit rows.
type AuthService struct {
	users      userStore
	tokens     tokenStore
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
	recorder   auditRecorder
}

// NewAuthService builds the service.
func NewAuthService(users *user.Repository, tokens *repo.Queries, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration, recorder *audit.Recorder) *AuthService {
	return &AuthService{users: users, tokens: tokens, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL, recorder: recorder}
}

// JWT exposes the token manager (used by middleware).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// Profile is the principal's public shape.
type Profile struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Province *string `json:"province,omitempty"`
}

// LoginResult is the standard authentication payload.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Principal    principal.Principal
	Profile      Profile
}

// Login verifies a username/password pair, issues tokens and audits the
// successful login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	account, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			log.Warn().Str("username", username).Msg("login: unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, account.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("username", username).Msg("login: wrong password")
		return nil, ErrInvalidCredentials
	}

	actor := account.Principal()

	result, err := s.issueTokens(ctx, account, actor)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor, audit.ActionLogin, nil, "")
	return result, nil
}

// Refresh rotates a refresh token for new tokens.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revoked || time.Now().UTC().After(record.ExpiresAt) {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	account, err := s.users.GetByID(ctx, record.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	result, err := s.issueTokens(ctx, account, account.Principal())
	if err != nil {
		return nil, err
	}

	// Revoke the consumed token (DB + Redis).
	if err := s.tokens.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revokes the current refresh token and audits the action.
func (s *AuthService) Logout(ctx context.Context, actor principal.Principal, rawToken string) error {
	if rawToken != "" {
		hash := auth.HashRefreshToken(rawToken)
		if err := s.tokens.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		redisKey := auth.RefreshRedisKey(hash)
		if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
			return err
		}
	}

	s.recorder.Record(ctx, actor, audit.ActionLogout, nil, "")
	return nil
}

// GetProfile returns the stored account behind a principal.
func (s *AuthService) GetProfile(ctx context.Context, subject uuid.UUID) (Profile, error) {
	account, err := s.users.GetByID(ctx, subject)
	if err != nil {
		return Profile{}, err
	}
	return profileOf(account), nil
}

func (s *AuthService) issueTokens(ctx context.Context, account user.User, actor principal.Principal) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(actor.ID.String(), actor.Username, string(actor.Role), actor.Province)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.tokens.InsertRefreshToken(ctx, repo.RefreshToken{
		ID:        uuid.New(),
		Subject:   actor.ID,
		TokenHash: refreshHash,
		ExpiresAt: expires,
	}); err != nil {
		return nil, err
	}
	if err := s.tokens.InvalidateOtherRefreshTokens(ctx, actor.ID, refreshHash); err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(refreshHash), "active", time.Until(expires)).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		Principal:    actor,
		Profile:      profileOf(account),
	}, nil
}

func profileOf(account user.User) Profile {
	return Profile{
		ID:       account.ID.String(),
		Username: account.Username,
		Role:     string(account.Role),
		Province: account.Province,
	}
}
