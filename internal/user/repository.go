package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khmerdata/registry/internal/audit"
	"github.com/khmerdata/registry/internal/db"
	"github.com/khmerdata/registry/internal/principal"
)

const dbTimeout = 3 * time.Second

const userColumns = "id, username, password_hash, role, province, created_at"

const (
	usernameConstraint = "users_username_key"
	provinceConstraint = "users_manager_province_idx"
)

// Repository stores accounts. Uniqueness of usernames and of one manager per
// province is enforced by the schema; the mapped errors below are the
// authoritative answer even when two creations race.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches one account.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Province, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetByUsername fetches one account by its exact username (case-sensitive,
// as stored).
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Province, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ManagerForProvince returns the manager holding the exact province string.
func (r *Repository) ManagerForProvince(ctx context.Context, province string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 AND province = $2`,
		principal.RoleManager, province).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Province, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// List returns all accounts ordered by creation.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Province, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts the account and its create_user audit row in one
// transaction. Unique violations are mapped to the domain conflict errors.
func (r *Repository) Create(ctx context.Context, input CreateInput, event audit.Event) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u User
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (id, username, password_hash, role, province)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userColumns+`
		`, uuid.New(), input.Username, input.PasswordHash, input.Role, input.Province).
			Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Province, &u.CreatedAt)
		if err != nil {
			return err
		}
		return audit.InsertTx(ctx, tx, event)
	})
	if err != nil {
		return User{}, r.mapConflict(ctx, input, err)
	}
	return u, nil
}

// Delete removes the account and appends its delete_user audit row in one
// transaction. The deleted account is returned so callers can report the
// username. History rows referencing the deleted id are left untouched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, event audit.Event) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u User
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id).
			Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Province, &u.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if event.Details == nil {
			details := "Deleted user: " + u.Username
			event.Details = &details
		}
		return audit.InsertTx(ctx, tx, event)
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repository) mapConflict(ctx context.Context, input CreateInput, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	switch pgErr.ConstraintName {
	case usernameConstraint:
		return ErrUsernameTaken
	case provinceConstraint:
		conflict := &ProvinceManagedError{Province: ""}
		if input.Province != nil {
			conflict.Province = *input.Province
		}
		// Name the winner of the race when we can still see it.
		if holder, lookupErr := r.ManagerForProvince(ctx, conflict.Province); lookupErr == nil {
			conflict.Manager = holder.Username
		}
		return conflict
	}
	return err
}
