package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khmerdata/registry/internal/person"
	"github.com/khmerdata/registry/internal/principal"
)

const dbTimeout = 3 * time.Second

// Repository stores and reads edit_history rows.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one history row.
func (r *Repository) Insert(ctx context.Context, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO edit_history (user_id, person_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, e.UserID, e.PersonID, e.Action, e.Details)
	return err
}

// InsertTx appends one history row inside the caller's transaction, so the
// audit entry commits or rolls back together with the triggering mutation.
func InsertTx(ctx context.Context, tx pgx.Tx, e Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO edit_history (user_id, person_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, e.UserID, e.PersonID, e.Action, e.Details)
	return err
}

// List returns one page of history visible to the actor: super admins see
// every row, managers only their own. Callers must reject plain users before
// getting here; the plain user role has no history capability.
func (r *Repository) List(ctx context.Context, actor principal.Principal, page int) (HistoryPage, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	where := ""
	args := []any{}
	if actor.Role == principal.RoleManager {
		where = "WHERE h.user_id = $1"
		args = append(args, actor.ID)
	}

	page = person.ClampPage(page)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM edit_history h "+where, args...).Scan(&total); err != nil {
		return HistoryPage{}, err
	}

	query := fmt.Sprintf(`
		SELECT h.id, h.user_id, u.username, h.person_id, h.action, h.details, h.timestamp
		FROM edit_history h
		LEFT JOIN users u ON u.id = h.user_id
		%s
		ORDER BY h.timestamp DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, HistoryPageSize, person.Offset(page, HistoryPageSize))...)
	if err != nil {
		return HistoryPage{}, err
	}
	defer rows.Close()

	items := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.PersonID, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return HistoryPage{}, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return HistoryPage{}, err
	}

	return HistoryPage{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: person.TotalPages(total, HistoryPageSize),
	}, nil
}
