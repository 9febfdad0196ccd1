package person

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khmerdata/registry/internal/principal"
)

const dbTimeout = 3 * time.Second

const personColumns = "id, name, first_name, last_name, gender, age, province, district, commune, village, created_at"

// Repository provides access to the people table.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Search counts and fetches one page of residents visible to the actor.
// Count and fetch share the exact same predicate set, so the totals always
// agree with the returned items.
func (r *Repository) Search(ctx context.Context, actor principal.Principal, filter Filter, page int) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	where, args := filter.Predicates(actor)
	page = ClampPage(page)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM people "+where, args...).Scan(&total); err != nil {
		return Page{}, err
	}

	query := fmt.Sprintf("SELECT %s FROM people %s ORDER BY id LIMIT $%d OFFSET $%d",
		personColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, SearchPageSize, Offset(page, SearchPageSize))...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	items := []Person{}
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.FirstName, &p.LastName, &p.Gender, &p.Age,
			&p.Province, &p.District, &p.Commune, &p.Village, &p.CreatedAt); err != nil {
			return Page{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: TotalPages(total, SearchPageSize),
	}, nil
}

// Provinces lists the distinct provinces present in the directory.
func (r *Repository) Provinces(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT province FROM people ORDER BY province`)
}

// Districts lists the districts of a province.
func (r *Repository) Districts(ctx context.Context, province string) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT district FROM people WHERE province = $1 ORDER BY district`, province)
}

// Communes lists the communes of a district.
func (r *Repository) Communes(ctx context.Context, province, district string) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT commune FROM people WHERE province = $1 AND district = $2 ORDER BY commune`, province, district)
}

// Villages lists the villages of a commune.
func (r *Repository) Villages(ctx context.Context, province, district, commune string) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT village FROM people WHERE province = $1 AND district = $2 AND commune = $3 ORDER BY village`, province, district, commune)
}

func (r *Repository) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// BulkInsert copies resident rows into the people table. Used by the seeder
// and the Excel importer; the search path never writes.
func (r *Repository) BulkInsert(ctx context.Context, people []Person) (int64, error) {
	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"people"},
		[]string{"name", "first_name", "last_name", "gender", "age", "province", "district", "commune", "village"},
		pgx.CopyFromSlice(len(people), func(i int) ([]any, error) {
			p := people[i]
			return []any{p.Name, p.FirstName, p.LastName, p.Gender, p.Age, p.Province, p.District, p.Commune, p.Village}, nil
		}),
	)
}
