package person

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/khmerdata/registry/internal/principal"
)

// Filter carries the raw, user-supplied search fields. Every field is
// optional; empty strings mean "no filter".
type Filter struct {
	ID       string
	Name     string
	Gender   string
	Age      string
	Province string
	District string
	Commune  string
	Village  string
}

// Predicates composes the WHERE clause for a search by the given principal.
//
// The manager scope predicate comes first and is never overridable: a
// manager sees only its own province, and any province filter the manager
// supplies is ignored. Super admins and plain users search unscoped.
//
// Numeric filters that fail to parse are dropped silently, matching the
// behavior of an absent filter. The function is pure: it only builds SQL.
func (f Filter) Predicates(actor principal.Principal) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
		}
		conds = append(conds, cond)
	}
	next := func() int { return len(args) + 1 }

	if actor.Scoped() {
		add(fmt.Sprintf("province = $%d", next()), actor.Province)
	}

	if id := strings.TrimSpace(f.ID); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			add(fmt.Sprintf("id = $%d", next()), n)
		}
	}

	if name := strings.TrimSpace(f.Name); name != "" {
		pattern := "%" + name + "%"
		n := next()
		add(fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR name ILIKE $%d)", n, n+1, n+2),
			pattern, pattern, pattern)
	}

	if gender := strings.TrimSpace(f.Gender); gender != "" {
		add(fmt.Sprintf("gender = $%d", next()), gender)
	}

	if age := strings.TrimSpace(f.Age); age != "" {
		if n, err := strconv.Atoi(age); err == nil {
			add(fmt.Sprintf("age = $%d", next()), n)
		}
	}

	// A manager's scope predicate already pins the province; the supplied
	// province filter is irrelevant in that case.
	if province := strings.TrimSpace(f.Province); province != "" && !actor.Scoped() {
		add(fmt.Sprintf("province ILIKE $%d", next()), "%"+province+"%")
	}
	if district := strings.TrimSpace(f.District); district != "" {
		add(fmt.Sprintf("district ILIKE $%d", next()), "%"+district+"%")
	}
	if commune := strings.TrimSpace(f.Commune); commune != "" {
		add(fmt.Sprintf("commune ILIKE $%d", next()), "%"+commune+"%")
	}
	if village := strings.TrimSpace(f.Village); village != "" {
		add(fmt.Sprintf("village ILIKE $%d", next()), "%"+village+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
