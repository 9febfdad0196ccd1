package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/khmerdata/registry/internal/audit"
	httpmiddleware "github.com/khmerdata/registry/internal/http/middleware"
	"github.com/khmerdata/registry/internal/person"
	"github.com/khmerdata/registry/internal/principal"
)

type searcher interface {
	Search(ctx context.Context, actor principal.Principal, filter person.Filter, page int) (person.Page, error)
}

type recorder interface {
	Record(ctx context.Context, actor principal.Principal, action string, personID *int64, details string)
}

// handleSearch runs a role-scoped directory search. The filter fields come
// straight from the query string; the scope comes from the principal alone.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	q := r.URL.Query()
	filter := person.Filter{
		ID:       q.Get("id"),
		Name:     q.Get("name"),
		Gender:   q.Get("gender"),
		Age:      q.Get("age"),
		Province: q.Get("province"),
		District: q.Get("district"),
		Commune:  q.Get("commune"),
		Village:  q.Get("village"),
	}

	page := parsePage(q.Get("page"))

	result, err := h.people.Search(ctx, actor, filter, page)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	h.recorder.Record(ctx, actor, audit.ActionSearch, nil, fmt.Sprintf("Found %d results", result.Total))

	WriteJSON(w, http.StatusOK, result)
}

// parsePage mirrors the filter semantics for numeric inputs: anything that
// does not parse behaves like an absent value.
func parsePage(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return person.ClampPage(n)
}
