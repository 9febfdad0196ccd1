package http

import (
	"context"
	"net/http"

	"github.com/khmerdata/registry/internal/audit"
	httpmiddleware "github.com/khmerdata/registry/internal/http/middleware"
	"github.com/khmerdata/registry/internal/principal"
)

type historyLister interface {
	List(ctx context.Context, actor principal.Principal, page int) (audit.HistoryPage, error)
}

// handleHistory serves the audit trail. Super admins see everything,
// managers only their own entries, plain users nothing.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	if !actor.CanViewHistory() {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "no history access", nil)
		return
	}

	page := parsePage(r.URL.Query().Get("page"))

	result, err := h.history.List(ctx, actor, page)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
