package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/khmerdata/registry/internal/http/middleware"
	"github.com/khmerdata/registry/internal/principal"
	"github.com/khmerdata/registry/internal/user"
	"github.com/khmerdata/registry/internal/util"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Province string `json:"province"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	users, err := h.users.List(ctx, actor)
	if err != nil {
		writeUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	created, err := h.users.Create(ctx, actor, req.Username, req.Password, req.Role, req.Province)
	if err != nil {
		writeUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid user id", nil)
		return
	}

	deleted, err := h.users.Delete(ctx, actor, targetID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted.Username})
}

// writeUserError maps registry failures onto the envelope taxonomy.
func writeUserError(w http.ResponseWriter, err error) {
	var (
		conflict   *user.ProvinceManagedError
		validation *util.ValidationError
	)
	switch {
	case errors.Is(err, user.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, user.ErrSelfDelete):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, user.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, user.ErrUsernameTaken):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.As(err, &conflict):
		WriteError(w, http.StatusConflict, "CONFLICT", conflict.Error(), map[string]string{
			"province": conflict.Province,
			"manager":  conflict.Manager,
		})
	case errors.Is(err, user.ErrProvinceRequired), errors.Is(err, principal.ErrUnknownRole):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.As(err, &validation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}
