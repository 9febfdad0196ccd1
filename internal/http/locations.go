package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type personDirectory interface {
	Provinces(ctx context.Context) ([]string, error)
	Districts(ctx context.Context, province string) ([]string, error)
	Communes(ctx context.Context, province, district string) ([]string, error)
	Villages(ctx context.Context, province, district, commune string) ([]string, error)
}

// handleLocations serves the whole static hierarchy for cascading
// dropdowns.
func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.locations.All())
}

// The remaining lookups answer from the directory itself, so the dropdowns
// reflect the locations that actually occur in the data.

func (h *Handler) handleProvinces(w http.ResponseWriter, r *http.Request) {
	values, err := h.directory.Provinces(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, values)
}

func (h *Handler) handleDistricts(w http.ResponseWriter, r *http.Request) {
	values, err := h.directory.Districts(r.Context(), chi.URLParam(r, "province"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, values)
}

func (h *Handler) handleCommunes(w http.ResponseWriter, r *http.Request) {
	values, err := h.directory.Communes(r.Context(), chi.URLParam(r, "province"), chi.URLParam(r, "district"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, values)
}

func (h *Handler) handleVillages(w http.ResponseWriter, r *http.Request) {
	values, err := h.directory.Villages(r.Context(), chi.URLParam(r, "province"), chi.URLParam(r, "district"), chi.URLParam(r, "commune"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, values)
}
