package http

import (
	"encoding/json"
	"errors"
	"net/http"

	httpmiddleware "github.com/khmerdata/registry/internal/http/middleware"
	"github.com/khmerdata/registry/internal/service"
	"github.com/khmerdata/registry/internal/user"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "invalid credentials", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"profile":       result.Profile,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "invalid refresh token", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"profile":       result.Profile,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.authService.Logout(ctx, actor, req.RefreshToken); err != nil {
		writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httpmiddleware.GetPrincipal(ctx)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	profile, err := h.authService.GetProfile(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "account no longer exists", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}
