package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/khmerdata/registry/internal/config"
	httpmiddleware "github.com/khmerdata/registry/internal/http/middleware"
	"github.com/khmerdata/registry/internal/location"
	"github.com/khmerdata/registry/internal/service"
	"github.com/khmerdata/registry/internal/user"
)

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	people      searcher
	directory   personDirectory
	history     historyLister
	users       *user.Service
	authService *service.AuthService
	locations   *location.Index
	recorder    recorder
}

// NewHandler wires the HTTP layer onto its services.
func NewHandler(people searcher, directory personDirectory, history historyLister, users *user.Service, authService *service.AuthService, locations *location.Index, rec recorder) *Handler {
	return &Handler{
		people:      people,
		directory:   directory,
		history:     history,
		users:       users,
		authService: authService,
		locations:   locations,
		recorder:    rec,
	}
}

// NewRouter assembles the route tree. Public routes take a per-IP limit;
// everything behind Auth takes a per-subject limit.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	publicLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	r.Group(func(pub chi.Router) {
		pub.Use(httpmiddleware.IPRateLimit(publicLimiter))

		pub.Get("/health", handleHealth)
		pub.Post("/auth/login", h.handleLogin)
		pub.Post("/auth/refresh", h.handleRefresh)
	})

	r.Group(func(priv chi.Router) {
		priv.Use(httpmiddleware.Auth(h.authService.JWT()))
		priv.Use(httpmiddleware.UserRateLimit(authLimiter))

		priv.Post("/auth/logout", h.handleLogout)
		priv.Get("/auth/me", h.handleMe)

		priv.Get("/search", h.handleSearch)
		priv.Get("/history", h.handleHistory)

		priv.Get("/api/locations", h.handleLocations)
		priv.Get("/api/provinces", h.handleProvinces)
		priv.Get("/api/districts/{province}", h.handleDistricts)
		priv.Get("/api/communes/{province}/{district}", h.handleCommunes)
		priv.Get("/api/villages/{province}/{district}/{commune}", h.handleVillages)

		priv.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireSuperAdmin)

			admin.Get("/users", h.handleListUsers)
			admin.Post("/users", h.handleCreateUser)
			admin.Delete("/users/{id}", h.handleDeleteUser)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeInternalError logs the cause and hides it from the client.
func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("internal error")
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
