package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/khmerdata/registry/internal/auth"
	"github.com/khmerdata/registry/internal/principal"
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Auth validates the access JWT and injects the acting principal into the
// request context. The principal is rebuilt from verified claims only; no
// ambient session state is consulted.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "missing token")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid token")
				return
			}

			subject, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid subject")
				return
			}

			role, err := principal.ParseRole(claims.Role)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid role")
				return
			}

			actor, err := principal.New(subject, claims.Username, role, claims.Province)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid principal")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), actor)))
		})
	}
}

// WithPrincipal stores the acting principal in the context.
func WithPrincipal(ctx context.Context, p principal.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// GetPrincipal retrieves the acting principal from the context.
func GetPrincipal(ctx context.Context) (principal.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(principal.Principal)
	return p, ok
}

// RequireSuperAdmin guards the user management surface.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetPrincipal(r.Context())
		if !ok || !actor.CanManageUsers() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "super admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
