package middleware

import (
	"net/http"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// RequireRole lets the request through only when the authenticated user
// carries the given role. Assumes Auth() has already run.
func RequireRole(role string, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				// Middleware ordering issue (Auth not applied) or context missing
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			if !domain.IsValidRole(role) {
				writeErr(w, r, domain.ErrForbidden())
				return
			}

			if !HasRole(r.Context(), role) {
				writeErr(w, r, domain.ErrInsufficientRole(role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for the admin-only routes.
func RequireAdmin(writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return RequireRole(string(domain.RoleAdmin), writeErr)
}
