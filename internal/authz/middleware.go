package authz

import (
	"log/slog"
	"net/http"

	"github.com/examdesk/examdesk/internal/platform/httpx"
	"github.com/examdesk/examdesk/internal/shared"
)

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRoles ensures the current principal's role is in the allowed set.
// A missing principal is an authentication failure, not a role failure.
func (m Middleware) RequireRoles(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if err := RequireRole(p, allowed...); err != nil {
				if m.Logger != nil {
					m.Logger.Warn("role denied",
						slog.String("path", r.URL.Path),
						slog.String("role", string(p.Role)))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
