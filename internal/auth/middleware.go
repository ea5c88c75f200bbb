package auth

import (
	"net/http"
	"strings"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/platform/httpx"
	"github.com/examdesk/examdesk/internal/shared"
)

// Authenticate extracts the bearer credential, resolves it into a
// Principal and stores the principal in the request context. Requests
// without a credential stop here with 401; the distinction between a
// missing and an unverifiable credential survives into the response kind.
func Authenticate(resolver *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			credential := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			principal, err := resolver.Resolve(credential)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}

			ctx := authz.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
