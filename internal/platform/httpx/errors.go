package httpx

import (
	"errors"
	"net/http"

	"github.com/examdesk/examdesk/internal/shared"
)

// RespondError maps platform errors to HTTP responses using RFC7807.
// Missing or unverifiable credentials are both 401; role, scope, tenant and
// subscription denials are 403; out-of-scope reads are indistinguishable
// from missing rows (404).
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		ProblemKind(w, http.StatusUnauthorized, "Unauthenticated", "unauthenticated", "missing credential")
	case errors.Is(err, shared.ErrInvalidCredential):
		ProblemKind(w, http.StatusUnauthorized, "Unauthenticated", "invalid_credential", "invalid or expired credential")
	case errors.Is(err, shared.ErrInvalidCredentials):
		ProblemKind(w, http.StatusUnauthorized, "Unauthenticated", "invalid_credentials", "invalid credentials")
	case errors.Is(err, shared.ErrForbidden):
		ProblemKind(w, http.StatusForbidden, "Forbidden", "forbidden", "role not permitted")
	case errors.Is(err, shared.ErrNoTenantAccess):
		ProblemKind(w, http.StatusForbidden, "Forbidden", "no_tenant_access", "no tenant access")
	case errors.Is(err, shared.ErrAccessDenied):
		ProblemKind(w, http.StatusForbidden, "Forbidden", "access_denied", "access denied")
	case errors.Is(err, shared.ErrSubscriptionExpired):
		ProblemKind(w, http.StatusForbidden, "Forbidden", "subscription_expired", "subscription expired")
	case errors.Is(err, shared.ErrExamNotFound):
		ProblemKind(w, http.StatusNotFound, "Not Found", "exam_not_found", "exam not found")
	case errors.Is(err, shared.ErrNotFound):
		ProblemKind(w, http.StatusNotFound, "Not Found", "not_found", "resource not found")
	case errors.Is(err, shared.ErrDuplicate):
		ProblemKind(w, http.StatusConflict, "Duplicate", "duplicate", err.Error())
	case errors.Is(err, shared.ErrValidation):
		ProblemKind(w, http.StatusBadRequest, "Validation Failed", "validation", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
