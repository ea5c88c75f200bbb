package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

func orgPtr(v int64) *int64 { return &v }

func TestScopeForSuperAdminUnrestricted(t *testing.T) {
	scope, err := authz.ScopeFor(authz.Principal{ID: 1, Role: authz.RoleSuperAdmin})
	require.NoError(t, err)
	require.False(t, scope.Restricted)
}

func TestScopeForTenantRoles(t *testing.T) {
	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleInstructor, authz.RoleStudent} {
		scope, err := authz.ScopeFor(authz.Principal{ID: 2, Role: role, OrgID: orgPtr(7)})
		require.NoError(t, err)
		require.True(t, scope.Restricted)
		require.Equal(t, int64(7), scope.OrgID)
	}
}

func TestScopeForMissingOrgFailsClosed(t *testing.T) {
	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleInstructor, authz.RoleStudent} {
		_, err := authz.ScopeFor(authz.Principal{ID: 3, Role: role})
		require.ErrorIs(t, err, shared.ErrNoTenantAccess)
	}
}

func TestRequireRoleExplicitSet(t *testing.T) {
	admin := authz.Principal{ID: 4, Role: authz.RoleAdmin}
	require.NoError(t, authz.RequireRole(admin, authz.RoleAdmin, authz.RoleInstructor))
	require.ErrorIs(t, authz.RequireRole(admin, authz.RoleInstructor), shared.ErrForbidden)

	// Superadmin is not implied: a set without it denies it.
	super := authz.Principal{ID: 5, Role: authz.RoleSuperAdmin}
	require.ErrorIs(t, authz.RequireRole(super, authz.RoleStudent), shared.ErrForbidden)
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	_, err := authz.ParseRole("owner")
	require.Error(t, err)
}

func TestRequireRolesMiddleware(t *testing.T) {
	mw := authz.Middleware{}
	handler := mw.RequireRoles(authz.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No principal at all is an authentication failure.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong role is a 403.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), authz.Principal{ID: 9, Role: authz.RoleStudent, OrgID: orgPtr(1)}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Allowed role passes through.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), authz.Principal{ID: 10, Role: authz.RoleAdmin, OrgID: orgPtr(1)}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
