package authz

import (
	"github.com/examdesk/examdesk/internal/shared"
)

// Scope is the tenant filter attached to every data query made on behalf
// of a request. Restricted is false only for superadmins.
type Scope struct {
	Restricted bool
	OrgID      int64
}

// Unrestricted returns the superadmin scope.
func Unrestricted() Scope {
	return Scope{}
}

// OrgScope returns a scope limited to one organization.
func OrgScope(orgID int64) Scope {
	return Scope{Restricted: true, OrgID: orgID}
}

// RequireRole denies unless the principal's role is in the allowed set.
// The set is authoritative as given: superadmin is not implicitly allowed.
func RequireRole(p Principal, allowed ...Role) error {
	for _, role := range allowed {
		if p.Role == role {
			return nil
		}
	}
	return shared.ErrForbidden
}

// ScopeFor derives the tenant scope for a principal. A non-superadmin
// principal without an organization fails with ErrNoTenantAccess; the
// scope must never silently widen to "no filter".
func ScopeFor(p Principal) (Scope, error) {
	if p.Role == RoleSuperAdmin {
		return Unrestricted(), nil
	}
	if p.OrgID == nil {
		return Scope{}, shared.ErrNoTenantAccess
	}
	return OrgScope(*p.OrgID), nil
}
