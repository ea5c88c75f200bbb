package authz

import "fmt"

// Role is the platform-wide role of an authenticated actor.
type Role string

// Supported roles. SuperAdmin is never implied by any other role and no
// other role is implied by SuperAdmin; every operation lists its allowed
// roles explicitly.
const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// ParseRole validates a raw role string, typically from a credential claim.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSuperAdmin, RoleAdmin, RoleInstructor, RoleStudent:
		return Role(raw), nil
	}
	return "", fmt.Errorf("authz: unknown role %q", raw)
}

// Principal describes the authenticated actor for the lifetime of one
// request. It is reconstructed from the signed credential on every request
// and never persisted.
//
// Email and OrgName are carried for display only; authorization decisions
// rely exclusively on ID, Role and OrgID.
type Principal struct {
	ID      int64
	Role    Role
	OrgID   *int64
	Email   string
	OrgName string
}

// InOrg reports whether the principal belongs to the given organization.
func (p Principal) InOrg(orgID int64) bool {
	return p.OrgID != nil && *p.OrgID == orgID
}
