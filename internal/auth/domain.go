package auth

import (
	"time"

	"github.com/examdesk/examdesk/internal/authz"
)

// User represents an authenticatable account row as the auth module sees
// it. OrgID and OrgName are nil/empty only for superadmins.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         authz.Role
	OrgID        *int64
	OrgName      string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal builds the request principal carried by issued credentials.
func (u *User) Principal() authz.Principal {
	return authz.Principal{
		ID:      u.ID,
		Role:    u.Role,
		OrgID:   u.OrgID,
		Email:   u.Email,
		OrgName: u.OrgName,
	}
}
