package accounts

import (
	"time"

	"github.com/examdesk/examdesk/internal/authz"
)

// Account is a platform user row. ClassID and BatchID are populated
// for students only; OrgID is nil only for superadmins.
type Account struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         authz.Role `json:"role"`
	OrgID        *int64     `json:"org_id"`
	ClassID      *int64     `json:"class_id,omitempty"`
	BatchID      *int64     `json:"batch_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
