package orgs

import "time"

// Organization is one tenant. All non-superadmin data access is scoped to
// exactly one organization.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription is one paid access window attached to an organization.
type Subscription struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Status    string    `json:"status"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}
