package batches

import "time"

// Batch is an intake cohort within an organization.
type Batch struct {
	ID        int64      `json:"id"`
	OrgID     int64      `json:"org_id"`
	Name      string     `json:"name"`
	StartsOn  *time.Time `json:"starts_on,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
