package classes

import "time"

// Class groups students within an organization, optionally tied to a batch.
type Class struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	BatchID   *int64    `json:"batch_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
