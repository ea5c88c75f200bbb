package questions

import (
	"encoding/json"
	"time"
)

// Question is one question-bank entry owned by an organization. Options is
// the raw JSON choice list; Answer holds the expected key.
type Question struct {
	ID        int64           `json:"id"`
	OrgID     int64           `json:"org_id"`
	CourseID  int64           `json:"course_id"`
	Body      string          `json:"body"`
	Options   json.RawMessage `json:"options"`
	Answer    string          `json:"answer"`
	Marks     int             `json:"marks"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BulkFields is the set of columns bulk updates may touch.
type BulkFields struct {
	Marks    *int   `json:"marks,omitempty"`
	CourseID *int64 `json:"course_id,omitempty"`
}

// Empty reports whether no field is set.
func (f BulkFields) Empty() bool {
	return f.Marks == nil && f.CourseID == nil
}

// Applied returns the fields as the map echoed in bulk outcomes.
func (f BulkFields) Applied() map[string]any {
	applied := make(map[string]any)
	if f.Marks != nil {
		applied["marks"] = *f.Marks
	}
	if f.CourseID != nil {
		applied["course_id"] = *f.CourseID
	}
	return applied
}
