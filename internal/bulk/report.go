package bulk

// Kind tags the classified outcome of one item.
type Kind int

// Outcome kinds, one bucket per classification.
const (
	KindUpdated Kind = iota
	KindDeleted
	KindNotFound
	KindInvalidID
	KindConstraintViolation
	KindOtherError
)

// Outcome is the tagged result of one attempted item. Exactly the fields
// relevant to the kind are populated: ID for everything that coerced, Raw
// for inputs that never did, Fields for updates, Reason for failures.
type Outcome struct {
	Kind   Kind
	ID     int64
	Raw    string
	Fields map[string]any
	Reason string
}

// ConstraintError is the wire shape of one constraint-violation outcome.
type ConstraintError struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ItemError is the wire shape of one unclassified failure.
type ItemError struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// UpdatedItem is the wire shape of one successful update.
type UpdatedItem struct {
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Report aggregates the ordered outcomes of one bulk call. It is a pure
// function of the attempts, built and discarded within a single request.
type Report struct {
	Op       Op
	Outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Processed is the number of attempted items.
func (r Report) Processed() int {
	return len(r.Outcomes)
}

// Updated lists successful update outcomes in input order.
func (r Report) Updated() []UpdatedItem {
	var items []UpdatedItem
	for _, o := range r.Outcomes {
		if o.Kind == KindUpdated {
			items = append(items, UpdatedItem{ID: o.ID, Fields: o.Fields})
		}
	}
	return items
}

// Deleted lists ids of successful delete outcomes in input order.
func (r Report) Deleted() []int64 {
	var ids []int64
	for _, o := range r.Outcomes {
		if o.Kind == KindDeleted {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// NotFound lists ids whose mutation affected zero rows.
func (r Report) NotFound() []int64 {
	var ids []int64
	for _, o := range r.Outcomes {
		if o.Kind == KindNotFound {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// InvalidIDs lists the raw values that never coerced to an id.
func (r Report) InvalidIDs() []string {
	var raws []string
	for _, o := range r.Outcomes {
		if o.Kind == KindInvalidID {
			raws = append(raws, o.Raw)
		}
	}
	return raws
}

// ConstraintErrors lists the constraint-violation outcomes.
func (r Report) ConstraintErrors() []ConstraintError {
	var errs []ConstraintError
	for _, o := range r.Outcomes {
		if o.Kind == KindConstraintViolation {
			errs = append(errs, ConstraintError{ID: o.ID, Message: o.Reason})
		}
	}
	return errs
}

// OtherErrors lists the unclassified failures.
func (r Report) OtherErrors() []ItemError {
	var errs []ItemError
	for _, o := range r.Outcomes {
		if o.Kind == KindOtherError {
			errs = append(errs, ItemError{ID: o.ID, Message: o.Reason})
		}
	}
	return errs
}

// SucceededCount counts updated plus deleted outcomes.
func (r Report) SucceededCount() int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Kind == KindUpdated || o.Kind == KindDeleted {
			count++
		}
	}
	return count
}

// Success is false only when at least one item was attempted and none
// succeeded. Per-item failures never fail the request itself.
func (r Report) Success() bool {
	if len(r.Outcomes) == 0 {
		return true
	}
	return r.SucceededCount() > 0
}

// Body is the JSON response carried by a 200 bulk reply.
type Body struct {
	Processed        int               `json:"processed"`
	Updated          []UpdatedItem     `json:"updated,omitempty"`
	UpdatedCount     int               `json:"updatedCount"`
	Deleted          []int64           `json:"deleted,omitempty"`
	DeletedCount     int               `json:"deletedCount"`
	NotFound         []int64           `json:"notFound"`
	InvalidIDs       []string          `json:"invalidIds"`
	ConstraintErrors []ConstraintError `json:"constraintErrors"`
	OtherErrors      []ItemError       `json:"otherErrors"`
	Success          bool              `json:"success"`
}

// ToBody builds the response body, materializing empty slices so the JSON
// always carries every bucket.
func (r Report) ToBody() Body {
	body := Body{
		Processed:        r.Processed(),
		Updated:          r.Updated(),
		Deleted:          r.Deleted(),
		NotFound:         r.NotFound(),
		InvalidIDs:       r.InvalidIDs(),
		ConstraintErrors: r.ConstraintErrors(),
		OtherErrors:      r.OtherErrors(),
		Success:          r.Success(),
	}
	body.UpdatedCount = len(body.Updated)
	body.DeletedCount = len(body.Deleted)
	if body.NotFound == nil {
		body.NotFound = []int64{}
	}
	if body.InvalidIDs == nil {
		body.InvalidIDs = []string{}
	}
	if body.ConstraintErrors == nil {
		body.ConstraintErrors = []ConstraintError{}
	}
	if body.OtherErrors == nil {
		body.OtherErrors = []ItemError{}
	}
	return body
}
