// Package bulk executes ordered multi-item mutations with per-item outcome
// accounting. There is deliberately no cross-item atomicity or rollback: a
// caller that needs all-or-nothing semantics wraps the whole call in an
// external transaction.
package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/examdesk/examdesk/internal/platform/db"
)

// Op distinguishes the mutation kind for successful outcomes.
type Op int

// Supported operations.
const (
	OpUpdate Op = iota
	OpDelete
)

// Result is what one attempt reports back on success. Affected is the row
// count from the underlying statement; Fields echoes the applied changes
// for update outcomes.
type Result struct {
	Affected int64
	Fields   map[string]any
}

// AttemptFunc performs the mutation for one coerced item id.
type AttemptFunc func(ctx context.Context, id int64) (Result, error)

// Execute processes items strictly in input order, serially within the
// request. Each item's attempt is independent: a failure on one item never
// prevents the remaining items from being attempted.
func Execute(ctx context.Context, op Op, items []any, attempt AttemptFunc) Report {
	report := Report{Op: op}
	for _, raw := range items {
		report.add(executeOne(ctx, op, raw, attempt))
	}
	return report
}

func executeOne(ctx context.Context, op Op, raw any, attempt AttemptFunc) Outcome {
	id, ok := coerceID(raw)
	if !ok {
		return Outcome{Kind: KindInvalidID, Raw: rawString(raw)}
	}

	result, err := attempt(ctx, id)
	if err != nil {
		if pgErr, ok := db.IsConstraintViolation(err); ok {
			return Outcome{Kind: KindConstraintViolation, ID: id, Reason: constraintReason(pgErr.Code, pgErr.Detail)}
		}
		return Outcome{Kind: KindOtherError, ID: id, Reason: err.Error()}
	}
	if result.Affected == 0 {
		return Outcome{Kind: KindNotFound, ID: id}
	}
	if op == OpDelete {
		return Outcome{Kind: KindDeleted, ID: id}
	}
	return Outcome{Kind: KindUpdated, ID: id, Fields: result.Fields}
}

// coerceID accepts the id shapes a JSON array can carry: numbers, numeric
// strings and json.Number. Anything else, nil included, is invalid. JSON
// numbers with a fractional part do not identify a row.
func coerceID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

func rawString(raw any) string {
	if raw == nil {
		return "null"
	}
	return fmt.Sprintf("%v", raw)
}

func constraintReason(code, detail string) string {
	switch code {
	case "23503":
		if detail != "" {
			return "still referenced by other records: " + detail
		}
		return "still referenced by other records"
	case "23505":
		if detail != "" {
			return "duplicates an existing record: " + detail
		}
		return "duplicates an existing record"
	}
	if detail != "" {
		return "constraint violation: " + detail
	}
	return "constraint violation"
}
