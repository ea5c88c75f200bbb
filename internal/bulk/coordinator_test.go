package bulk_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/bulk"
)

// deleteExisting simulates a table holding the given ids.
func deleteExisting(existing map[int64]bool) bulk.AttemptFunc {
	return func(ctx context.Context, id int64) (bulk.Result, error) {
		if existing[id] {
			return bulk.Result{Affected: 1}, nil
		}
		return bulk.Result{Affected: 0}, nil
	}
}

func TestExecuteMixedInput(t *testing.T) {
	items := []any{float64(1), float64(2), "x", float64(999)}
	report := bulk.Execute(context.Background(), bulk.OpDelete, items, deleteExisting(map[int64]bool{1: true}))

	body := report.ToBody()
	require.Equal(t, 4, body.Processed)
	require.Equal(t, []int64{1}, body.Deleted)
	require.Equal(t, 1, body.DeletedCount)
	require.Equal(t, []int64{2, 999}, body.NotFound)
	require.Equal(t, []string{"x"}, body.InvalidIDs)
	require.Empty(t, body.ConstraintErrors)
	require.Empty(t, body.OtherErrors)
	require.True(t, body.Success)
}

func TestExecuteZeroSuccessesIsFailure(t *testing.T) {
	report := bulk.Execute(context.Background(), bulk.OpDelete, []any{float64(2), "x"}, deleteExisting(nil))

	body := report.ToBody()
	require.False(t, body.Success)
	require.Equal(t, 0, body.DeletedCount)
}

func TestExecuteEmptyInputSucceeds(t *testing.T) {
	report := bulk.Execute(context.Background(), bulk.OpDelete, nil, deleteExisting(nil))
	require.True(t, report.Success())
	require.Equal(t, 0, report.Processed())
}

func TestExecuteConstraintViolation(t *testing.T) {
	attempt := func(ctx context.Context, id int64) (bulk.Result, error) {
		if id == 2 {
			return bulk.Result{}, &pgconn.PgError{Code: "23503", Detail: "referenced from submissions"}
		}
		return bulk.Result{Affected: 1}, nil
	}
	report := bulk.Execute(context.Background(), bulk.OpDelete, []any{float64(1), float64(2)}, attempt)

	body := report.ToBody()
	require.Equal(t, []int64{1}, body.Deleted)
	require.Len(t, body.ConstraintErrors, 1)
	require.Equal(t, int64(2), body.ConstraintErrors[0].ID)
	require.Contains(t, body.ConstraintErrors[0].Message, "still referenced")
	require.True(t, body.Success)
}

func TestExecuteOtherErrorDoesNotAbort(t *testing.T) {
	attempt := func(ctx context.Context, id int64) (bulk.Result, error) {
		if id == 1 {
			return bulk.Result{}, errors.New("connection reset")
		}
		return bulk.Result{Affected: 1}, nil
	}
	report := bulk.Execute(context.Background(), bulk.OpDelete, []any{float64(1), float64(2)}, attempt)

	body := report.ToBody()
	require.Len(t, body.OtherErrors, 1)
	require.Equal(t, []int64{2}, body.Deleted)
	require.True(t, body.Success)
}

func TestExecutePreservesOrder(t *testing.T) {
	var seen []int64
	attempt := func(ctx context.Context, id int64) (bulk.Result, error) {
		seen = append(seen, id)
		return bulk.Result{Affected: 1}, nil
	}
	bulk.Execute(context.Background(), bulk.OpDelete, []any{float64(3), float64(1), float64(2)}, attempt)
	require.Equal(t, []int64{3, 1, 2}, seen)
}

func TestExecuteUpdateEchoesFields(t *testing.T) {
	fields := map[string]any{"marks": 10}
	attempt := func(ctx context.Context, id int64) (bulk.Result, error) {
		return bulk.Result{Affected: 1, Fields: fields}, nil
	}
	report := bulk.Execute(context.Background(), bulk.OpUpdate, []any{float64(4)}, attempt)

	body := report.ToBody()
	require.Equal(t, 1, body.UpdatedCount)
	require.Equal(t, int64(4), body.Updated[0].ID)
	require.Equal(t, fields, body.Updated[0].Fields)
}

func TestCoercionShapes(t *testing.T) {
	attempt := deleteExisting(map[int64]bool{1: true, 2: true, 3: true})
	report := bulk.Execute(context.Background(), bulk.OpDelete,
		[]any{"1", float64(2), int64(3), nil, float64(2.5), "abc"}, attempt)

	body := report.ToBody()
	require.Equal(t, []int64{1, 2, 3}, body.Deleted)
	require.Equal(t, []string{"null", "2.5", "abc"}, body.InvalidIDs)
}
