package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the question bank.
// Mutations return affected row counts and raw store errors so the bulk
// coordinator can classify them.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const questionColumns = `id, org_id, course_id, body, options, answer, marks, created_at, updated_at`

func scanQuestion(row pgx.Row) (*Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.OrgID, &q.CourseID, &q.Body, &q.Options, &q.Answer, &q.Marks, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Get fetches one question within scope.
func (r *Repository) Get(ctx context.Context, scope authz.Scope, id int64) (*Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE id = $1`, questionColumns)
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	return scanQuestion(r.pool.QueryRow(ctx, query, args...))
}

// List returns questions within scope, optionally filtered by course.
func (r *Repository) List(ctx context.Context, scope authz.Scope, courseID int64, page shared.Pagination) ([]Question, int, error) {
	var conditions []string
	var args []any
	if scope.Restricted {
		args = append(args, scope.OrgID)
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", len(args)))
	}
	if courseID > 0 {
		args = append(args, courseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM questions%s ORDER BY id LIMIT $%d OFFSET $%d`,
		questionColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// Create inserts a new question.
func (r *Repository) Create(ctx context.Context, q *Question) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO questions (org_id, course_id, body, options, answer, marks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		q.OrgID, q.CourseID, q.Body, q.Options, q.Answer, q.Marks,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update mutates one question within scope, returning the affected count.
func (r *Repository) Update(ctx context.Context, scope authz.Scope, q *Question) (int64, error) {
	query := `UPDATE questions SET course_id = $1, body = $2, options = $3, answer = $4, marks = $5, updated_at = NOW() WHERE id = $6`
	args := []any{q.CourseID, q.Body, q.Options, q.Answer, q.Marks, q.ID}
	if scope.Restricted {
		query += ` AND org_id = $7`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateFields applies the bulk fields to one question within scope.
func (r *Repository) UpdateFields(ctx context.Context, scope authz.Scope, id int64, fields BulkFields) (int64, error) {
	var sets []string
	var args []any
	if fields.Marks != nil {
		args = append(args, *fields.Marks)
		sets = append(sets, fmt.Sprintf("marks = $%d", len(args)))
	}
	if fields.CourseID != nil {
		args = append(args, *fields.CourseID)
		sets = append(sets, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return 0, shared.ErrValidation
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE questions SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	if scope.Restricted {
		args = append(args, scope.OrgID)
		query += fmt.Sprintf(` AND org_id = $%d`, len(args))
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOne removes one question within scope, returning the affected
// count. Foreign key failures surface raw for classification.
func (r *Repository) DeleteOne(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM questions WHERE id = $1`
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
