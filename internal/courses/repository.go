package courses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/platform/db"
	"github.com/examdesk/examdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	if err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Code, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Get fetches one course within scope.
func (r *Repository) Get(ctx context.Context, scope authz.Scope, id int64) (*Course, error) {
	query := `SELECT id, org_id, name, code, created_at, updated_at FROM courses WHERE id = $1`
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	return scanCourse(r.pool.QueryRow(ctx, query, args...))
}

// List returns courses within scope ordered by code.
func (r *Repository) List(ctx context.Context, scope authz.Scope) ([]Course, error) {
	query := `SELECT id, org_id, name, code, created_at, updated_at FROM courses`
	var args []any
	if scope.Restricted {
		query += ` WHERE org_id = $1`
		args = append(args, scope.OrgID)
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// Create inserts a new course. A duplicate code within the organization
// surfaces as ErrDuplicate.
func (r *Repository) Create(ctx context.Context, c *Course) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO courses (org_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		c.OrgID, c.Name, c.Code,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pgErr, ok := db.IsConstraintViolation(err); ok && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// Update mutates one course within scope.
func (r *Repository) Update(ctx context.Context, scope authz.Scope, c *Course) (int64, error) {
	query := `UPDATE courses SET name = $1, code = $2, updated_at = NOW() WHERE id = $3`
	args := []any{c.Name, c.Code, c.ID}
	if scope.Restricted {
		query += ` AND org_id = $4`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if pgErr, ok := db.IsConstraintViolation(err); ok && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes one course within scope.
func (r *Repository) Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM courses WHERE id = $1`
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
