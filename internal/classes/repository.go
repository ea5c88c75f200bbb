package classes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examdesk/examdesk/internal/authz"
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

func scanClass(row pgx.Row) (*Class, error) {
	var c Class
	if err := row.Scan(&c.ID, &c.OrgID, &c.BatchID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Get fetches one class within scope.
func (r *Repository) Get(ctx context.Context, scope authz.Scope, id int64) (*Class, error) {
	query := `SELECT id, org_id, batch_id, name, created_at, updated_at FROM classes WHERE id = $1`
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	return scanClass(r.pool.QueryRow(ctx, query, args...))
}

// List returns classes within scope ordered by name.
func (r *Repository) List(ctx context.Context, scope authz.Scope) ([]Class, error) {
	query := `SELECT id, org_id, batch_id, name, created_at, updated_at FROM classes`
	var args []any
	if scope.Restricted {
		query += ` WHERE org_id = $1`
		args = append(args, scope.OrgID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// Create inserts a new class.
func (r *Repository) Create(ctx context.Context, c *Class) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO classes (org_id, batch_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		c.OrgID, c.BatchID, c.Name,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update mutates one class within scope.
func (r *Repository) Update(ctx context.Context, scope authz.Scope, c *Class) (int64, error) {
	query := `UPDATE classes SET batch_id = $1, name = $2, updated_at = NOW() WHERE id = $3`
	args := []any{c.BatchID, c.Name, c.ID}
	if scope.Restricted {
		query += ` AND org_id = $4`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes one class within scope.
func (r *Repository) Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM classes WHERE id = $1`
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
