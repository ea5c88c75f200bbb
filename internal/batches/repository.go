package batches

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

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	if err := row.Scan(&b.ID, &b.OrgID, &b.Name, &b.StartsOn, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Get fetches one batch within scope.
func (r *Repository) Get(ctx context.Context, scope authz.Scope, id int64) (*Batch, error) {
	query := `SELECT id, org_id, name, starts_on, created_at, updated_at FROM batches WHERE id = $1`
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	return scanBatch(r.pool.QueryRow(ctx, query, args...))
}

// List returns batches within scope, newest first.
func (r *Repository) List(ctx context.Context, scope authz.Scope) ([]Batch, error) {
	query := `SELECT id, org_id, name, starts_on, created_at, updated_at FROM batches`
	var args []any
	if scope.Restricted {
		query += ` WHERE org_id = $1`
		args = append(args, scope.OrgID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

// Create inserts a new batch.
func (r *Repository) Create(ctx context.Context, b *Batch) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO batches (org_id, name, starts_on, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		b.OrgID, b.Name, b.StartsOn,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// Update mutates one batch within scope.
func (r *Repository) Update(ctx context.Context, scope authz.Scope, b *Batch) (int64, error) {
	query := `UPDATE batches SET name = $1, starts_on = $2, updated_at = NOW() WHERE id = $3`
	args := []any{b.Name, b.StartsOn, b.ID}
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

// Delete removes one batch within scope.
func (r *Repository) Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM batches WHERE id = $1`
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
