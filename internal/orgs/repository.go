package orgs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

// Get fetches one organization.
func (r *Repository) Get(ctx context.Context, id int64) (*Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `SELECT id, name, status, created_at, updated_at FROM organizations WHERE id = $1`, id).
		Scan(&org.ID, &org.Name, &org.Status, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// List returns all organizations ordered by name.
func (r *Repository) List(ctx context.Context) ([]Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, status, created_at, updated_at FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Status, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// Create inserts a new organization.
func (r *Repository) Create(ctx context.Context, org *Organization) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, status, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		org.Name, org.Status,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if pgErr, ok := db.IsConstraintViolation(err); ok && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// Update mutates one organization.
func (r *Repository) Update(ctx context.Context, org *Organization) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE organizations SET name = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		org.Name, org.Status, org.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes one organization. Rows referencing it keep the delete
// from succeeding; the constraint error surfaces raw.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListSubscriptions returns an organization's subscription rows, latest
// end date first.
func (r *Repository) ListSubscriptions(ctx context.Context, orgID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, status, end_date, created_at FROM subscriptions
		WHERE org_id = $1 ORDER BY end_date DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.OrgID, &sub.Status, &sub.EndDate, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CreateSubscription inserts a new subscription row. An active row
// supersedes the organization's previous active rows, in one transaction,
// so at most one subscription is ever current.
func (r *Repository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if sub.Status == "active" {
			_, err := tx.Exec(ctx, `
				UPDATE subscriptions SET status = 'inactive', updated_at = NOW()
				WHERE org_id = $1 AND status = 'active'`, sub.OrgID)
			if err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			INSERT INTO subscriptions (org_id, status, end_date, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, created_at`,
			sub.OrgID, sub.Status, sub.EndDate,
		).Scan(&sub.ID, &sub.CreatedAt)
	})
}
