package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examdesk/examdesk/internal/shared"
)

// Repository defines the read side the gate needs.
type Repository interface {
	GetOrganization(ctx context.Context, id int64) (*Organization, error)
	CurrentSubscription(ctx context.Context, orgID int64) (*Subscription, error)
	HasSubscription(ctx context.Context, orgID int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetOrganization fetches one organization.
func (r *PGRepository) GetOrganization(ctx context.Context, id int64) (*Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, status FROM organizations WHERE id = $1`, id)
	var org Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// CurrentSubscription returns the active subscription with the greatest
// end date, or nil when the organization has no active subscription row.
func (r *PGRepository) CurrentSubscription(ctx context.Context, orgID int64) (*Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, org_id, status, end_date
		FROM subscriptions
		WHERE org_id = $1 AND status = 'active'
		ORDER BY end_date DESC
		LIMIT 1`, orgID)
	var sub Subscription
	if err := row.Scan(&sub.ID, &sub.OrgID, &sub.Status, &sub.EndDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// HasSubscription reports whether the organization has any subscription
// row at all, regardless of status. The gate uses it to tell a tenant
// that predates billing apart from one whose window lapsed.
func (r *PGRepository) HasSubscription(ctx context.Context, orgID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE org_id = $1)`, orgID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

var _ Repository = (*PGRepository)(nil)
