package orgs

import (
	"context"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// RepositoryPort defines data access methods for organizations.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Organization, error)
	List(ctx context.Context) ([]Organization, error)
	Create(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ListSubscriptions(ctx context.Context, orgID int64) ([]Subscription, error)
	CreateSubscription(ctx context.Context, sub *Subscription) error
}

// GateInvalidator drops cached billing decisions when subscriptions change.
type GateInvalidator interface {
	Invalidate(ctx context.Context, orgID int64)
}

// Service handles organization business logic. Organization management is
// a superadmin surface; admins may only read their own organization, which
// the scope check below enforces.
type Service struct {
	repo RepositoryPort
	gate GateInvalidator
}

// NewService builds Service instance. The gate invalidator is optional.
func NewService(repo RepositoryPort, gate GateInvalidator) *Service {
	return &Service{repo: repo, gate: gate}
}

// Get fetches one organization. Restricted scopes may only see their own.
func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Organization, error) {
	if scope.Restricted && scope.OrgID != id {
		return nil, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns all organizations, or just the caller's own when scoped.
func (s *Service) List(ctx context.Context, scope authz.Scope) ([]Organization, error) {
	if scope.Restricted {
		org, err := s.repo.Get(ctx, scope.OrgID)
		if err != nil {
			return nil, err
		}
		return []Organization{*org}, nil
	}
	return s.repo.List(ctx)
}

// Create inserts a new organization.
func (s *Service) Create(ctx context.Context, org *Organization) error {
	if org.Status == "" {
		org.Status = "active"
	}
	return s.repo.Create(ctx, org)
}

// Update mutates one organization.
func (s *Service) Update(ctx context.Context, org *Organization) error {
	affected, err := s.repo.Update(ctx, org)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	if s.gate != nil {
		s.gate.Invalidate(ctx, org.ID)
	}
	return nil
}

// Delete removes one organization.
func (s *Service) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListSubscriptions returns an organization's subscription history.
func (s *Service) ListSubscriptions(ctx context.Context, scope authz.Scope, orgID int64) ([]Subscription, error) {
	if scope.Restricted && scope.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return s.repo.ListSubscriptions(ctx, orgID)
}

// CreateSubscription adds a subscription window and drops any cached gate
// decision so the new window takes effect immediately.
func (s *Service) CreateSubscription(ctx context.Context, sub *Subscription) error {
	if sub.Status == "" {
		sub.Status = "active"
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return err
	}
	if s.gate != nil {
		s.gate.Invalidate(ctx, sub.OrgID)
	}
	return nil
}
