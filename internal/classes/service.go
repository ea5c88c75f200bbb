package classes

import (
	"context"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// RepositoryPort defines data access methods for classes.
type RepositoryPort interface {
	Get(ctx context.Context, scope authz.Scope, id int64) (*Class, error)
	List(ctx context.Context, scope authz.Scope) ([]Class, error)
	Create(ctx context.Context, c *Class) error
	Update(ctx context.Context, scope authz.Scope, c *Class) (int64, error)
	Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error)
}

// Service handles class business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get fetches one class within scope.
func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Class, error) {
	return s.repo.Get(ctx, scope, id)
}

// List returns classes within scope.
func (s *Service) List(ctx context.Context, scope authz.Scope) ([]Class, error) {
	return s.repo.List(ctx, scope)
}

// Create inserts a class into the caller's organization.
func (s *Service) Create(ctx context.Context, scope authz.Scope, c *Class) error {
	if scope.Restricted {
		c.OrgID = scope.OrgID
	}
	return s.repo.Create(ctx, c)
}

// Update mutates one class within scope.
func (s *Service) Update(ctx context.Context, scope authz.Scope, c *Class) error {
	affected, err := s.repo.Update(ctx, scope, c)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes one class within scope.
func (s *Service) Delete(ctx context.Context, scope authz.Scope, id int64) error {
	affected, err := s.repo.Delete(ctx, scope, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
