package courses

import (
	"context"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// RepositoryPort defines data access methods for courses.
type RepositoryPort interface {
	Get(ctx context.Context, scope authz.Scope, id int64) (*Course, error)
	List(ctx context.Context, scope authz.Scope) ([]Course, error)
	Create(ctx context.Context, c *Course) error
	Update(ctx context.Context, scope authz.Scope, c *Course) (int64, error)
	Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error)
}

// Service handles course business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Course, error) {
	return s.repo.Get(ctx, scope, id)
}

func (s *Service) List(ctx context.Context, scope authz.Scope) ([]Course, error) {
	return s.repo.List(ctx, scope)
}

func (s *Service) Create(ctx context.Context, scope authz.Scope, c *Course) error {
	if scope.Restricted {
		c.OrgID = scope.OrgID
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, scope authz.Scope, c *Course) error {
	affected, err := s.repo.Update(ctx, scope, c)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

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
