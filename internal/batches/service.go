package batches

import (
	"context"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// RepositoryPort defines data access methods for batches.
type RepositoryPort interface {
	Get(ctx context.Context, scope authz.Scope, id int64) (*Batch, error)
	List(ctx context.Context, scope authz.Scope) ([]Batch, error)
	Create(ctx context.Context, b *Batch) error
	Update(ctx context.Context, scope authz.Scope, b *Batch) (int64, error)
	Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error)
}

// Service handles batch business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Batch, error) {
	return s.repo.Get(ctx, scope, id)
}

func (s *Service) List(ctx context.Context, scope authz.Scope) ([]Batch, error) {
	return s.repo.List(ctx, scope)
}

func (s *Service) Create(ctx context.Context, scope authz.Scope, b *Batch) error {
	if scope.Restricted {
		b.OrgID = scope.OrgID
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Update(ctx context.Context, scope authz.Scope, b *Batch) error {
	affected, err := s.repo.Update(ctx, scope, b)
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
