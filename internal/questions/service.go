package questions

import (
	"context"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/bulk"
	"github.com/examdesk/examdesk/internal/shared"
)

// RepositoryPort defines data access methods for questions.
type RepositoryPort interface {
	Get(ctx context.Context, scope authz.Scope, id int64) (*Question, error)
	List(ctx context.Context, scope authz.Scope, courseID int64, page shared.Pagination) ([]Question, int, error)
	Create(ctx context.Context, q *Question) error
	Update(ctx context.Context, scope authz.Scope, q *Question) (int64, error)
	UpdateFields(ctx context.Context, scope authz.Scope, id int64, fields BulkFields) (int64, error)
	DeleteOne(ctx context.Context, scope authz.Scope, id int64) (int64, error)
}

// Service handles question bank business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get fetches one question within scope.
func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Question, error) {
	return s.repo.Get(ctx, scope, id)
}

// List returns questions within scope.
func (s *Service) List(ctx context.Context, scope authz.Scope, courseID int64, page shared.Pagination) ([]Question, int, error) {
	return s.repo.List(ctx, scope, courseID, page)
}

// Create inserts a new question into the caller's organization.
func (s *Service) Create(ctx context.Context, scope authz.Scope, q *Question) error {
	if scope.Restricted {
		q.OrgID = scope.OrgID
	}
	return s.repo.Create(ctx, q)
}

// Update mutates one question within scope.
func (s *Service) Update(ctx context.Context, scope authz.Scope, q *Question) error {
	affected, err := s.repo.Update(ctx, scope, q)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes one question within scope.
func (s *Service) Delete(ctx context.Context, scope authz.Scope, id int64) error {
	affected, err := s.repo.DeleteOne(ctx, scope, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// BulkDelete attempts each id independently in input order. Out-of-scope
// rows count as not found; per-item failures never abort the sequence.
func (s *Service) BulkDelete(ctx context.Context, scope authz.Scope, ids []any) bulk.Report {
	return bulk.Execute(ctx, bulk.OpDelete, ids, func(ctx context.Context, id int64) (bulk.Result, error) {
		affected, err := s.repo.DeleteOne(ctx, scope, id)
		if err != nil {
			return bulk.Result{}, err
		}
		return bulk.Result{Affected: affected}, nil
	})
}

// BulkUpdate applies one set of fields to each id independently.
func (s *Service) BulkUpdate(ctx context.Context, scope authz.Scope, ids []any, fields BulkFields) bulk.Report {
	applied := fields.Applied()
	return bulk.Execute(ctx, bulk.OpUpdate, ids, func(ctx context.Context, id int64) (bulk.Result, error) {
		affected, err := s.repo.UpdateFields(ctx, scope, id, fields)
		if err != nil {
			return bulk.Result{}, err
		}
		return bulk.Result{Affected: affected, Fields: applied}, nil
	})
}
