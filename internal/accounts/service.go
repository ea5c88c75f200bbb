package accounts

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/bulk"
	"github.com/examdesk/examdesk/internal/platform/db"
	"github.com/examdesk/examdesk/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Get(ctx context.Context, scope authz.Scope, id int64) (*Account, error)
	List(ctx context.Context, scope authz.Scope, role authz.Role, page shared.Pagination) ([]Account, int, error)
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, scope authz.Scope, a *Account) (int64, error)
	DeleteOne(ctx context.Context, scope authz.Scope, id int64) (int64, error)
	DeleteStudent(ctx context.Context, scope authz.Scope, id int64) (int64, error)
}

// Service handles account management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get fetches one account within scope.
func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Account, error) {
	return s.repo.Get(ctx, scope, id)
}

// List returns accounts within scope, optionally filtered by role.
func (s *Service) List(ctx context.Context, scope authz.Scope, role authz.Role, page shared.Pagination) ([]Account, int, error) {
	return s.repo.List(ctx, scope, role, page)
}

// Create inserts a new account with a freshly hashed password. Tenant
// callers may not mint superadmins and always create into their own
// organization.
func (s *Service) Create(ctx context.Context, scope authz.Scope, a *Account, password string) error {
	if scope.Restricted {
		if a.Role == authz.RoleSuperAdmin {
			return shared.ErrForbidden
		}
		org := scope.OrgID
		a.OrgID = &org
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	if err := s.repo.Create(ctx, a); err != nil {
		if pgErr, ok := db.IsConstraintViolation(err); ok && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// Update mutates one account within scope. A non-empty password is
// rehashed; an empty one leaves the stored hash untouched.
func (s *Service) Update(ctx context.Context, scope authz.Scope, a *Account, password string) error {
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		a.PasswordHash = string(hash)
	}
	affected, err := s.repo.Update(ctx, scope, a)
	if err != nil {
		if pgErr, ok := db.IsConstraintViolation(err); ok && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes one account within scope.
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

// BulkDeleteStudents attempts each id independently in input order.
// Non-student rows and out-of-scope rows count as not found; per-item
// failures never abort the sequence.
func (s *Service) BulkDeleteStudents(ctx context.Context, scope authz.Scope, ids []any) bulk.Report {
	return bulk.Execute(ctx, bulk.OpDelete, ids, func(ctx context.Context, id int64) (bulk.Result, error) {
		affected, err := s.repo.DeleteStudent(ctx, scope, id)
		if err != nil {
			return bulk.Result{}, err
		}
		return bulk.Result{Affected: affected}, nil
	})
}
