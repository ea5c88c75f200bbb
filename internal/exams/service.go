package exams

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/billing"
	"github.com/examdesk/examdesk/internal/shared"
)

// AccessGate is the subscription gate consulted on student exam paths.
type AccessGate interface {
	IsAccessible(ctx context.Context, orgID int64) (billing.Access, error)
}

// Notifier enqueues transactional notifications. Delivery happens in the
// background worker; failures here never fail the request.
type Notifier interface {
	SubmissionReceived(ctx context.Context, email, examTitle, receiptID string) error
}

// IdempotencyStore absorbs duplicate submissions keyed by client token.
// Delete releases a key after the guarded write fails, so a retry of the
// same submission is not rejected as a duplicate.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key string) error
}

// Service carries exam lifecycle rules, including the per-request session
// validation for student access and submission.
type Service struct {
	repo     Repository
	issuer   *Issuer
	gate     AccessGate
	notifier Notifier
	idem     IdempotencyStore
	logger   *slog.Logger
}

// NewService constructs a Service. Notifier and idempotency store are
// optional.
func NewService(repo Repository, issuer *Issuer, gate AccessGate, notifier Notifier, idem IdempotencyStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, gate: gate, notifier: notifier, idem: idem, logger: logger}
}

// Get fetches one exam within the caller's scope.
func (s *Service) Get(ctx context.Context, scope authz.Scope, id int64) (*Exam, error) {
	return s.repo.Get(ctx, scope, id)
}

// List returns exams within the caller's scope.
func (s *Service) List(ctx context.Context, scope authz.Scope, page shared.Pagination) ([]Exam, int, error) {
	return s.repo.List(ctx, scope, page)
}

// Create issues a fresh token and persists the exam. Tokens are never
// reissued for the same exam. When the caller's scope is restricted the
// assigned instructor must belong to the caller's organization.
func (s *Service) Create(ctx context.Context, scope authz.Scope, exam *Exam) (*Exam, error) {
	if scope.Restricted {
		orgID, err := s.repo.InstructorOrg(ctx, exam.InstructorID)
		if err != nil {
			return nil, err
		}
		if orgID != scope.OrgID {
			return nil, shared.ErrAccessDenied
		}
	}

	token, err := s.issuer.Issue(ctx)
	if err != nil {
		return nil, err
	}
	exam.Token = token
	if exam.Status == "" {
		exam.Status = ExamStatusDraft
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Update mutates an exam within scope.
func (s *Service) Update(ctx context.Context, scope authz.Scope, exam *Exam) error {
	affected, err := s.repo.Update(ctx, scope, exam)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an exam within scope.
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

// ValidateAccess checks that the principal may open the exam behind the
// token. Checks run in order and short-circuit: token lookup, owning
// tenant, class enrollment, subscription gate. The token lookup itself is
// tenant agnostic; the token is the capability.
//
// Validation runs fresh on every call. Class assignment and subscription
// status can change between a student opening an exam and submitting it,
// so nothing here is cached as a session.
func (s *Service) ValidateAccess(ctx context.Context, p authz.Principal, token string) (*Exam, error) {
	exam, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.validateStudent(ctx, p, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// ValidateSubmission runs the access checks for the exam plus the identity
// check: a student may never submit on another student's behalf, even with
// a valid token.
func (s *Service) ValidateSubmission(ctx context.Context, p authz.Principal, examID, claimedStudentID int64) (*Exam, error) {
	exam, err := s.repo.Get(ctx, authz.Unrestricted(), examID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrExamNotFound
		}
		return nil, err
	}
	if p.Role == authz.RoleStudent && claimedStudentID != p.ID {
		return nil, shared.ErrAccessDenied
	}
	if err := s.validateStudent(ctx, p, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// validateStudent applies the student-only checks: owning tenant via the
// exam's instructor, class enrollment when the exam requires one, and the
// subscription gate. A nil ClassID on the exam means open to the whole
// organization, never open to everyone.
func (s *Service) validateStudent(ctx context.Context, p authz.Principal, exam *Exam) error {
	if p.Role != authz.RoleStudent {
		return nil
	}

	orgID, err := s.repo.ExamOrg(ctx, exam.ID)
	if err != nil {
		return err
	}
	if !p.InOrg(orgID) {
		return shared.ErrAccessDenied
	}

	if exam.ClassID != nil {
		classID, err := s.repo.StudentClass(ctx, p.ID)
		if err != nil {
			return err
		}
		if classID == nil || *classID != *exam.ClassID {
			return shared.ErrAccessDenied
		}
	}

	access, err := s.gate.IsAccessible(ctx, orgID)
	if err != nil {
		return err
	}
	if !access.Allowed {
		return shared.ErrSubscriptionExpired
	}
	return nil
}

// SubmitRequest carries a student's answer sheet.
type SubmitRequest struct {
	ExamID         int64
	StudentID      int64
	Answers        json.RawMessage
	IdempotencyKey string
}

// Submit validates and persists a submission, then enqueues the receipt
// notification. Re-validation here is a deliberate defense against stale
// sessions, not redundant work.
func (s *Service) Submit(ctx context.Context, p authz.Principal, req SubmitRequest) (*Submission, error) {
	exam, err := s.ValidateSubmission(ctx, p, req.ExamID, req.StudentID)
	if err != nil {
		return nil, err
	}

	keyed := s.idem != nil && req.IdempotencyKey != ""
	if keyed {
		if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, "exams.submit"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, shared.ErrDuplicate
			}
			return nil, err
		}
	}

	sub := &Submission{
		ID:        uuid.NewString(),
		ExamID:    exam.ID,
		StudentID: req.StudentID,
		Token:     exam.Token,
		Answers:   req.Answers,
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		if keyed {
			if delErr := s.idem.Delete(ctx, req.IdempotencyKey); delErr != nil && s.logger != nil {
				s.logger.Warn("release idempotency key",
					slog.String("key", req.IdempotencyKey), slog.Any("error", delErr))
			}
		}
		return nil, err
	}

	if s.notifier != nil && p.Email != "" {
		if err := s.notifier.SubmissionReceived(ctx, p.Email, exam.Title, sub.ID); err != nil && s.logger != nil {
			s.logger.Warn("enqueue submission notification",
				slog.String("submission", sub.ID), slog.Any("error", err))
		}
	}
	return sub, nil
}
