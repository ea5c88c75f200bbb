package exams

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/billing"
	"github.com/examdesk/examdesk/internal/shared"
)

// fakeRepo keeps one exam plus the org/class facts the validator consults.
type fakeRepo struct {
	exam          *Exam
	examOrg       int64
	instructorOrg int64
	studentClass  *int64
	submissions   []*Submission
	submitErr     error
}

func (f *fakeRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func (f *fakeRepo) Get(ctx context.Context, scope authz.Scope, id int64) (*Exam, error) {
	if f.exam == nil || f.exam.ID != id {
		return nil, shared.ErrNotFound
	}
	return f.exam, nil
}

func (f *fakeRepo) GetByToken(ctx context.Context, token string) (*Exam, error) {
	if f.exam == nil || f.exam.Token != token {
		return nil, shared.ErrExamNotFound
	}
	return f.exam, nil
}

func (f *fakeRepo) ExamOrg(ctx context.Context, examID int64) (int64, error) {
	return f.examOrg, nil
}

func (f *fakeRepo) InstructorOrg(ctx context.Context, instructorID int64) (int64, error) {
	return f.instructorOrg, nil
}

func (f *fakeRepo) List(ctx context.Context, scope authz.Scope, page shared.Pagination) ([]Exam, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Create(ctx context.Context, exam *Exam) error {
	exam.ID = 1
	f.exam = exam
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, scope authz.Scope, exam *Exam) (int64, error) {
	return 1, nil
}

func (f *fakeRepo) Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	return 1, nil
}

func (f *fakeRepo) StudentClass(ctx context.Context, studentID int64) (*int64, error) {
	return f.studentClass, nil
}

func (f *fakeRepo) CreateSubmission(ctx context.Context, sub *Submission) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submissions = append(f.submissions, sub)
	return nil
}

// fakeIdemStore mirrors the key semantics of the real store: duplicate
// inserts conflict, deletes release the key.
type fakeIdemStore struct {
	keys map[string]bool
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{keys: map[string]bool{}}
}

func (f *fakeIdemStore) CheckAndInsert(ctx context.Context, key, scope string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdemStore) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

type fakeGate struct {
	access billing.Access
}

func (f *fakeGate) IsAccessible(ctx context.Context, orgID int64) (billing.Access, error) {
	return f.access, nil
}

func ptr(v int64) *int64 { return &v }

func student(id, orgID int64) authz.Principal {
	return authz.Principal{ID: id, Role: authz.RoleStudent, OrgID: ptr(orgID), Email: "s@x.test"}
}

func newTestService(repo *fakeRepo, gate *fakeGate) *Service {
	return NewService(repo, NewIssuer(repo, DefaultTokenLength), gate, nil, nil, nil)
}

func TestValidateAccessUnknownToken(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	_, err := svc.ValidateAccess(context.Background(), student(1, 5), "nope1234")
	require.ErrorIs(t, err, shared.ErrExamNotFound)
}

func TestValidateAccessWrongTenant(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345", Title: "Algebra"},
		examOrg: 5,
	}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	_, err := svc.ValidateAccess(context.Background(), student(1, 6), "abc12345")
	require.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestValidateAccessClassMismatchSameTenant(t *testing.T) {
	repo := &fakeRepo{
		exam:         &Exam{ID: 1, Token: "abc12345", ClassID: ptr(7)},
		examOrg:      5,
		studentClass: ptr(9),
	}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	_, err := svc.ValidateAccess(context.Background(), student(1, 5), "abc12345")
	require.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestValidateAccessUnassignedStudent(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345", ClassID: ptr(7)},
		examOrg: 5,
	}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	_, err := svc.ValidateAccess(context.Background(), student(1, 5), "abc12345")
	require.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestValidateAccessOrgWideExam(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345"},
		examOrg: 5,
	}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	exam, err := svc.ValidateAccess(context.Background(), student(1, 5), "abc12345")
	require.NoError(t, err)
	require.Equal(t, int64(1), exam.ID)
}

func TestValidateAccessExpiredSubscription(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345"},
		examOrg: 5,
	}
	gate := &fakeGate{access: billing.Access{Allowed: false, Reason: billing.ReasonSubscriptionExpired}}
	svc := newTestService(repo, gate)

	_, err := svc.ValidateAccess(context.Background(), student(1, 5), "abc12345")
	require.ErrorIs(t, err, shared.ErrSubscriptionExpired)
}

func TestValidateSubmissionIdentityCheck(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345"},
		examOrg: 5,
	}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	// Claiming another student's id is denied even with everything else valid.
	_, err := svc.ValidateSubmission(context.Background(), student(1, 5), 1, 2)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.ValidateSubmission(context.Background(), student(1, 5), 1, 1)
	require.NoError(t, err)
}

func TestValidateSubmissionUnknownExam(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	_, err := svc.ValidateSubmission(context.Background(), student(1, 5), 99, 1)
	require.ErrorIs(t, err, shared.ErrExamNotFound)
}

func TestSubmitPersistsAndCarriesToken(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345", Title: "Algebra"},
		examOrg: 5,
	}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	sub, err := svc.Submit(context.Background(), student(1, 5), SubmitRequest{
		ExamID:    1,
		StudentID: 1,
		Answers:   json.RawMessage(`{"q1":"a"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)
	require.Equal(t, "abc12345", sub.Token)
	require.Len(t, repo.submissions, 1)
}

func TestSubmitDuplicateKeyRejected(t *testing.T) {
	repo := &fakeRepo{
		exam:    &Exam{ID: 1, Token: "abc12345", Title: "Algebra"},
		examOrg: 5,
	}
	idem := newFakeIdemStore()
	svc := NewService(repo, NewIssuer(repo, DefaultTokenLength), &fakeGate{access: billing.Access{Allowed: true}}, nil, idem, nil)

	req := SubmitRequest{ExamID: 1, StudentID: 1, Answers: json.RawMessage(`{}`), IdempotencyKey: "k-1"}
	_, err := svc.Submit(context.Background(), student(1, 5), req)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), student(1, 5), req)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestSubmitReleasesKeyOnWriteFailure(t *testing.T) {
	repo := &fakeRepo{
		exam:      &Exam{ID: 1, Token: "abc12345", Title: "Algebra"},
		examOrg:   5,
		submitErr: errors.New("connection reset"),
	}
	idem := newFakeIdemStore()
	svc := NewService(repo, NewIssuer(repo, DefaultTokenLength), &fakeGate{access: billing.Access{Allowed: true}}, nil, idem, nil)

	req := SubmitRequest{ExamID: 1, StudentID: 1, Answers: json.RawMessage(`{}`), IdempotencyKey: "k-1"}
	_, err := svc.Submit(context.Background(), student(1, 5), req)
	require.Error(t, err)
	require.NotContains(t, idem.keys, "k-1")

	// A retry of the same submission goes through instead of reading as
	// a duplicate.
	repo.submitErr = nil
	sub, err := svc.Submit(context.Background(), student(1, 5), req)
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)
	require.Len(t, repo.submissions, 1)
}

func TestCreateRejectsForeignInstructor(t *testing.T) {
	repo := &fakeRepo{instructorOrg: 9}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	_, err := svc.Create(context.Background(), authz.OrgScope(5), &Exam{Title: "Algebra", InstructorID: 3})
	require.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestCreateIssuesToken(t *testing.T) {
	repo := &fakeRepo{instructorOrg: 5}
	svc := newTestService(repo, &fakeGate{access: billing.Access{Allowed: true}})

	exam, err := svc.Create(context.Background(), authz.OrgScope(5), &Exam{Title: "Algebra", InstructorID: 3})
	require.NoError(t, err)
	require.Len(t, exam.Token, DefaultTokenLength)
	require.Equal(t, ExamStatusDraft, exam.Status)
}
