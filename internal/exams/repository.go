package exams

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// Repository defines persistence operations for the exams module. The
// exam's owning organization is derived through its instructor, so every
// scoped query joins accounts.
type Repository interface {
	TokenStore
	Get(ctx context.Context, scope authz.Scope, id int64) (*Exam, error)
	GetByToken(ctx context.Context, token string) (*Exam, error)
	ExamOrg(ctx context.Context, examID int64) (int64, error)
	InstructorOrg(ctx context.Context, instructorID int64) (int64, error)
	List(ctx context.Context, scope authz.Scope, page shared.Pagination) ([]Exam, int, error)
	Create(ctx context.Context, exam *Exam) error
	Update(ctx context.Context, scope authz.Scope, exam *Exam) (int64, error)
	Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error)
	StudentClass(ctx context.Context, studentID int64) (*int64, error)
	CreateSubmission(ctx context.Context, sub *Submission) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const examColumns = `e.id, e.token, e.title, e.course_id, e.class_id, e.instructor_id, e.duration_minutes, e.total_marks, e.status, e.starts_at, e.created_at, e.updated_at`

func scanExam(row pgx.Row) (*Exam, error) {
	var exam Exam
	err := row.Scan(&exam.ID, &exam.Token, &exam.Title, &exam.CourseID, &exam.ClassID, &exam.InstructorID, &exam.DurationMinutes, &exam.TotalMarks, &exam.Status, &exam.StartsAt, &exam.CreatedAt, &exam.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// Get fetches one exam within the caller's scope.
func (r *PGRepository) Get(ctx context.Context, scope authz.Scope, id int64) (*Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams e JOIN accounts i ON i.id = e.instructor_id WHERE e.id = $1`, examColumns)
	args := []any{id}
	if scope.Restricted {
		query += ` AND i.org_id = $2`
		args = append(args, scope.OrgID)
	}
	return scanExam(r.pool.QueryRow(ctx, query, args...))
}

// GetByToken fetches one exam by its token. The lookup is tenant agnostic
// on purpose: the token is the capability, and the validator applies the
// tenant checks afterwards.
func (r *PGRepository) GetByToken(ctx context.Context, token string) (*Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams e WHERE e.token = $1`, examColumns)
	exam, err := scanExam(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

// ExamOrg resolves the exam's owning organization via its instructor.
func (r *PGRepository) ExamOrg(ctx context.Context, examID int64) (int64, error) {
	var orgID int64
	err := r.pool.QueryRow(ctx, `
		SELECT i.org_id FROM exams e
		JOIN accounts i ON i.id = e.instructor_id
		WHERE e.id = $1`, examID).Scan(&orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrExamNotFound
		}
		return 0, err
	}
	return orgID, nil
}

// TokenExists answers the issuer's global uniqueness check.
func (r *PGRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM exams WHERE token = $1)`, token).Scan(&exists)
	return exists, err
}

// List returns exams within scope, newest first.
func (r *PGRepository) List(ctx context.Context, scope authz.Scope, page shared.Pagination) ([]Exam, int, error) {
	where := ""
	args := []any{}
	if scope.Restricted {
		where = ` WHERE i.org_id = $1`
		args = append(args, scope.OrgID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM exams e JOIN accounts i ON i.id = e.instructor_id` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM exams e JOIN accounts i ON i.id = e.instructor_id%s ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`,
		examColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []Exam
	for rows.Next() {
		exam, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *exam)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// Create inserts a new exam with its already issued token.
func (r *PGRepository) Create(ctx context.Context, exam *Exam) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO exams (token, title, course_id, class_id, instructor_id, duration_minutes, total_marks, status, starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		exam.Token, exam.Title, exam.CourseID, exam.ClassID, exam.InstructorID, exam.DurationMinutes, exam.TotalMarks, exam.Status, exam.StartsAt,
	).Scan(&exam.ID, &exam.CreatedAt, &exam.UpdatedAt)
}

// Update mutates exam fields within scope. The token column is immutable
// and never part of the update. Returns the affected row count.
func (r *PGRepository) Update(ctx context.Context, scope authz.Scope, exam *Exam) (int64, error) {
	query := `
		UPDATE exams e SET title = $1, course_id = $2, class_id = $3, duration_minutes = $4, total_marks = $5, status = $6, starts_at = $7, updated_at = NOW()
		FROM accounts i
		WHERE e.id = $8 AND i.id = e.instructor_id`
	args := []any{exam.Title, exam.CourseID, exam.ClassID, exam.DurationMinutes, exam.TotalMarks, exam.Status, exam.StartsAt, exam.ID}
	if scope.Restricted {
		query += ` AND i.org_id = $9`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes an exam within scope, returning the affected row count.
func (r *PGRepository) Delete(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM exams e USING accounts i WHERE e.id = $1 AND i.id = e.instructor_id`
	args := []any{id}
	if scope.Restricted {
		query += ` AND i.org_id = $2`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InstructorOrg resolves an instructor's organization.
func (r *PGRepository) InstructorOrg(ctx context.Context, instructorID int64) (int64, error) {
	var orgID int64
	err := r.pool.QueryRow(ctx, `SELECT org_id FROM accounts WHERE id = $1 AND role = 'instructor'`, instructorID).Scan(&orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return orgID, nil
}

// StudentClass returns the student's class id, nil when unassigned.
func (r *PGRepository) StudentClass(ctx context.Context, studentID int64) (*int64, error) {
	var classID *int64
	err := r.pool.QueryRow(ctx, `SELECT class_id FROM accounts WHERE id = $1 AND role = 'student'`, studentID).Scan(&classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return classID, nil
}

// CreateSubmission persists one answer sheet.
func (r *PGRepository) CreateSubmission(ctx context.Context, sub *Submission) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO submissions (id, exam_id, student_id, token, answers, score, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING submitted_at`,
		sub.ID, sub.ExamID, sub.StudentID, sub.Token, sub.Answers, sub.Score,
	).Scan(&sub.SubmittedAt)
}

var _ Repository = (*PGRepository)(nil)
