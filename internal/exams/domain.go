package exams

import (
	"encoding/json"
	"time"
)

// ExamStatus tracks the publication state of an exam.
type ExamStatus string

// Possible exam statuses.
const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
	ExamStatusClosed    ExamStatus = "closed"
)

// Exam is one timed examination. Token is the opaque capability string a
// student presents to open it; it is issued once at creation and never
// reissued. A nil ClassID opens the exam to the whole organization, which
// is still tenant bound through the owning instructor.
type Exam struct {
	ID              int64      `json:"id"`
	Token           string     `json:"token"`
	Title           string     `json:"title"`
	CourseID        int64      `json:"course_id"`
	ClassID         *int64     `json:"class_id,omitempty"`
	InstructorID    int64      `json:"instructor_id"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalMarks      int        `json:"total_marks"`
	Status          ExamStatus `json:"status"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Submission is one student's answer sheet for an exam. The exam token is
// echoed for audit but the submitting identity is always the principal.
type Submission struct {
	ID          string          `json:"id"`
	ExamID      int64           `json:"exam_id"`
	StudentID   int64           `json:"student_id"`
	Token       string          `json:"token,omitempty"`
	Answers     json.RawMessage `json:"answers"`
	Score       *float64        `json:"score,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
