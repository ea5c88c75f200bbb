package exams

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/platform/httpx"
	"github.com/examdesk/examdesk/internal/shared"
)

// Handler manages exam endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers exam routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleSuperAdmin, authz.RoleAdmin, authz.RoleInstructor))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleAdmin, authz.RoleInstructor))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleStudent))
		r.Get("/take/{token}", h.take)
		r.Post("/{id}/submissions", h.submit)
	})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (authz.Principal, authz.Scope, bool) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return authz.Principal{}, authz.Scope{}, false
	}
	scope, err := authz.ScopeFor(p)
	if err != nil {
		httpx.RespondError(w, err)
		return authz.Principal{}, authz.Scope{}, false
	}
	return p, scope, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	page, perPage := shared.PageFromQuery(r.URL.Query())
	exams, total, err := h.service.List(r.Context(), scope, shared.NewPagination(page, perPage, 0))
	if err != nil {
		h.logger.Error("list exams", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if exams == nil {
		exams = []Exam{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"exams":      exams,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	exam, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exam)
}

type examRequest struct {
	Title           string     `json:"title" validate:"required,min=3"`
	CourseID        int64      `json:"course_id" validate:"required"`
	ClassID         *int64     `json:"class_id"`
	InstructorID    int64      `json:"instructor_id"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1"`
	TotalMarks      int        `json:"total_marks" validate:"min=0"`
	Status          ExamStatus `json:"status"`
	StartsAt        *time.Time `json:"starts_at"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req examRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	// Instructors always own the exams they create; admins may assign one.
	instructorID := req.InstructorID
	if p.Role == authz.RoleInstructor {
		instructorID = p.ID
	}
	if instructorID == 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	exam := &Exam{
		Title:           req.Title,
		CourseID:        req.CourseID,
		ClassID:         req.ClassID,
		InstructorID:    instructorID,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		Status:          req.Status,
		StartsAt:        req.StartsAt,
	}
	created, err := h.service.Create(r.Context(), scope, exam)
	if err != nil {
		h.logger.Error("create exam", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	var req examRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	exam := &Exam{
		ID:              id,
		Title:           req.Title,
		CourseID:        req.CourseID,
		ClassID:         req.ClassID,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		Status:          req.Status,
		StartsAt:        req.StartsAt,
	}
	if err := h.service.Update(r.Context(), scope, exam); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true, "id": id})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), scope, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// take validates and serves the exam behind the token for the student.
func (h *Handler) take(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	exam, err := h.service.ValidateAccess(r.Context(), p, chi.URLParam(r, "token"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exam)
}

type submitRequest struct {
	StudentID      int64           `json:"student_id" validate:"required"`
	Token          string          `json:"token"`
	Answers        json.RawMessage `json:"answers" validate:"required"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	examID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	sub, err := h.service.Submit(r.Context(), p, SubmitRequest{
		ExamID:         examID,
		StudentID:      req.StudentID,
		Answers:        req.Answers,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sub)
}
