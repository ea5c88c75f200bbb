package questions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/bulk"
	"github.com/examdesk/examdesk/internal/platform/httpx"
	"github.com/examdesk/examdesk/internal/shared"
)

// Handler manages question bank endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler builds Handler instance. The audit logger is optional.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, audit: audit, validator: validator.New()}
}

// MountRoutes registers question routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleSuperAdmin, authz.RoleAdmin, authz.RoleInstructor))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleInstructor))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/bulk", h.bulkUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleAdmin, authz.RoleInstructor))
		r.Post("/bulk-delete", h.bulkDelete)
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
	var courseID int64
	if v := r.URL.Query().Get("course_id"); v != "" {
		courseID, _ = strconv.ParseInt(v, 10, 64)
	}
	page, perPage := shared.PageFromQuery(r.URL.Query())
	questions, total, err := h.service.List(r.Context(), scope, courseID, shared.NewPagination(page, perPage, 0))
	if err != nil {
		h.logger.Error("list questions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if questions == nil {
		questions = []Question{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"questions":  questions,
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
	q, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

type questionRequest struct {
	CourseID int64           `json:"course_id" validate:"required"`
	Body     string          `json:"body" validate:"required,min=3"`
	Options  json.RawMessage `json:"options" validate:"required"`
	Answer   string          `json:"answer" validate:"required"`
	Marks    int             `json:"marks" validate:"min=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	q := &Question{
		CourseID: req.CourseID,
		Body:     req.Body,
		Options:  req.Options,
		Answer:   req.Answer,
		Marks:    req.Marks,
	}
	if err := h.service.Create(r.Context(), scope, q); err != nil {
		h.logger.Error("create question", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
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
	var req questionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	q := &Question{
		ID:       id,
		CourseID: req.CourseID,
		Body:     req.Body,
		Options:  req.Options,
		Answer:   req.Answer,
		Marks:    req.Marks,
	}
	if err := h.service.Update(r.Context(), scope, q); err != nil {
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

type bulkDeleteRequest struct {
	IDs []any `json:"ids"`
}

// bulkDelete attempts each id independently and always answers 200 with
// the classified report; only malformed top-level input is a 400.
func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	p, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req.IDs) == 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	report := h.service.BulkDelete(r.Context(), scope, req.IDs)
	h.recordBulk(r, p, "questions.bulk_delete", report)
	httpx.JSON(w, http.StatusOK, report.ToBody())
}

type bulkUpdateRequest struct {
	IDs    []any      `json:"ids"`
	Fields BulkFields `json:"fields"`
}

func (h *Handler) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	p, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req.IDs) == 0 || req.Fields.Empty() {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	report := h.service.BulkUpdate(r.Context(), scope, req.IDs, req.Fields)
	h.recordBulk(r, p, "questions.bulk_update", report)
	httpx.JSON(w, http.StatusOK, report.ToBody())
}

func (h *Handler) recordBulk(r *http.Request, p authz.Principal, action string, report bulk.Report) {
	if h.audit == nil {
		return
	}
	var orgID int64
	if p.OrgID != nil {
		orgID = *p.OrgID
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  p.ID,
		OrgID:    orgID,
		Action:   action,
		Entity:   "questions",
		EntityID: "bulk",
		Meta: map[string]any{
			"processed": report.Processed(),
			"succeeded": report.SucceededCount(),
		},
	})
	if err != nil && h.logger != nil {
		h.logger.Warn("audit bulk action", slog.Any("error", err))
	}
}
