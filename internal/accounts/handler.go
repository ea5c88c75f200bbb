package accounts

import (
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

// Handler manages account endpoints.
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

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleSuperAdmin, authz.RoleAdmin, authz.RoleInstructor))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(authz.RoleSuperAdmin, authz.RoleAdmin))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/students/bulk-delete", h.bulkDeleteStudents)
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
	p, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var role authz.Role
	if v := r.URL.Query().Get("role"); v != "" {
		parsed, err := authz.ParseRole(v)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		role = parsed
	}
	// Instructors only ever see their students.
	if p.Role == authz.RoleInstructor {
		role = authz.RoleStudent
	}
	page, perPage := shared.PageFromQuery(r.URL.Query())
	accounts, total, err := h.service.List(r.Context(), scope, role, shared.NewPagination(page, perPage, 0))
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"accounts":   accounts,
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
	a, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

type accountRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"required,oneof=super_admin admin instructor student"`
	OrgID    *int64 `json:"org_id"`
	ClassID  *int64 `json:"class_id"`
	BatchID  *int64 `json:"batch_id"`
	IsActive *bool  `json:"is_active"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil || req.Password == "" {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	a := &Account{
		Name:     req.Name,
		Email:    req.Email,
		Role:     role,
		OrgID:    req.OrgID,
		ClassID:  req.ClassID,
		BatchID:  req.BatchID,
		IsActive: true,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := h.service.Create(r.Context(), scope, a, req.Password); err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
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
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	a := &Account{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		ClassID:  req.ClassID,
		BatchID:  req.BatchID,
		IsActive: true,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := h.service.Update(r.Context(), scope, a, req.Password); err != nil {
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

// bulkDeleteStudents attempts each id independently and always answers
// 200 with the classified report; only malformed top-level input is a 400.
func (h *Handler) bulkDeleteStudents(w http.ResponseWriter, r *http.Request) {
	p, scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req.IDs) == 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	report := h.service.BulkDeleteStudents(r.Context(), scope, req.IDs)
	h.recordBulk(r, p, "students.bulk_delete", report)
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
		Entity:   "accounts",
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
