package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/examdesk/examdesk/internal/platform/httpx"
	"github.com/examdesk/examdesk/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type principalResponse struct {
	ID      int64  `json:"id"`
	Role    string `json:"role"`
	OrgID   *int64 `json:"org_id,omitempty"`
	Email   string `json:"email"`
	OrgName string `json:"org_name,omitempty"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresIn int64             `json:"expires_in"`
	Principal principalResponse `json:"principal"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("login rejected", slog.String("email", req.Email))
		}
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int64(h.service.resolver.TTL().Seconds()),
		Principal: principalResponse{
			ID:      user.ID,
			Role:    string(user.Role),
			OrgID:   user.OrgID,
			Email:   user.Email,
			OrgName: user.OrgName,
		},
	})
}
