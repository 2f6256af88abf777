package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-records/internal/transport"
	"github.com/frahmantamala/school-records/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetAll(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, username string, dto UpdateUserDTO) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListUsers handles GET /api/admin/usuarios
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListUsersResponse{Users: users})
}

// CreateUser handles POST /api/admin/usuarios
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user created", "usuario", u.Username)
	h.WriteJSON(w, http.StatusCreated, OKResponse{OK: true})
}

// UpdateUser handles PUT /api/admin/usuarios/{usuario}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.update(w, r, chi.URLParam(r, "usuario"), dto)
}

// UpdateUserFromBody handles POST /api/admin/usuarios/update, where the username
// travels in the body.
func (h *Handler) UpdateUserFromBody(w http.ResponseWriter, r *http.Request) {
	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.update(w, r, dto.Username, dto)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, username string, dto UpdateUserDTO) {
	if _, err := h.Service.Update(r.Context(), username, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}
