package record

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/transport"
	"github.com/frahmantamala/school-records/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, identity *internal.Identity, org string) ([]*Record, error)
	Append(ctx context.Context, identity *internal.Identity, dto CreateRecordDTO) (*Record, error)
	Update(ctx context.Context, identity *internal.Identity, dto UpdateRecordDTO) (*Record, error)
	Search(ctx context.Context, identity *internal.Identity, nationalID string) ([]*Record, error)
	Organizations(ctx context.Context, identity *internal.Identity) ([]string, error)
	Summarize(ctx context.Context, identity *internal.Identity) ([]*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ListOrganizations handles GET /api/escuelas
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	orgs, err := h.Service.Organizations(r.Context(), identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, OrganizationsResponse{Organizations: orgs})
}

// ListRecords handles GET /api/registros?escuela=
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	org := r.URL.Query().Get("escuela")
	records, err := h.Service.List(r.Context(), identity, org)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if resolved, ok := identity.ResolveOrganization(org); ok {
		org = resolved
	}
	h.WriteJSON(w, http.StatusOK, ListRecordsResponse{Organization: org, Records: records})
}

// AppendRecord handles POST /api/registros
func (h *Handler) AppendRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	var dto CreateRecordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	rec, err := h.Service.Append(r.Context(), identity, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AppendResponse{OK: true, Record: rec})
}

// UpdateRecord handles PUT /api/registros
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	var dto UpdateRecordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	rec, err := h.Service.Update(r.Context(), identity, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UpdateResponse{OK: true, Record: rec})
}

// SearchRecords handles GET /api/buscar?cedula=
func (h *Handler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	results, err := h.Service.Search(r.Context(), identity, r.URL.Query().Get("cedula"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Summary handles GET /api/admin/resumen
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summarize(r.Context(), identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SummaryResponse{Summary: summary})
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (*internal.Identity, bool) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return nil, false
	}
	return identity, true
}
