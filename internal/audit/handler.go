package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/school-records/internal/transport"
	"github.com/frahmantamala/school-records/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, q ListQuery) ([]*Entry, error)
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

// ListLogs handles GET /api/admin/logs?limit=&orden=
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{Limit: DefaultListLimit, NewestFirst: true}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			q.Limit = l
		}
	}
	if strings.EqualFold(r.URL.Query().Get("orden"), "asc") {
		q.NewestFirst = false
	}

	entries, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListLogsResponse{Logs: entries})
}
