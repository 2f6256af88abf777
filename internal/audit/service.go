package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/school-records/internal"
	auditlogDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/auditlog"
)

const DefaultListLimit = 200

type RepositoryAPI interface {
	Append(ctx context.Context, e *auditlogDatamodel.Entry) error
	GetAll(ctx context.Context) ([]*auditlogDatamodel.Entry, error)
}

type Service struct {
	repo   RepositoryAPI
	clock  *internal.Clock
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, clock *internal.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, clock: clock, logger: logger}
}

// Record appends one entry stamped with at, rendered in the configured time zone.
func (s *Service) Record(ctx context.Context, username, action, org, detail string, at time.Time) (*Entry, error) {
	if strings.TrimSpace(action) == "" {
		return nil, internal.NewValidationFieldError("accion", "Falta accion", internal.ErrCodeValidationFailed)
	}
	if at.IsZero() {
		at = s.clock.Now()
	}
	entry := &Entry{
		Timestamp:    s.clock.Date(at) + " " + s.clock.TimeOfDay(at),
		Date:         s.clock.Date(at),
		Time:         s.clock.TimeOfDay(at),
		Username:     username,
		Action:       action,
		Organization: org,
		Detail:       detail,
	}
	row := ToDataModel(entry)
	if err := s.repo.Append(ctx, row); err != nil {
		return nil, internal.StoreError("Error registrando log", err)
	}
	entry.Row = row.Row
	return entry, nil
}

// List returns at most q.Limit of the latest entries, newest first unless asked
// otherwise.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*Entry, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo logs", err)
	}

	if len(rows) > q.Limit {
		rows = rows[len(rows)-q.Limit:]
	}

	entries := make([]*Entry, len(rows))
	for i, row := range rows {
		if q.NewestFirst {
			entries[len(rows)-1-i] = FromDataModel(row)
		} else {
			entries[i] = FromDataModel(row)
		}
	}
	return entries, nil
}
