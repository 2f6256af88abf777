package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/school-records/internal/core/events"
)

// EventHandler writes every recorded action to the audit log. It runs on bus
// goroutines, so failures only reach the log.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandleActionRecorded(ctx context.Context, event events.Event) error {
	recorded, ok := event.(*events.ActionRecorded)
	if !ok {
		h.logger.Error("invalid event type for action recorded handler", "event_type", event.EventType())
		return fmt.Errorf("expected ActionRecorded, got %T", event)
	}

	_, err := h.service.Record(ctx, recorded.Username, recorded.Action, recorded.Organization, recorded.Detail, recorded.OccurredAt())
	if err != nil {
		return fmt.Errorf("writing audit entry %s: %w", recorded.EventID(), err)
	}

	h.logger.Debug("audit entry written",
		"accion", recorded.Action,
		"usuario", recorded.Username,
		"event_id", recorded.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeActionRecorded, h.HandleActionRecorded)
}
