package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeActionRecorded = "audit.action_recorded"

// ActionRecorded is published after a mutating or security relevant operation succeeds.
type ActionRecorded struct {
	BaseEvent
	Username     string `json:"usuario"`
	Action       string `json:"accion"`
	Organization string `json:"escuela"`
	Detail       string `json:"detalle"`
}

func NewActionRecorded(username, action, organization, detail string, at time.Time) *ActionRecorded {
	if at.IsZero() {
		at = time.Now()
	}
	return &ActionRecorded{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeActionRecorded,
			Timestamp: at,
			Data: map[string]interface{}{
				"usuario": username,
				"accion":  action,
				"escuela": organization,
				"detalle": detail,
			},
		},
		Username:     username,
		Action:       action,
		Organization: organization,
		Detail:       detail,
	}
}
