package audit

import (
	"strings"

	auditlogDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/auditlog"
)

const (
	ActionLogin        = "Iniciar sesión"
	ActionOperatorNote = "Nota de operador"
)

// Entry is one line of the audit log.
type Entry struct {
	Row          int    `json:"-"`
	Timestamp    string `json:"fechaHora"`
	Date         string `json:"fecha"`
	Time         string `json:"hora"`
	Username     string `json:"usuario"`
	Action       string `json:"accion"`
	Organization string `json:"escuela"`
	Detail       string `json:"detalle"`
}

type ListQuery struct {
	Limit       int
	NewestFirst bool
}

type ListLogsResponse struct {
	Logs []*Entry `json:"logs"`
}

func FromDataModel(e *auditlogDatamodel.Entry) *Entry {
	return &Entry{
		Row:          e.Row,
		Timestamp:    strings.TrimSpace(e.Date + " " + e.Time),
		Date:         e.Date,
		Time:         e.Time,
		Username:     e.Username,
		Action:       e.Action,
		Organization: e.Organization,
		Detail:       e.Detail,
	}
}

func ToDataModel(e *Entry) *auditlogDatamodel.Entry {
	return &auditlogDatamodel.Entry{
		Row:          e.Row,
		Date:         e.Date,
		Time:         e.Time,
		Username:     e.Username,
		Action:       e.Action,
		Organization: e.Organization,
		Detail:       e.Detail,
	}
}
