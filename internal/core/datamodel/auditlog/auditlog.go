// Package auditlog maps rows of the logs table.
package auditlog

import "strings"

const TableName = "logs"

const (
	ColTimestamp = iota
	ColUsername
	ColAction
	ColOrganization
	ColDetail
)

// Headers keeps the layout of deployments that predate this service: date and
// time share the first cell as "YYYY-MM-DD HH:MM:SS".
var Headers = []string{"FechaHora", "Usuario", "Accion", "Escuela", "Detalle"}

type Entry struct {
	Row          int
	Date         string
	Time         string
	Username     string
	Action       string
	Organization string
	Detail       string
}

func FromRow(rowNum int, cells []string) *Entry {
	date, clock := SplitTimestamp(cell(cells, ColTimestamp))
	return &Entry{
		Row:          rowNum,
		Date:         date,
		Time:         clock,
		Username:     cell(cells, ColUsername),
		Action:       cell(cells, ColAction),
		Organization: cell(cells, ColOrganization),
		Detail:       cell(cells, ColDetail),
	}
}

func (e *Entry) ToRow() []string {
	row := make([]string, len(Headers))
	row[ColTimestamp] = strings.TrimSpace(e.Date + " " + e.Time)
	row[ColUsername] = e.Username
	row[ColAction] = e.Action
	row[ColOrganization] = e.Organization
	row[ColDetail] = e.Detail
	return row
}

// SplitTimestamp splits a FechaHora cell on its first space. Cells written with
// an ISO "T" separator are accepted too.
func SplitTimestamp(v string) (date, clock string) {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, " T"); i >= 0 {
		return v[:i], strings.TrimSpace(v[i+1:])
	}
	return v, ""
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
