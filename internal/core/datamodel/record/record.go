// Package record maps student record rows to and from the cells of a per-school table.
package record

import "strings"

const (
	ColDate = iota
	ColStudent
	ColNationalID
	ColPhone
	ColDocument
	ColGrade
	ColTerm
	ColRemark
	ColUploadedBy
	ColID
)

var Headers = []string{
	"Fecha",
	"Estudiante",
	"Cedula",
	"Telefono",
	"Documento",
	"Nota",
	"Trimestre",
	"Observacion",
	"Usuario",
	"ID",
}

const (
	DocumentDelivered = "SI"
	DocumentPending   = "NO"
)

// Record is one row of a school table.
type Record struct {
	Row               int
	ID                string
	Date              string
	Student           string
	NationalID        string
	Phone             string
	DocumentDelivered bool
	Grade             string
	Term              string
	Remark            string
	UploadedBy        string
}

// FromRow maps cells positionally. Missing trailing cells read as empty.
func FromRow(rowNum int, cells []string) *Record {
	return &Record{
		Row:               rowNum,
		Date:              cell(cells, ColDate),
		Student:           cell(cells, ColStudent),
		NationalID:        cell(cells, ColNationalID),
		Phone:             cell(cells, ColPhone),
		DocumentDelivered: ParseDocumentFlag(cell(cells, ColDocument)),
		Grade:             cell(cells, ColGrade),
		Term:              cell(cells, ColTerm),
		Remark:            cell(cells, ColRemark),
		UploadedBy:        cell(cells, ColUploadedBy),
		ID:                cell(cells, ColID),
	}
}

func (r *Record) ToRow() []string {
	row := make([]string, len(Headers))
	row[ColDate] = r.Date
	row[ColStudent] = r.Student
	row[ColNationalID] = r.NationalID
	row[ColPhone] = r.Phone
	row[ColDocument] = FormatDocumentFlag(r.DocumentDelivered)
	row[ColGrade] = r.Grade
	row[ColTerm] = r.Term
	row[ColRemark] = r.Remark
	row[ColUploadedBy] = r.UploadedBy
	row[ColID] = r.ID
	return row
}

// IsBlank reports a row with no cell content at all.
func IsBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func ParseDocumentFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "si", "sí", "true", "1", "x", "yes":
		return true
	}
	return false
}

func FormatDocumentFlag(delivered bool) string {
	if delivered {
		return DocumentDelivered
	}
	return DocumentPending
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return strings.TrimSpace(cells[i])
	}
	return ""
}
