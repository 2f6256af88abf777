package record

import (
	recordDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/record"
)

// Record is one student row of a school table. Row is the 1-based position in the
// table and is the handle used for positional updates.
type Record struct {
	Row               int    `json:"fila"`
	ID                string `json:"id"`
	Organization      string `json:"escuela,omitempty"`
	Date              string `json:"fecha"`
	Student           string `json:"estudiante"`
	NationalID        string `json:"cedula"`
	Phone             string `json:"telefono"`
	DocumentDelivered bool   `json:"documento_entregado"`
	Grade             string `json:"nota"`
	Term              string `json:"trimestre"`
	Remark            string `json:"observacion"`
	UploadedBy        string `json:"usuario"`
}

// Summary aggregates one school table.
type Summary struct {
	Organization       string         `json:"escuela"`
	Total              int            `json:"total"`
	DocumentsDelivered int            `json:"documentos_entregados"`
	ByTerm             map[string]int `json:"por_trimestre"`
}

func ToDataModel(r *Record) *recordDatamodel.Record {
	return &recordDatamodel.Record{
		Row:               r.Row,
		ID:                r.ID,
		Date:              r.Date,
		Student:           r.Student,
		NationalID:        r.NationalID,
		Phone:             r.Phone,
		DocumentDelivered: r.DocumentDelivered,
		Grade:             r.Grade,
		Term:              r.Term,
		Remark:            r.Remark,
		UploadedBy:        r.UploadedBy,
	}
}

func FromDataModel(r *recordDatamodel.Record, organization string) *Record {
	return &Record{
		Row:               r.Row,
		ID:                r.ID,
		Organization:      organization,
		Date:              r.Date,
		Student:           r.Student,
		NationalID:        r.NationalID,
		Phone:             r.Phone,
		DocumentDelivered: r.DocumentDelivered,
		Grade:             r.Grade,
		Term:              r.Term,
		Remark:            r.Remark,
		UploadedBy:        r.UploadedBy,
	}
}
