package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	recordDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/record"
)

// FlexBool accepts true/false, 0/1 and the spreadsheet spellings (SI, NO, x, ...).
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*b = false
	case bool:
		*b = FlexBool(v)
	case float64:
		*b = v != 0
	case string:
		*b = FlexBool(recordDatamodel.ParseDocumentFlag(v))
	default:
		return fmt.Errorf("expected boolean, got %T", raw)
	}
	return nil
}

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*n = 0
	case float64:
		*n = FlexInt(v)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			*n = 0
			return nil
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected integer, got %q", v)
		}
		*n = FlexInt(i)
	default:
		return fmt.Errorf("expected integer, got %T", raw)
	}
	return nil
}

// Fields are the user editable columns of a record. The document flag is read from
// documento_entregado, or from documento for older clients.
type Fields struct {
	Student           string    `json:"estudiante"`
	NationalID        string    `json:"cedula"`
	Phone             string    `json:"telefono"`
	DocumentDelivered *FlexBool `json:"documento_entregado,omitempty"`
	Document          *FlexBool `json:"documento,omitempty"`
	Grade             string    `json:"nota"`
	Term              string    `json:"trimestre"`
	Remark            string    `json:"observacion"`
}

func (f *Fields) Delivered() bool {
	if f.DocumentDelivered != nil {
		return bool(*f.DocumentDelivered)
	}
	if f.Document != nil {
		return bool(*f.Document)
	}
	return false
}

func (f *Fields) normalize() {
	f.Student = strings.TrimSpace(f.Student)
	f.NationalID = strings.TrimSpace(f.NationalID)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Grade = strings.TrimSpace(f.Grade)
	f.Term = strings.TrimSpace(f.Term)
	f.Remark = strings.TrimSpace(f.Remark)
}

type CreateRecordDTO struct {
	Organization string `json:"escuela"`
	Fields
}

// UpdateRecordDTO addresses a record by synthetic id, or by row number when no id is
// given.
type UpdateRecordDTO struct {
	Organization string  `json:"escuela"`
	ID           string  `json:"id"`
	Row          FlexInt `json:"fila"`
	Fields
}

type ListRecordsResponse struct {
	Organization string    `json:"escuela"`
	Records      []*Record `json:"registros"`
}

type SearchResponse struct {
	Results []*Record `json:"resultados"`
}

type OrganizationsResponse struct {
	Organizations []string `json:"escuelas"`
}

type SummaryResponse struct {
	Summary []*Summary `json:"resumen"`
}

type AppendResponse struct {
	OK     bool    `json:"ok"`
	Record *Record `json:"registro"`
}

type UpdateResponse struct {
	OK     bool    `json:"ok"`
	Record *Record `json:"registro"`
}
