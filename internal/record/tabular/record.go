// Package tabular persists student records, one sheet table per organization.
package tabular

import (
	"context"
	"errors"

	recordDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/record"
	"github.com/frahmantamala/school-records/internal/record"
	"github.com/frahmantamala/school-records/internal/sheet"
)

const firstDataRow = 2

type RecordRepository struct {
	reconciler *sheet.Reconciler
}

func NewRecordRepository(reconciler *sheet.Reconciler) record.RepositoryAPI {
	return &RecordRepository{reconciler: reconciler}
}

func (r *RecordRepository) List(ctx context.Context, org string) ([]*recordDatamodel.Record, error) {
	if err := r.ensure(ctx, org); err != nil {
		return nil, err
	}
	rows, err := r.reconciler.Store().Get(ctx, sheet.Rows(org, firstDataRow, width()))
	if err != nil {
		return nil, err
	}

	records := make([]*recordDatamodel.Record, 0, len(rows))
	for i, cells := range rows {
		if recordDatamodel.IsBlank(cells) {
			continue
		}
		records = append(records, recordDatamodel.FromRow(firstDataRow+i, cells))
	}
	return records, nil
}

func (r *RecordRepository) Append(ctx context.Context, org string, rec *recordDatamodel.Record) (int, error) {
	if err := r.ensure(ctx, org); err != nil {
		return 0, err
	}
	return r.reconciler.Store().Append(ctx, org, [][]string{rec.ToRow()})
}

func (r *RecordRepository) GetRow(ctx context.Context, org string, row int) (*recordDatamodel.Record, error) {
	if row < firstDataRow {
		return nil, nil
	}
	if err := r.ensure(ctx, org); err != nil {
		return nil, err
	}
	rows, err := r.reconciler.Store().Get(ctx, sheet.Row(org, row, width()))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || recordDatamodel.IsBlank(rows[0]) {
		return nil, nil
	}
	return recordDatamodel.FromRow(row, rows[0]), nil
}

// FindByID scans the table for a synthetic id.
func (r *RecordRepository) FindByID(ctx context.Context, org, id string) (*recordDatamodel.Record, error) {
	records, err := r.List(ctx, org)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *RecordRepository) UpdateRow(ctx context.Context, org string, rec *recordDatamodel.Record) error {
	if rec.Row < firstDataRow {
		return errors.New("record row is not set")
	}
	if err := r.ensure(ctx, org); err != nil {
		return err
	}
	return r.reconciler.Store().Update(ctx, sheet.Row(org, rec.Row, width()), [][]string{rec.ToRow()})
}

func (r *RecordRepository) ensure(ctx context.Context, org string) error {
	return r.reconciler.EnsureTable(ctx, org, recordDatamodel.Headers)
}

func width() int {
	return len(recordDatamodel.Headers)
}
