// Package tabular persists audit entries in the logs table.
package tabular

import (
	"context"

	"github.com/frahmantamala/school-records/internal/audit"
	auditlogDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/auditlog"
	"github.com/frahmantamala/school-records/internal/sheet"
)

const firstDataRow = 2

type AuditRepository struct {
	reconciler *sheet.Reconciler
}

func NewAuditRepository(reconciler *sheet.Reconciler) audit.RepositoryAPI {
	return &AuditRepository{reconciler: reconciler}
}

func (r *AuditRepository) Append(ctx context.Context, e *auditlogDatamodel.Entry) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	row, err := r.reconciler.Store().Append(ctx, auditlogDatamodel.TableName, [][]string{e.ToRow()})
	if err != nil {
		return err
	}
	e.Row = row
	return nil
}

// GetAll returns every entry in insertion order.
func (r *AuditRepository) GetAll(ctx context.Context) ([]*auditlogDatamodel.Entry, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	rows, err := r.reconciler.Store().Get(ctx, sheet.Rows(auditlogDatamodel.TableName, firstDataRow, len(auditlogDatamodel.Headers)))
	if err != nil {
		return nil, err
	}
	entries := make([]*auditlogDatamodel.Entry, 0, len(rows))
	for i, cells := range rows {
		if len(cells) == 0 {
			continue
		}
		entries = append(entries, auditlogDatamodel.FromRow(firstDataRow+i, cells))
	}
	return entries, nil
}

func (r *AuditRepository) ensure(ctx context.Context) error {
	return r.reconciler.EnsureTable(ctx, auditlogDatamodel.TableName, auditlogDatamodel.Headers)
}
