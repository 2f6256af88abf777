// Package postgres stores sheet tables in a relational database through gorm. It runs
// on PostgreSQL in production and on SQLite in tests.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sheetDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/sheet"
	"github.com/frahmantamala/school-records/internal/sheet"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

var _ sheet.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the backing tables. Production schemas come from the goose
// migrations in db/migrations.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&sheetDatamodel.Table{}, &sheetDatamodel.Row{})
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&sheetDatamodel.Table{}).
		Order("id ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) CreateTable(ctx context.Context, name string) error {
	if name == "" {
		return sheet.ErrInvalidTableName
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&sheetDatamodel.Table{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", sheet.ErrTableExists, name)
		}
		return tx.Create(&sheetDatamodel.Table{Name: name}).Error
	})
}

func (s *Store) Get(ctx context.Context, r sheet.Range) ([][]string, error) {
	db := s.db.WithContext(ctx)
	table, err := findTable(db, r.Table)
	if err != nil {
		return nil, err
	}

	query := db.Where("table_id = ?", table.ID)
	if r.FromRow > 0 {
		query = query.Where("row_num >= ?", r.FromRow)
	}
	if r.ToRow > 0 {
		query = query.Where("row_num <= ?", r.ToRow)
	}

	var rows []sheetDatamodel.Row
	if err := query.Order("row_num ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	fromRow := max(r.FromRow, 1)
	var out [][]string
	for _, row := range rows {
		for fromRow+len(out) < row.RowNum {
			out = append(out, []string{})
		}
		out = append(out, columns(row.Cells, r.FromCol, r.ToCol))
	}
	return trimTrailingRows(out), nil
}

func (s *Store) Update(ctx context.Context, r sheet.Range, values [][]string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := findTable(tx, r.Table)
		if err != nil {
			return err
		}

		fromRow := max(r.FromRow, 1)
		fromCol := max(r.FromCol, 1)
		for i, cells := range values {
			rowNum := fromRow + i

			var row sheetDatamodel.Row
			err := tx.Where("table_id = ? AND row_num = ?", table.ID, rowNum).First(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row = sheetDatamodel.Row{TableID: table.ID, RowNum: rowNum}
			case err != nil:
				return err
			}

			for j, v := range cells {
				col := fromCol + j
				for len(row.Cells) < col {
					row.Cells = append(row.Cells, "")
				}
				row.Cells[col-1] = v
			}

			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Append(ctx context.Context, tableName string, values [][]string) (int, error) {
	var first int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := findTable(lockTable(tx), tableName)
		if err != nil {
			return err
		}

		var last int
		err = tx.Model(&sheetDatamodel.Row{}).
			Where("table_id = ?", table.ID).
			Select("COALESCE(MAX(row_num), 0)").
			Scan(&last).Error
		if err != nil {
			return err
		}

		first = last + 1
		rows := make([]sheetDatamodel.Row, 0, len(values))
		for i, cells := range values {
			rows = append(rows, sheetDatamodel.Row{
				TableID: table.ID,
				RowNum:  first + i,
				Cells:   append([]string{}, cells...),
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return first, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func findTable(db *gorm.DB, name string) (*sheetDatamodel.Table, error) {
	var table sheetDatamodel.Table
	err := db.Where("name = ?", name).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", sheet.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// lockTable serializes appends to the same table on PostgreSQL. SQLite has no row
// locks and already serializes writers.
func lockTable(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func columns(cells []string, fromCol, toCol int) []string {
	from := max(fromCol, 1) - 1
	to := len(cells)
	if toCol > 0 && toCol < to {
		to = toCol
	}
	if from >= to {
		return []string{}
	}
	out := append([]string{}, cells[from:to]...)
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func trimTrailingRows(rows [][]string) [][]string {
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}
