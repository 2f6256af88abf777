// Package memory is an in-process sheet.Store used for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/frahmantamala/school-records/internal/sheet"
)

type Store struct {
	mu     sync.RWMutex
	order  []string
	tables map[string][][]string
}

var _ sheet.Store = (*Store)(nil)

func New() *Store {
	return &Store{tables: make(map[string][][]string)}
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *Store) CreateTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return sheet.ErrInvalidTableName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		return fmt.Errorf("%w: %s", sheet.ErrTableExists, name)
	}
	s.tables[name] = nil
	s.order = append(s.order, name)
	return nil
}

func (s *Store) Get(ctx context.Context, r sheet.Range) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	grid, ok := s.tables[r.Table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheet.ErrTableNotFound, r.Table)
	}

	fromRow := max(r.FromRow, 1)
	toRow := len(grid)
	if r.ToRow > 0 && r.ToRow < toRow {
		toRow = r.ToRow
	}

	var out [][]string
	for rowNum := fromRow; rowNum <= toRow; rowNum++ {
		out = append(out, slice(grid[rowNum-1], r.FromCol, r.ToCol))
	}
	return trimTrailingRows(out), nil
}

func (s *Store) Update(ctx context.Context, r sheet.Range, values [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, ok := s.tables[r.Table]
	if !ok {
		return fmt.Errorf("%w: %s", sheet.ErrTableNotFound, r.Table)
	}

	fromRow := max(r.FromRow, 1)
	fromCol := max(r.FromCol, 1)
	for i, row := range values {
		rowNum := fromRow + i
		for len(grid) < rowNum {
			grid = append(grid, nil)
		}
		cells := grid[rowNum-1]
		for j, v := range row {
			col := fromCol + j
			for len(cells) < col {
				cells = append(cells, "")
			}
			cells[col-1] = v
		}
		grid[rowNum-1] = cells
	}
	s.tables[r.Table] = grid
	return nil
}

func (s *Store) Append(ctx context.Context, table string, values [][]string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, ok := s.tables[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", sheet.ErrTableNotFound, table)
	}

	grid = trimTrailingRows(grid)
	first := len(grid) + 1
	for _, row := range values {
		cp := make([]string, len(row))
		copy(cp, row)
		grid = append(grid, cp)
	}
	s.tables[table] = grid
	return first, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Snapshot returns a copy of every stored row of table, for assertions.
func (s *Store) Snapshot(table string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grid := s.tables[table]
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func slice(row []string, fromCol, toCol int) []string {
	from := max(fromCol, 1) - 1
	to := len(row)
	if toCol > 0 && toCol < to {
		to = toCol
	}
	if from >= to {
		return []string{}
	}
	out := make([]string, to-from)
	copy(out, row[from:to])
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func trimTrailingRows(rows [][]string) [][]string {
	for len(rows) > 0 && isEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func isEmpty(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
