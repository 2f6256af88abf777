// Package sheet defines the tabular store the application persists into: a set of named
// grids of string cells addressed by 1-based row and column numbers, where row 1 holds
// the headers.
package sheet

import (
	"context"
	"errors"
)

var (
	ErrTableExists      = errors.New("sheet: table already exists")
	ErrTableNotFound    = errors.New("sheet: table not found")
	ErrInvalidTableName = errors.New("sheet: table name must not be empty")
	ErrNoHeaders        = errors.New("sheet: header list must not be empty")
)

// Store is the remote grid. Every call is a blocking round trip.
type Store interface {
	ListTables(ctx context.Context) ([]string, error)
	CreateTable(ctx context.Context, name string) error
	// Get returns the rows inside r. Trailing empty cells and rows may be omitted,
	// so callers must not rely on row or cell counts.
	Get(ctx context.Context, r Range) ([][]string, error)
	// Update overwrites the cells starting at the top-left corner of r.
	Update(ctx context.Context, r Range, values [][]string) error
	// Append writes rows after the last non-empty row and returns the row number the
	// first of them landed on.
	Append(ctx context.Context, table string, values [][]string) (int, error)
}

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Contains reports whether name is in tables, compared exactly.
func Contains(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}
