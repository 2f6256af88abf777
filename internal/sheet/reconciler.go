package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Reconciler makes sure a table exists and that its header row matches what the
// application writes. It is safe to call before every read or write.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

func (r *Reconciler) Store() Store {
	return r.store
}

// EnsureTable creates name when missing and writes headers into row 1, or rewrites row 1
// when the stored headers differ. Data rows are left alone. Store errors are returned
// as-is and nothing is retried.
func (r *Reconciler) EnsureTable(ctx context.Context, name string, headers []string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidTableName
	}
	if len(headers) == 0 {
		return ErrNoHeaders
	}

	tables, err := r.store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	if !Contains(tables, name) {
		created, err := r.create(ctx, name)
		if err != nil {
			return err
		}
		if created {
			r.logger.Info("table created", "table", name)
			return r.writeHeaders(ctx, name, headers)
		}
	}

	current, err := r.store.Get(ctx, Row(name, 1, len(headers)))
	if err != nil {
		return fmt.Errorf("reading headers of %q: %w", name, err)
	}

	var existing []string
	if len(current) > 0 {
		existing = current[0]
	}
	if equalHeaders(existing, headers) {
		return nil
	}

	r.logger.Warn("header row mismatch, overwriting",
		"table", name,
		"found", existing,
		"expected", headers)
	return r.writeHeaders(ctx, name, headers)
}

// create reports false when another caller created the table first.
func (r *Reconciler) create(ctx context.Context, name string) (bool, error) {
	createErr := r.store.CreateTable(ctx, name)
	if createErr == nil {
		return true, nil
	}

	tables, err := r.store.ListTables(ctx)
	if err != nil {
		return false, fmt.Errorf("creating table %q: %w", name, createErr)
	}
	if Contains(tables, name) {
		r.logger.Debug("table created concurrently", "table", name, "error", createErr)
		return false, nil
	}
	return false, fmt.Errorf("creating table %q: %w", name, createErr)
}

func (r *Reconciler) writeHeaders(ctx context.Context, name string, headers []string) error {
	row := make([]string, len(headers))
	copy(row, headers)
	if err := r.store.Update(ctx, Row(name, 1, len(headers)), [][]string{row}); err != nil {
		return fmt.Errorf("writing headers of %q: %w", name, err)
	}
	return nil
}

func equalHeaders(existing, expected []string) bool {
	if len(existing) != len(expected) {
		return false
	}
	for i := range expected {
		if existing[i] != expected[i] {
			return false
		}
	}
	return true
}
