package sheet

import (
	"context"
	"errors"
	"time"
)

// timeoutStore bounds every round trip of the wrapped store.
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout wraps store so each call gets its own deadline of d on top of the caller's
// context. A non-positive d returns store unchanged.
func WithTimeout(store Store, d time.Duration) Store {
	if d <= 0 {
		return store
	}
	return &timeoutStore{next: store, timeout: d}
}

func (s *timeoutStore) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.ListTables(ctx)
}

func (s *timeoutStore) CreateTable(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.CreateTable(ctx, name)
}

func (s *timeoutStore) Get(ctx context.Context, r Range) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Get(ctx, r)
}

func (s *timeoutStore) Update(ctx context.Context, r Range, values [][]string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Update(ctx, r, values)
}

func (s *timeoutStore) Append(ctx context.Context, table string, values [][]string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Append(ctx, table, values)
}

func (s *timeoutStore) Ping(ctx context.Context) error {
	p, ok := s.next.(Pinger)
	if !ok {
		return errors.New("sheet: store does not support ping")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return p.Ping(ctx)
}
