package record_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/frahmantamala/school-records/internal/core/events"
	"github.com/frahmantamala/school-records/internal/sheet"
	"github.com/frahmantamala/school-records/internal/sheet/memory"
)

// spyStore counts every call that reaches the store and can fail reads of one table.
type spyStore struct {
	*memory.Store
	calls     atomic.Int32
	failTable string
}

func newSpyStore() *spyStore {
	return &spyStore{Store: memory.New()}
}

func (s *spyStore) ListTables(ctx context.Context) ([]string, error) {
	s.calls.Add(1)
	return s.Store.ListTables(ctx)
}

func (s *spyStore) CreateTable(ctx context.Context, name string) error {
	s.calls.Add(1)
	return s.Store.CreateTable(ctx, name)
}

func (s *spyStore) Get(ctx context.Context, r sheet.Range) ([][]string, error) {
	s.calls.Add(1)
	if s.failTable != "" && r.Table == s.failTable {
		return nil, errors.New("backend unavailable")
	}
	return s.Store.Get(ctx, r)
}

func (s *spyStore) Update(ctx context.Context, r sheet.Range, values [][]string) error {
	s.calls.Add(1)
	return s.Store.Update(ctx, r, values)
}

func (s *spyStore) Append(ctx context.Context, table string, values [][]string) (int, error) {
	s.calls.Add(1)
	return s.Store.Append(ctx, table, values)
}

type staticDirectory []string

func (d staticDirectory) AllOrganizations(context.Context) ([]string, error) {
	return []string(d), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.ActionRecorded
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(*events.ActionRecorded); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) recorded() []*events.ActionRecorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.ActionRecorded(nil), p.events...)
}
