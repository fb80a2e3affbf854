package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/matrix"
	"github.com/cognicore/termdoc/pkg/termdoc/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a copy of r, replacing any run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(r), nil
}

// LatestRun implements store.Store.
func (s *Store) LatestRun(ctx context.Context) (store.Run, bool, error) {
	ids := s.sortedIDs()
	if len(ids) == 0 {
		return store.Run{}, false, nil
	}
	r, err := s.GetRun(ctx, ids[0])
	if err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	ids := s.sortedIDs()
	if len(ids) > limit {
		ids = ids[:limit]
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.RunSummary, 0, len(ids))
	for _, id := range ids {
		r := s.runs[id]
		out = append(out, store.RunSummary{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			Words:     len(r.Words),
			Docs:      len(r.Docs),
		})
	}
	return out, nil
}

// sortedIDs returns run IDs newest first.
func (s *Store) sortedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids
}

func copyRun(r store.Run) store.Run {
	r.Words = slices.Clone(r.Words)
	r.Docs = slices.Clone(r.Docs)
	r.Cells = append([]matrix.Cell(nil), r.Cells...)
	r.Values = slices.Clone(r.Values)
	return r
}
