package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/textlab/pkg/textlab/store"
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

// SaveRun stores a run, replacing any run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		return nil
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.runs[id]; ok {
		return copyRun(r), true, nil
	}
	return store.Run{}, false, nil
}

// ListRuns returns run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	out := make([]store.RunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.RunSummary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRun(r store.Run) store.Run {
	cp := r
	cp.Ranking = append([]store.RankedDoc(nil), r.Ranking...)
	cp.Terms = append([]store.TermStat(nil), r.Terms...)
	cp.Topics = make([]store.Topic, len(r.Topics))
	for i, t := range r.Topics {
		cp.Topics[i] = store.Topic{
			Index: t.Index,
			Terms: append([]store.TopicTerm(nil), t.Terms...),
		}
	}
	return cp
}
