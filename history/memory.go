package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps run transcripts in process memory. Suitable for
// tests and short-lived tools.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Record)}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.RunID] = append(s.runs[rec.RunID], *rec)
	return nil
}

// ByRun implements Store.
func (s *MemoryStore) ByRun(ctx context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]Record, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Attempt < out[j].Attempt })
	return out, nil
}
