package cache

import (
	"context"
	"sync"

	"github.com/wonny/canslim/internal/contracts"
)

// MemoryStore keeps rows in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]*contracts.ScreeningResult
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*contracts.ScreeningResult)}
}

func (s *MemoryStore) Load(_ context.Context, ticker string) (*contracts.ScreeningResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, result *contracts.ScreeningResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[result.Ticker] = result.Clone()
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Backend: "memory", Rows: len(s.rows)}
	for _, r := range s.rows {
		if st.Oldest.IsZero() || r.CachedAt.Before(st.Oldest) {
			st.Oldest = r.CachedAt
		}
		if r.CachedAt.After(st.Newest) {
			st.Newest = r.CachedAt
		}
	}
	return st, nil
}

func (s *MemoryStore) Close() error { return nil }
