package content

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	bySlug  map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bySlug: make(map[string]int)}
}

func (s *MemoryStore) Exists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *MemoryStore) Insert(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return &StorageFailure{Op: "insert", Slug: record.Slug, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySlug[record.Slug]; ok {
		return &StorageFailure{Op: "insert", Slug: record.Slug, Err: ErrDuplicateSlug}
	}
	s.bySlug[record.Slug] = len(s.records)
	s.records = append(s.records, *record)
	return nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	limit = NormalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := make([]int, len(s.records))
	for i := range idx {
		idx[i] = len(s.records) - 1 - i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.records[idx[a]].CreatedAt.After(s.records[idx[b]].CreatedAt)
	})

	if len(idx) > limit {
		idx = idx[:limit]
	}
	out := make([]Record, len(idx))
	for i, j := range idx {
		out[i] = s.records[j]
	}
	return out, nil
}

func (s *MemoryStore) Lookup(ctx context.Context, slug string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.bySlug[slug]
	if !ok {
		return nil, nil
	}
	r := s.records[i]
	return &r, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
