package quota

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	remaining int64
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-node runs. Expired
// records are dropped lazily on the next charge for the same key.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) Consume(_ context.Context, key string, quota int64, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	rec, ok := s.records[key]
	if !ok || !rec.expiresAt.After(now) {
		rec = &memoryRecord{
			remaining: quota - 1,
			expiresAt: now.Add(window),
		}
		s.records[key] = rec
		return Result{Allowed: true, Remaining: rec.remaining, ResetIn: window}, nil
	}

	if rec.remaining > 0 {
		rec.remaining--
		return Result{Allowed: true, Remaining: rec.remaining, ResetIn: rec.expiresAt.Sub(now)}, nil
	}

	return Result{Allowed: false, Remaining: 0, ResetIn: rec.expiresAt.Sub(now)}, nil
}
