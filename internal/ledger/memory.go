package ledger

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is a concurrency-safe in-memory Store. It backs tests and
// runs without a ledger path.
type MemoryStore struct {
	mu sync.RWMutex

	record RunRecord
	saves  int

	// failSave, when set, is returned by Save.
	failSave error
}

// NewMemoryStore creates a store, optionally seeded with a record.
func NewMemoryStore(seed RunRecord) *MemoryStore {
	return &MemoryStore{record: cloneRecord(seed)}
}

func (s *MemoryStore) Load(_ context.Context) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecord(s.record), nil
}

func (s *MemoryStore) Save(_ context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave != nil {
		return s.failSave
	}
	s.record = cloneRecord(rec)
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// FailSaves makes subsequent saves return err; nil restores normal saves.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

func cloneRecord(r RunRecord) RunRecord {
	r.LastPeriodSnapshot = maps.Clone(r.LastPeriodSnapshot)
	r.Periods = maps.Clone(r.Periods)
	r.History = append([]Entry(nil), r.History...)
	return r
}
