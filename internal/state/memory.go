package state

import (
	"sync"

	"github.com/alexjbarnes/build-cli/internal/models"
)

// MemoryStore holds the token record in process memory only.
type MemoryStore struct {
	mu  sync.Mutex
	rec models.TokenRecord

	// Saves counts successful Save calls.
	Saves int
}

// NewMemoryStore returns a store seeded with rec, which may be nil.
func NewMemoryStore(rec models.TokenRecord) *MemoryStore {
	return &MemoryStore{rec: rec.Clone()}
}

func (s *MemoryStore) Load() (models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rec.Clone(), nil
}

func (s *MemoryStore) Save(rec models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = rec.Clone()
	s.Saves++

	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = nil

	return nil
}

func (s *MemoryStore) Close() error { return nil }
