package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory TaxInfoStore for tests and single-node use.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]TaxInfoRecord
	byHash map[string]uuid.UUID
	byUser map[string]uuid.UUID
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]TaxInfoRecord),
		byHash: make(map[string]uuid.UUID),
		byUser: make(map[string]uuid.UUID),
	}
}

// Save inserts a record
func (s *MemoryStore) Save(ctx context.Context, record TaxInfoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[record.RRNHash]; ok {
		return duplicate("rrn_hash")
	}
	if _, ok := s.byUser[record.UserID]; ok {
		return duplicate("user_id")
	}
	if _, ok := s.byID[record.ID]; ok {
		return duplicate("id")
	}
	s.byID[record.ID] = record
	s.byHash[record.RRNHash] = record.ID
	s.byUser[record.UserID] = record.ID
	return nil
}

// Get retrieves a record by ID
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (TaxInfoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return TaxInfoRecord{}, notFound(id.String())
	}
	return r, nil
}

// FindByHash retrieves a record by RRN hash
func (s *MemoryStore) FindByHash(ctx context.Context, hash string) (TaxInfoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return TaxInfoRecord{}, notFound("hash")
	}
	return s.byID[id], nil
}

// List returns all records ordered by creation time
func (s *MemoryStore) List(ctx context.Context) ([]TaxInfoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]TaxInfoRecord, 0, len(s.byID))
	for _, r := range s.byID {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// UpdateEncryptedRRN replaces the envelope of a record
func (s *MemoryStore) UpdateEncryptedRRN(ctx context.Context, id uuid.UUID, envelope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return notFound(id.String())
	}
	r.EncryptedRRN = envelope
	r.UpdatedAt = time.Now().UTC()
	s.byID[id] = r
	return nil
}
