// Package memory provides an in-memory result store for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/lead-enricher/internal/store"
)

// ResultStore keeps enrichment records in a map.
type ResultStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]store.Record
	now     func() time.Time
}

// NewResultStore constructs a ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		records: make(map[uuid.UUID]store.Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save stores rec, stamping CreatedAt when unset. IDs are write-once.
func (s *ResultStore) Save(_ context.Context, rec store.Record) error {
	if rec.ID == uuid.Nil {
		return errors.New("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return errors.New("record already exists")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Get fetches a record by ID.
func (s *ResultStore) Get(_ context.Context, id uuid.UUID) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Len reports how many records are stored.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec store.Record) store.Record {
	out := rec
	out.Result.Emails = append([]string{}, rec.Result.Emails...)
	out.Result.Phones = append([]string{}, rec.Result.Phones...)
	out.Result.Sources = append([]string{}, rec.Result.Sources...)
	out.Result.InferredProblems = append([]string{}, rec.Result.InferredProblems...)
	return out
}
