package store

import (
	"context"
	"sync"

	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
)

// MemoryStore is an in-process MetadataStore for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.SubjectID]models.DegreeMetadata
}

// NewMemoryStore creates an empty in-memory metadata store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[id.SubjectID]models.DegreeMetadata),
	}
}

func (s *MemoryStore) SaveMetadata(_ context.Context, md models.DegreeMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[md.StudentID] = md
	return nil
}

func (s *MemoryStore) MetadataBySubject(_ context.Context, studentID id.SubjectID) (models.DegreeMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	md, ok := s.records[studentID]
	if !ok {
		return models.DegreeMetadata{}, ErrNotFound
	}
	return md, nil
}
