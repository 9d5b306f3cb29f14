package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in memory
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]*Record
	artifacts map[string]map[Artifact][]byte
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]*Record),
		artifacts: make(map[string]map[Artifact][]byte),
		now:       time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, name string, age int) (*Record, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	r := &Record{
		ID:        uuid.NewString(),
		Name:      name,
		Age:       age,
		Artifacts: make(map[Artifact]ArtifactInfo),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
	s.artifacts[r.ID] = make(map[Artifact][]byte)
	return r.clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r.clone())
	}
	sortRecords(records)
	return records, nil
}

func (s *MemoryStore) PutArtifact(_ context.Context, id string, artifact Artifact, data []byte) (*Record, error) {
	if err := validateArtifact(artifact); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := s.now().UTC()
	s.artifacts[id][artifact] = append([]byte(nil), data...)
	r.Artifacts[artifact] = ArtifactInfo{
		File:      string(artifact) + ".stl",
		Size:      int64(len(data)),
		UpdatedAt: now,
	}
	r.UpdatedAt = now
	return r.clone(), nil
}

func (s *MemoryStore) GetArtifact(_ context.Context, id string, artifact Artifact) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.records[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, ok := s.artifacts[id][artifact]
	if !ok {
		return nil, fmt.Errorf("%w: %s of %s", ErrArtifactNotFound, artifact, id)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	delete(s.artifacts, id)
	return nil
}
