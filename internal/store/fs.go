package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const recordFile = "record.json"

// FSStore keeps one directory per record under a root directory:
// <root>/<id>/record.json and <root>/<id>/<artifact>.stl
type FSStore struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFSStore creates the root directory if needed
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", root, err)
	}
	return &FSStore{root: root, now: time.Now}, nil
}

// Root returns the store directory
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) dir(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return filepath.Join(s.root, id), nil
}

func (s *FSStore) Create(_ context.Context, name string, age int) (*Record, error) {
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
	if err := os.MkdirAll(filepath.Join(s.root, r.ID), 0o755); err != nil {
		return nil, fmt.Errorf("store: create record: %w", err)
	}
	if err := s.writeRecord(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *FSStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRecord(id)
}

func (s *FSStore) List(_ context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	var records []*Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		r, err := s.readRecord(entry.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	sortRecords(records)
	return records, nil
}

func (s *FSStore) PutArtifact(_ context.Context, id string, artifact Artifact, data []byte) (*Record, error) {
	if err := validateArtifact(artifact); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.readRecord(id)
	if err != nil {
		return nil, err
	}
	file := string(artifact) + ".stl"
	if err := writeFileAtomic(filepath.Join(s.root, id, file), data); err != nil {
		return nil, fmt.Errorf("store: write %s: %w", artifact, err)
	}
	now := s.now().UTC()
	r.Artifacts[artifact] = ArtifactInfo{File: file, Size: int64(len(data)), UpdatedAt: now}
	r.UpdatedAt = now
	if err := s.writeRecord(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *FSStore) GetArtifact(_ context.Context, id string, artifact Artifact) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.readRecord(id)
	if err != nil {
		return nil, err
	}
	info, ok := r.Artifacts[artifact]
	if !ok {
		return nil, fmt.Errorf("%w: %s of %s", ErrArtifactNotFound, artifact, id)
	}
	data, err := os.ReadFile(filepath.Join(s.root, id, info.File))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s of %s", ErrArtifactNotFound, artifact, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", artifact, err)
	}
	return data, nil
}

func (s *FSStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readRecord(id); err != nil {
		return err
	}
	dir, _ := s.dir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

func (s *FSStore) readRecord(id string) (*Record, error) {
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read record %s: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("store: parse record %s: %w", id, err)
	}
	if r.Artifacts == nil {
		r.Artifacts = make(map[Artifact]ArtifactInfo)
	}
	return &r, nil
}

func (s *FSStore) writeRecord(r *Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.root, r.ID, recordFile), data); err != nil {
		return fmt.Errorf("store: write record: %w", err)
	}
	return nil
}

// writeFileAtomic writes through a temp file and a rename
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
