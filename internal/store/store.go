// Package store persists records: a named part with up to three STL
// artifacts (the imported origin, the placed transformed mesh and the cut
// result).
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned for an unknown record id
	ErrNotFound = errors.New("record not found")
	// ErrArtifactNotFound is returned when a record has no such artifact
	ErrArtifactNotFound = errors.New("artifact not found")
)

// Artifact names one stored mesh of a record
type Artifact string

const (
	ArtifactOrigin      Artifact = "origin"
	ArtifactTransformed Artifact = "transformed"
	ArtifactCut         Artifact = "cut"
)

// Artifacts lists every artifact kind in workflow order
var Artifacts = []Artifact{ArtifactOrigin, ArtifactTransformed, ArtifactCut}

// ParseArtifact parses an artifact name
func ParseArtifact(s string) (Artifact, error) {
	a := Artifact(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Artifacts {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown artifact %q (expected origin, transformed or cut)", s)
}

// ArtifactInfo describes a stored artifact
type ArtifactInfo struct {
	File      string    `json:"file"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Record is one part and its artifacts
type Record struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Age       int                       `json:"age,omitempty"`
	Artifacts map[Artifact]ArtifactInfo `json:"artifacts"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// Has reports whether the artifact is stored
func (r *Record) Has(a Artifact) bool {
	_, ok := r.Artifacts[a]
	return ok
}

// Latest returns the most processed artifact present
func (r *Record) Latest() (Artifact, bool) {
	for i := len(Artifacts) - 1; i >= 0; i-- {
		if r.Has(Artifacts[i]) {
			return Artifacts[i], true
		}
	}
	return "", false
}

func (r *Record) clone() *Record {
	c := *r
	c.Artifacts = make(map[Artifact]ArtifactInfo, len(r.Artifacts))
	for k, v := range r.Artifacts {
		c.Artifacts[k] = v
	}
	return &c
}

// Store persists records and their artifacts. PutArtifact replaces an
// existing artifact of the same kind.
type Store interface {
	Create(ctx context.Context, name string, age int) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	PutArtifact(ctx context.Context, id string, artifact Artifact, data []byte) (*Record, error)
	GetArtifact(ctx context.Context, id string, artifact Artifact) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("record name is required")
	}
	return nil
}

func validateArtifact(a Artifact) error {
	_, err := ParseArtifact(string(a))
	return err
}

// sortRecords orders by creation time, then id
func sortRecords(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
