// Package workflow runs the record lifecycle: import an origin STL, place it
// with a transform, and cut it with planes. Every stage is stored as an
// artifact of the record.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/internal/store"
	"github.com/philipparndt/stlcut/pkg/cut"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/stl"
)

// Service ties a store to a cut pipeline
type Service struct {
	store    store.Store
	pipeline *cut.Pipeline
	loader   *loader.Loader
	logger   *slog.Logger
	format   stl.Format
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoader sets the loader used to decode stored artifacts
func WithLoader(l *loader.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithFormat sets the STL encoding of stored artifacts
func WithFormat(f stl.Format) Option {
	return func(s *Service) {
		s.format = f
	}
}

// NewService creates a service. Artifacts are stored as binary STL.
func NewService(st store.Store, p *cut.Pipeline, opts ...Option) *Service {
	s := &Service{
		store:    st,
		pipeline: p,
		loader:   loader.New(mesh.DefaultWeldTolerance),
		logger:   slog.Default(),
		format:   stl.FormatBinary,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store
func (s *Service) Store() store.Store {
	return s.store
}

// Import creates a record with the given STL as its origin artifact. Data
// that does not decode as STL is rejected before anything is stored.
func (s *Service) Import(ctx context.Context, name string, age int, data []byte) (*store.Record, error) {
	m, err := s.loader.Decode(data, name)
	if err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, errors.New("import: mesh has no triangles")
	}

	r, err := s.store.Create(ctx, name, age)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	r, err = s.store.PutArtifact(ctx, r.ID, store.ArtifactOrigin, data)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	s.logger.Info("record imported", "id", r.ID, "name", name, "triangles", m.TriangleCount())
	return r, nil
}

// Mesh loads an artifact of a record
func (s *Service) Mesh(ctx context.Context, id string, artifact store.Artifact) (*mesh.Mesh, error) {
	data, err := s.store.GetArtifact(ctx, id, artifact)
	if err != nil {
		return nil, err
	}
	return s.loader.Decode(data, string(artifact))
}

// PlaceOrigin bakes the matrix into the origin mesh and stores the result as
// the transformed artifact, replacing any earlier placement.
func (s *Service) PlaceOrigin(ctx context.Context, id string, mat geometry.Matrix4) (*store.Record, error) {
	origin, err := s.Mesh(ctx, id, store.ArtifactOrigin)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	placed, err := s.pipeline.ApplyTransform(origin, mat)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	r, err := s.put(ctx, id, store.ArtifactTransformed, placed)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	s.logger.Info("origin placed", "id", id, "bounds_min", placed.Bounds.Min.String(), "bounds_max", placed.Bounds.Max.String())
	return r, nil
}

// Cut cuts the transformed artifact (the origin when the record was never
// placed) and stores the cut artifact. When a plane fails the partial result
// is stored as long as at least one plane was applied, and the error is
// returned together with the result.
func (s *Service) Cut(ctx context.Context, id string, planes []cutter.Plane) (*store.Record, *cut.Result, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("cut: %w", err)
	}
	source := store.ArtifactTransformed
	if !r.Has(source) {
		source = store.ArtifactOrigin
	}
	m, err := s.Mesh(ctx, id, source)
	if err != nil {
		return nil, nil, fmt.Errorf("cut: %w", err)
	}

	result, cutErr := s.pipeline.CutWithPlanes(ctx, m, planes)
	if cutErr != nil && result.Applied == 0 {
		return r, result, cutErr
	}

	r, err = s.put(ctx, id, store.ArtifactCut, result.Mesh)
	if err != nil {
		return nil, result, errors.Join(cutErr, fmt.Errorf("cut: %w", err))
	}
	s.logger.Info("record cut",
		"id", id,
		"source", string(source),
		"applied", result.Applied,
		"skipped", len(result.Skipped),
		"complete", result.Complete())
	return r, result, cutErr
}

func (s *Service) put(ctx context.Context, id string, artifact store.Artifact, m *mesh.Mesh) (*store.Record, error) {
	data, err := loader.Encode(m, s.format)
	if err != nil {
		return nil, err
	}
	return s.store.PutArtifact(ctx, id, artifact, data)
}
