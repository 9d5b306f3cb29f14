package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/internal/store"
	"github.com/philipparndt/stlcut/pkg/csg"
	"github.com/philipparndt/stlcut/pkg/cut"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/primitive"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/philipparndt/stlcut/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store.NewMemoryStore(), cut.New(cut.WithLogger(logger)), WithLogger(logger))
}

func cubeSTL(t *testing.T, size float64) []byte {
	t.Helper()
	m, err := primitive.Cube(size)
	require.NoError(t, err)
	data, err := loader.Encode(m, stl.FormatBinary)
	require.NoError(t, err)
	return data
}

func TestImport(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	r, err := s.Import(ctx, "Jane", 42, cubeSTL(t, 100))
	require.NoError(t, err)
	assert.True(t, r.Has(store.ArtifactOrigin))

	m, err := s.Mesh(ctx, r.ID, store.ArtifactOrigin)
	require.NoError(t, err)
	assert.InDelta(t, 1e6, m.Volume(), 1e-3)
}

func TestImportRejectsGarbage(t *testing.T) {
	s := newService(t)
	_, err := s.Import(context.Background(), "Jane", 42, []byte("not an stl"))
	require.Error(t, err)

	records, err := s.Store().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPlaceThenCut(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	r, err := s.Import(ctx, "part", 0, cubeSTL(t, 100))
	require.NoError(t, err)

	g := transform.NewGizmo()
	g.Translate = geometry.Vector3{X: -50}
	r, err = s.PlaceOrigin(ctx, r.ID, g.Matrix())
	require.NoError(t, err)
	assert.True(t, r.Has(store.ArtifactTransformed))

	// cut the placed mesh at x=0: only the -50..0 half remains
	r, result, err := s.Cut(ctx, r.ID, []cutter.Plane{{
		Position: geometry.Vector3{},
		Normal:   geometry.Vector3{X: 1},
	}})
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.True(t, r.Has(store.ArtifactCut))

	m, err := s.Mesh(ctx, r.ID, store.ArtifactCut)
	require.NoError(t, err)
	assert.InDelta(t, 500000, m.Volume(), 1)
	assert.InDelta(t, -50, m.Bounds.Min.X, 1e-6)
	assert.InDelta(t, 0, m.Bounds.Max.X, 1e-6)
}

func TestCutFallsBackToOrigin(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	r, err := s.Import(ctx, "part", 0, cubeSTL(t, 100))
	require.NoError(t, err)

	_, result, err := s.Cut(ctx, r.ID, []cutter.Plane{{
		Position: geometry.Vector3{X: 50},
		Normal:   geometry.Vector3{X: 1},
	}})
	require.NoError(t, err)
	assert.InDelta(t, 500000, result.Mesh.Volume(), 1)
}

func TestCutStoresPartialResult(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	r, err := s.Import(ctx, "part", 0, cubeSTL(t, 100))
	require.NoError(t, err)

	r, result, err := s.Cut(ctx, r.ID, []cutter.Plane{
		{Position: geometry.Vector3{X: 50}, Normal: geometry.Vector3{X: 1}},
		{Position: geometry.Vector3{X: 60}, Normal: geometry.Vector3{X: 1}, Side: cutter.SideNegative},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, csg.ErrEmptyResult)
	assert.Equal(t, 1, result.Applied)
	require.NotNil(t, r)
	assert.True(t, r.Has(store.ArtifactCut))

	m, err := s.Mesh(ctx, r.ID, store.ArtifactCut)
	require.NoError(t, err)
	assert.InDelta(t, 500000, m.Volume(), 1)
}

func TestCutNothingAppliedStoresNothing(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	r, err := s.Import(ctx, "part", 0, cubeSTL(t, 100))
	require.NoError(t, err)

	r, _, err = s.Cut(ctx, r.ID, []cutter.Plane{
		{Position: geometry.Vector3{X: -10}, Normal: geometry.Vector3{X: 1}},
	})
	require.Error(t, err)
	assert.False(t, r.Has(store.ArtifactCut))

	_, err = s.Mesh(ctx, r.ID, store.ArtifactCut)
	assert.ErrorIs(t, err, store.ErrArtifactNotFound)
}

func TestPlaceDegenerateTransform(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	r, err := s.Import(ctx, "part", 0, cubeSTL(t, 10))
	require.NoError(t, err)

	_, err = s.PlaceOrigin(ctx, r.ID, geometry.Scale(geometry.Vector3{X: 1, Y: 0, Z: 1}))
	var degenerate *transform.DegenerateTransformError
	require.True(t, errors.As(err, &degenerate))

	got, err := s.Store().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Has(store.ArtifactTransformed))
}

func TestUnknownRecord(t *testing.T) {
	s := newService(t)
	_, _, err := s.Cut(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.PlaceOrigin(context.Background(), "missing", geometry.Identity4())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
