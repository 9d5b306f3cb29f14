package cut

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/philipparndt/stlcut/pkg/csg"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/primitive"
	"github.com/philipparndt/stlcut/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(size float64) *mesh.Mesh {
	h := size / 2
	return cutter.Box(geometry.Vector3{X: h, Y: h, Z: h}, size, geometry.Identity3())
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func plane(position, normal geometry.Vector3, side cutter.Side) cutter.Plane {
	return cutter.Plane{Position: position, Normal: normal, Side: side}
}

func TestCutHalfCube(t *testing.T) {
	p := New(quiet())
	result, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, result.State)
	assert.Equal(t, 1, result.Applied)
	assert.True(t, result.Complete())

	m := result.Mesh
	assert.InDelta(t, 500000, m.Volume(), 1e-3)
	assert.InDelta(t, 0, m.Bounds.Min.X, 1e-9)
	assert.InDelta(t, 50, m.Bounds.Max.X, 1e-9)
	assert.True(t, m.IsClosed())
}

func TestCutTwoPerpendicularPlanes(t *testing.T) {
	p := New(quiet())
	result, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
		plane(geometry.Vector3{Y: 50}, geometry.Vector3{Y: 1}, cutter.SidePositive),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.InDelta(t, 250000, result.Mesh.Volume(), 1e-3)
	assert.InDelta(t, 50, result.Mesh.Bounds.Max.Y, 1e-9)
	require.Len(t, result.Steps, 2)
	assert.InDelta(t, 500000, result.Steps[0].Volume, 1e-3)
}

func TestCutNegativeSide(t *testing.T) {
	p := New(quiet())
	result, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{
		plane(geometry.Vector3{Z: 25}, geometry.Vector3{Z: 1}, cutter.SideNegative),
	})
	require.NoError(t, err)
	assert.InDelta(t, 750000, result.Mesh.Volume(), 1e-3)
	assert.InDelta(t, 25, result.Mesh.Bounds.Min.Z, 1e-9)
}

func TestCutMissingMesh(t *testing.T) {
	p := New(quiet())
	in := cube(100)
	result, err := p.CutWithPlanes(context.Background(), in, []cutter.Plane{
		plane(geometry.Vector3{X: 500}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.InDelta(t, in.Volume(), result.Mesh.Volume(), 1e-6)
}

func TestCutRemovesEverything(t *testing.T) {
	p := New(quiet())
	in := cube(100)
	result, err := p.CutWithPlanes(context.Background(), in, []cutter.Plane{
		plane(geometry.Vector3{X: -10}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 0, stepErr.Index)
	var boolErr *csg.BooleanOperationError
	require.True(t, errors.As(err, &boolErr))
	assert.ErrorIs(t, err, csg.ErrEmptyResult)

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 0, result.FailedIndex)
	assert.Equal(t, 0, result.Applied)
	assert.False(t, result.Complete())
	// the pre-step mesh is returned, never an empty one
	assert.Equal(t, 12, result.Mesh.TriangleCount())
	assert.InDelta(t, 1e6, result.Mesh.Volume(), 1e-6)
}

func TestCutKeepsPartialResult(t *testing.T) {
	p := New(quiet())
	result, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
		plane(geometry.Vector3{X: 60}, geometry.Vector3{X: 1}, cutter.SideNegative),
		plane(geometry.Vector3{Y: 50}, geometry.Vector3{Y: 1}, cutter.SidePositive),
	})
	require.Error(t, err)
	assert.Equal(t, 1, result.FailedIndex)
	assert.Equal(t, 1, result.Applied)
	assert.InDelta(t, 500000, result.Mesh.Volume(), 1e-3)
	assert.Len(t, result.Steps, 2)
}

func TestRepeatedCutIsNoOp(t *testing.T) {
	p := New(quiet())
	x50 := plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive)
	result, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{x50, x50})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.InDelta(t, 500000, result.Mesh.Volume(), 1e-3)
}

func TestDegeneratePlaneIsSkipped(t *testing.T) {
	p := New(quiet())
	result, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
		plane(geometry.Vector3{X: 10}, geometry.Vector3{}, cutter.SidePositive),
		plane(geometry.Vector3{Y: 50}, geometry.Vector3{Y: 1}, cutter.SidePositive),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, []int{1}, result.Skipped)
	assert.False(t, result.Complete())
	assert.Equal(t, StepSkipped, result.Steps[1].Status)

	var degenerate *cutter.DegenerateCutPlaneError
	assert.True(t, errors.As(result.Steps[1].Err, &degenerate))
	assert.InDelta(t, 250000, result.Mesh.Volume(), 1e-3)
}

func TestExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := cube(100)
	result, err := New(quiet()).CutWithPlanes(ctx, in, []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	require.Error(t, err)
	var exceeded *ResourceExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, "deadline", exceeded.Limit)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 12, result.Mesh.TriangleCount())
}

func TestPolygonBudget(t *testing.T) {
	p := New(quiet(), WithBooleanOptions(csg.Options{MaxPolygons: 24}))
	_, err := p.CutWithPlanes(context.Background(), cube(100), []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	var exceeded *ResourceExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, "polygons", exceeded.Limit)
}

func TestRunWithTransform(t *testing.T) {
	g := transform.Gizmo{Translate: geometry.Vector3{X: -50}, Scale: geometry.Vector3{X: 1, Y: 1, Z: 1}}
	mat := g.Matrix()
	result, err := New(quiet(), WithTimeout(time.Minute)).Run(context.Background(), Request{
		Mesh:      cube(100),
		Transform: &mat,
		Planes:    []cutter.Plane{plane(geometry.Vector3{}, geometry.Vector3{X: 1}, cutter.SidePositive)},
	})
	require.NoError(t, err)
	assert.InDelta(t, -50, result.Mesh.Bounds.Min.X, 1e-9)
	assert.InDelta(t, 0, result.Mesh.Bounds.Max.X, 1e-9)
	assert.InDelta(t, 500000, result.Mesh.Volume(), 1e-3)
}

func TestRunDegenerateTransform(t *testing.T) {
	mat := geometry.Scale(geometry.Vector3{X: 0, Y: 1, Z: 1})
	in := cube(10)
	result, err := New(quiet()).Run(context.Background(), Request{Mesh: in, Transform: &mat})
	var degenerate *transform.DegenerateTransformError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, StateFailed, result.State)
	assert.Same(t, in, result.Mesh)
}

func TestInputIsNotMutated(t *testing.T) {
	in := cube(100)
	_, err := New(quiet()).CutWithPlanes(context.Background(), in, []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, in.TriangleCount())
	assert.InDelta(t, 100, in.Bounds.Max.X, 1e-12)
}

func TestNilMesh(t *testing.T) {
	p := New(quiet())
	result, err := p.CutWithPlanes(context.Background(), nil, []cutter.Plane{
		plane(geometry.Vector3{X: 50}, geometry.Vector3{X: 1}, cutter.SidePositive),
	})
	assert.ErrorIs(t, err, ErrNilMesh)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 1, result.Requested)
	assert.Nil(t, result.Mesh)

	_, err = p.ApplyTransform(nil, geometry.Identity4())
	assert.ErrorIs(t, err, ErrNilMesh)

	mat := geometry.Identity4()
	_, err = p.Run(context.Background(), Request{Transform: &mat})
	assert.ErrorIs(t, err, ErrNilMesh)
}

func TestObliqueCutsKeepSphereClosed(t *testing.T) {
	sphere, err := primitive.UVSphere(20, 24, 48)
	require.NoError(t, err)
	p := New(quiet())

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 15; i++ {
		var planes []cutter.Plane
		for k := 0; k < 2; k++ {
			n := geometry.Vector3{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize()
			planes = append(planes, plane(n.Mul(8+4*rng.Float64()), n, cutter.SidePositive))
		}

		result, err := p.CutWithPlanes(context.Background(), sphere, planes)
		require.NotNil(t, result)
		assert.True(t, result.Mesh.IsClosed(), "run %d: topology %+v", i, result.Mesh.Topology())
		if err == nil {
			assert.Equal(t, 2, result.Applied)
			continue
		}
		// a cut that cannot stay closed is rolled back
		var stepErr *StepError
		require.True(t, errors.As(err, &stepErr), "run %d: %v", i, err)
		var boolErr *csg.BooleanOperationError
		require.True(t, errors.As(err, &boolErr), "run %d: %v", i, err)
		assert.Equal(t, stepErr.Index, result.FailedIndex)
		assert.Equal(t, stepErr.Index, result.Applied)
		assert.Equal(t, StepFailed, result.Steps[len(result.Steps)-1].Status)
	}
}
