package csg

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/primitive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// box returns an axis-aligned cube with its minimum corner at min
func box(min geometry.Vector3, size float64) *mesh.Mesh {
	center := min.Add(geometry.Vector3{X: size / 2, Y: size / 2, Z: size / 2})
	return cutter.Box(center, size, geometry.Identity3())
}

func TestSubtractHalfSpace(t *testing.T) {
	cube := box(geometry.Vector3{}, 100)
	cut, err := cutter.NewBuilder().Build(cutter.Plane{
		Position: geometry.Vector3{X: 50},
		Normal:   geometry.Vector3{X: 1},
	}, cube.Bounds)
	require.NoError(t, err)

	result, err := Subtract(context.Background(), cube, cut, DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 500000, result.Volume(), 1e-3)
	assert.InDelta(t, 0, result.Bounds.Min.X, 1e-9)
	assert.InDelta(t, 50, result.Bounds.Max.X, 1e-9)
	assert.InDelta(t, 100, result.Bounds.Max.Y, 1e-9)
	assert.True(t, result.IsClosed(), "topology: %+v", result.Topology())
	assert.Len(t, result.Normals, result.VertexCount())

	// operands are untouched
	assert.InDelta(t, 1e6, cube.Volume(), 1e-6)
	assert.Equal(t, 12, cube.TriangleCount())
}

func TestSubtractObliqueHalfSpace(t *testing.T) {
	cube := box(geometry.Vector3{}, 10)
	// removes the corner tetrahedron x+y+z > 25 around (10,10,10)
	cut, err := cutter.NewBuilder().Build(cutter.Plane{
		Position: geometry.Vector3{X: 25.0 / 3, Y: 25.0 / 3, Z: 25.0 / 3},
		Normal:   geometry.Vector3{X: 1, Y: 1, Z: 1},
	}, cube.Bounds)
	require.NoError(t, err)

	result, err := Subtract(context.Background(), cube, cut, DefaultOptions())
	require.NoError(t, err)
	// the removed corner is a tetrahedron with legs of length 5
	assert.InDelta(t, 1000-125.0/6, result.Volume(), 1e-6)
	assert.True(t, result.IsClosed(), "topology: %+v", result.Topology())
}

func TestBooleanOverlappingCubes(t *testing.T) {
	tests := []struct {
		name   string
		op     func(context.Context, *mesh.Mesh, *mesh.Mesh, Options) (*mesh.Mesh, error)
		volume float64
	}{
		{"subtract", Subtract, 1000 - 125},
		{"union", Union, 2000 - 125},
		{"intersect", Intersect, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := box(geometry.Vector3{}, 10)
			b := box(geometry.Vector3{X: 5, Y: 5, Z: 5}, 10)
			result, err := tt.op(context.Background(), a, b, DefaultOptions())
			require.NoError(t, err)
			assert.InDelta(t, tt.volume, result.Volume(), 1e-6)
		})
	}
}

func TestSubtractDisjoint(t *testing.T) {
	a := box(geometry.Vector3{}, 10)
	b := box(geometry.Vector3{X: 100}, 10)
	result, err := Subtract(context.Background(), a, b, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.Vertices, result.Vertices)
	assert.InDelta(t, 1000, result.Volume(), 1e-9)

	_, err = Intersect(context.Background(), a, b, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyResult)

	union, err := Union(context.Background(), a, b, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 2000, union.Volume(), 1e-9)
}

func TestSubtractEverything(t *testing.T) {
	a := box(geometry.Vector3{X: 1, Y: 1, Z: 1}, 8)
	b := box(geometry.Vector3{}, 10)
	result, err := Subtract(context.Background(), a, b, DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, result)

	var boolErr *BooleanOperationError
	require.True(t, errors.As(err, &boolErr))
	assert.Equal(t, OpSubtract, boolErr.Op)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestSubtractTouchingFace(t *testing.T) {
	// b touches a's +X face from outside: nothing is removed
	a := box(geometry.Vector3{}, 10)
	b := box(geometry.Vector3{X: 10}, 10)
	result, err := Subtract(context.Background(), a, b, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1000, result.Volume(), 1e-6)
}

func TestPolygonLimit(t *testing.T) {
	a := box(geometry.Vector3{}, 10)
	b := box(geometry.Vector3{X: 5, Y: 5, Z: 5}, 10)
	_, err := Subtract(context.Background(), a, b, Options{MaxPolygons: 25})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	a := box(geometry.Vector3{}, 10)
	b := box(geometry.Vector3{X: 5}, 10)
	_, err := Subtract(ctx, a, b, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidOperand(t *testing.T) {
	a := box(geometry.Vector3{}, 10)
	b := box(geometry.Vector3{X: 5}, 10)
	b.Triangles[0][0] = 99
	_, err := Subtract(context.Background(), a, b, DefaultOptions())
	var boolErr *BooleanOperationError
	require.True(t, errors.As(err, &boolErr))
	assert.Contains(t, err.Error(), "second operand")
}

func TestDegenerateTrianglesDropped(t *testing.T) {
	a := box(geometry.Vector3{}, 10)
	// a zero-area sliver sharing an existing edge
	a.Vertices = append(a.Vertices, a.Vertices[0].Lerp(a.Vertices[1], 0.5))
	a.Triangles = append(a.Triangles, mesh.Triangle{0, 1, len(a.Vertices) - 1})
	polys := toPolygons(a)
	assert.Len(t, polys, 12)
}

func TestEpsilonScalesWithBounds(t *testing.T) {
	opts := DefaultOptions()
	small := geometry.BoundingBox{Max: geometry.Vector3{X: 0.1}}
	large := geometry.BoundingBox{Max: geometry.Vector3{X: 1000}}
	assert.InDelta(t, 1e-5, opts.Epsilon(small), 1e-15)
	assert.InDelta(t, 1e-2, opts.Epsilon(large), 1e-12)
}

func TestDefaultOptionsRequireClosed(t *testing.T) {
	assert.True(t, DefaultOptions().RequireClosed)
}

// randomPlane returns a plane with a uniformly random normal whose offset
// from the origin is at most reach.
func randomPlane(rng *rand.Rand, reach float64) cutter.Plane {
	n := geometry.Vector3{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize()
	return cutter.Plane{Position: n.Mul((2*rng.Float64() - 1) * reach), Normal: n}
}

func TestSubtractObliquePlanesFromSphere(t *testing.T) {
	sphere, err := primitive.UVSphere(20, 24, 48)
	require.NoError(t, err)
	require.True(t, sphere.IsClosed())
	full := sphere.Volume()

	rng := rand.New(rand.NewSource(1))
	const cuts = 40
	failed := 0
	for i := 0; i < cuts; i++ {
		pl := randomPlane(rng, 12)
		cut, err := cutter.NewBuilder().Build(pl, sphere.Bounds)
		require.NoError(t, err)

		result, err := Subtract(context.Background(), sphere, cut, DefaultOptions())
		if err != nil {
			var boolErr *BooleanOperationError
			require.True(t, errors.As(err, &boolErr), "cut %d: %v", i, err)
			failed++
			continue
		}
		assert.True(t, result.IsClosed(), "cut %d %s: topology %+v", i, pl.String(), result.Topology())
		assert.Greater(t, result.Volume(), 0.0)
		assert.Less(t, result.Volume(), full)
	}
	assert.Less(t, failed, cuts/2)
	assert.True(t, sphere.IsClosed())
	assert.InDelta(t, full, sphere.Volume(), 1e-9)
}

func TestOpenOperandIsNotRequiredClosed(t *testing.T) {
	a := box(geometry.Vector3{}, 10)
	// drop one triangle of the x=0 face
	for i, tri := range a.Triangles {
		if a.Vertices[tri[0]].X == 0 && a.Vertices[tri[1]].X == 0 && a.Vertices[tri[2]].X == 0 {
			a.Triangles = append(a.Triangles[:i], a.Triangles[i+1:]...)
			break
		}
	}
	require.Equal(t, 11, a.TriangleCount())
	require.False(t, a.IsClosed())

	b := box(geometry.Vector3{X: 5, Y: -5, Z: -5}, 20)
	result, err := Subtract(context.Background(), a, b, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, result.IsClosed())
	assert.InDelta(t, 5, result.Bounds.Max.X, 1e-9)
}
