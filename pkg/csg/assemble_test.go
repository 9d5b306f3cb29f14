package csg

import (
	"context"
	"testing"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangulateSkipsCollinear(t *testing.T) {
	vertices := []geometry.Vector3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2},
	}
	p := indexedPolygon{indices: []int{0, 1, 2, 3, 4}, normal: geometry.Vector3{Z: 1}}
	tris := triangulate(p, vertices, 1e-9, nil)
	require.Len(t, tris, 3)

	area := 0.0
	for _, tri := range tris {
		a := geometry.NewTriangle(geometry.Vector3{}, vertices[tri[0]], vertices[tri[1]], vertices[tri[2]])
		assert.Greater(t, a.Area(), 0.0)
		assert.Greater(t, a.CalculateNormal().Z, 0.0)
		area += a.Area()
	}
	assert.InDelta(t, 4, area, 1e-12)
}

func TestTriangulateKeepsEdgeVertex(t *testing.T) {
	// triangle with a vertex in the middle of its first edge; clipping the
	// apex would leave that vertex dangling
	vertices := []geometry.Vector3{{X: 0}, {X: 1}, {X: 2}, {X: 1, Y: 1}}
	p := indexedPolygon{indices: []int{0, 1, 2, 3}, normal: geometry.Vector3{Z: 1}}
	tris := triangulate(p, vertices, 1e-9, nil)
	require.Len(t, tris, 2)
	m := &mesh.Mesh{Vertices: vertices, Triangles: tris}
	report := m.Topology()
	// every outline edge is covered once, the inner diagonal twice
	assert.Equal(t, 5, report.Edges)
	assert.Equal(t, 4, report.BoundaryEdges)
}

func TestRepairTJunctions(t *testing.T) {
	vertices := []geometry.Vector3{{X: 0}, {X: 2}, {X: 1, Y: 1}, {X: 1}, {X: 1, Y: -1}}
	polygons := []indexedPolygon{
		{indices: []int{0, 1, 2}, normal: geometry.Vector3{Z: 1}},
		{indices: []int{0, 4, 3}, normal: geometry.Vector3{Z: 1}},
		{indices: []int{3, 4, 1}, normal: geometry.Vector3{Z: 1}},
	}
	require.NoError(t, repairTJunctions(context.Background(), polygons, vertices, 1e-9))
	assert.Equal(t, []int{0, 3, 1, 2}, polygons[0].indices)
	assert.Equal(t, []int{0, 4, 3}, polygons[1].indices)
}

func TestRemoveOppositePairs(t *testing.T) {
	tris := []mesh.Triangle{{0, 1, 2}, {1, 0, 2}, {2, 3, 4}, {0, 1, 2}}
	out := removeOppositePairs(tris)
	assert.ElementsMatch(t, []mesh.Triangle{{2, 3, 4}, {0, 1, 2}}, out)
}

func TestSplitSharedEdgeIsBitIdentical(t *testing.T) {
	pl := plane{normal: geometry.Vector3{X: 1}, w: 0.3}
	a := geometry.Vector3{X: -1.1, Y: 0.7, Z: 0.2}
	b := geometry.Vector3{X: 2.9, Y: -0.3, Z: 1.7}
	assert.Equal(t, pl.intersect(a, b), pl.intersect(b, a))
}

// tetrahedron returns the four outward faces over corners o, a, b, c
func tetrahedron(t *testing.T, o, a, b, c geometry.Vector3) []polygon {
	t.Helper()
	var out []polygon
	for _, face := range [][3]geometry.Vector3{{o, b, a}, {o, a, c}, {o, c, b}, {a, b, c}} {
		pl, ok := planeFromPoints(face[0], face[1], face[2])
		require.True(t, ok)
		out = append(out, polygon{vertices: []geometry.Vector3{face[0], face[1], face[2]}, plane: pl})
	}
	return out
}

func TestAssembleKeepsCornersCloserThanClassificationTolerance(t *testing.T) {
	// the o-a edge is shorter than the plane tolerance of a unit-sized solid
	polys := tetrahedron(t,
		geometry.Vector3{}, geometry.Vector3{X: 5e-4},
		geometry.Vector3{Y: 1}, geometry.Vector3{Z: 1})
	eps := DefaultOptions().Epsilon(geometry.BoundingBox{Max: geometry.Vector3{X: 100}})
	require.Greater(t, eps, 5e-4)

	m, err := assemble(context.Background(), polys, eps*weldRatio)
	require.NoError(t, err)
	assert.Len(t, m.Vertices, 4)
	assert.Equal(t, 4, m.TriangleCount())
	assert.True(t, m.IsClosed(), "topology: %+v", m.Topology())
	assert.InDelta(t, 5e-4/6, m.Volume(), 1e-12)
}

func TestAssembleStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	polys := tetrahedron(t,
		geometry.Vector3{}, geometry.Vector3{X: 1},
		geometry.Vector3{Y: 1}, geometry.Vector3{Z: 1})

	_, err := assemble(ctx, polys, 1e-9)
	assert.ErrorIs(t, err, context.Canceled)

	indexed := []indexedPolygon{{indices: []int{0, 1, 2}, normal: geometry.Vector3{Z: 1}}}
	vertices := []geometry.Vector3{{}, {X: 1}, {Y: 1}}
	assert.ErrorIs(t, repairTJunctions(ctx, indexed, vertices, 1e-9), context.Canceled)
}
