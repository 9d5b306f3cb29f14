package section

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/philipparndt/stlcut/pkg/csg"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/primitive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zPlane(z float64) cutter.Plane {
	return cutter.Plane{Position: geometry.NewVector3(0, 0, z), Normal: geometry.NewVector3(0, 0, 1)}
}

func TestSliceCube(t *testing.T) {
	cube, err := primitive.Cube(10)
	require.NoError(t, err)

	o, err := Slice(cube, zPlane(5))
	require.NoError(t, err)
	require.Len(t, o.Paths, 1)
	assert.True(t, o.Paths[0].Closed)
	assert.Equal(t, 1, o.ClosedCount())
	assert.InDelta(t, 100, o.Area(), 1e-9)
	assert.InDelta(t, 40, o.Length(), 1e-9)

	lo, hi := o.Bounds()
	assert.InDelta(t, 10, hi.X-lo.X, 1e-9)
	assert.InDelta(t, 10, hi.Y-lo.Y, 1e-9)
}

func TestSliceThroughVertices(t *testing.T) {
	cube, err := primitive.Cube(10)
	require.NoError(t, err)

	// the plane contains the top face; only the side faces below it cross
	o, err := Slice(cube, zPlane(10))
	require.NoError(t, err)
	require.Len(t, o.Paths, 1)
	assert.True(t, o.Paths[0].Closed)
	assert.InDelta(t, 100, o.Area(), 1e-9)
}

func TestSliceHole(t *testing.T) {
	cube, err := primitive.Cube(10)
	require.NoError(t, err)
	hole, err := primitive.Box(geometry.NewVector3(3, 3, -1), geometry.NewVector3(7, 7, 11))
	require.NoError(t, err)
	ring, err := csg.Subtract(context.Background(), cube, hole, csg.DefaultOptions())
	require.NoError(t, err)

	o, err := Slice(ring, zPlane(5))
	require.NoError(t, err)
	assert.Equal(t, 2, o.ClosedCount())
	assert.InDelta(t, 84, o.Area(), 1e-6)

	var areas []float64
	for _, p := range o.Paths {
		areas = append(areas, p.SignedArea())
	}
	sort.Float64s(areas)
	require.Len(t, areas, 2)
	assert.InDelta(t, -16, areas[0], 1e-6)
	assert.InDelta(t, 100, areas[1], 1e-6)
}

func TestSliceMiss(t *testing.T) {
	cube, err := primitive.Cube(10)
	require.NoError(t, err)

	o, err := Slice(cube, zPlane(20))
	require.NoError(t, err)
	assert.True(t, o.IsEmpty())
	assert.Zero(t, o.Area())
}

func TestSliceOpenMesh(t *testing.T) {
	m, err := mesh.New([]geometry.Vector3{
		{X: 0, Y: 0, Z: -1}, {X: 10, Y: 0, Z: 1}, {X: 0, Y: 10, Z: 1},
	}, []mesh.Triangle{{0, 1, 2}})
	require.NoError(t, err)

	o, err := Slice(m, zPlane(0))
	require.NoError(t, err)
	require.Len(t, o.Paths, 1)
	assert.False(t, o.Paths[0].Closed)
	assert.Len(t, o.Paths[0].Points, 2)
	assert.Zero(t, o.Area())
}

func TestSliceDegeneratePlane(t *testing.T) {
	cube, err := primitive.Cube(1)
	require.NoError(t, err)
	_, err = Slice(cube, cutter.Plane{})
	var degenerate *cutter.DegenerateCutPlaneError
	assert.ErrorAs(t, err, &degenerate)
}

func TestProjectUnproject(t *testing.T) {
	o := &Outline{Origin: geometry.NewVector3(1, 2, 3)}
	o.U, o.V = geometry.PlaneBasis(geometry.NewVector3(1, 1, 0))
	p := o.Origin.Add(o.U.Mul(2)).Sub(o.V.Mul(3))
	assert.InDelta(t, 2, o.Project(p).X, 1e-12)
	assert.InDelta(t, -3, o.Project(p).Y, 1e-12)
	assert.True(t, o.Unproject(o.Project(p)).ApproxEqual(p, 1e-12))
}

func TestExport(t *testing.T) {
	cube, err := primitive.Cube(10)
	require.NoError(t, err)
	o, err := Slice(cube, zPlane(5))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, o, 4))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "<polygon")

	dir := t.TempDir()
	dxfPath := filepath.Join(dir, "section.dxf")
	require.NoError(t, Save(dxfPath, o, 1))
	data, err := os.ReadFile(dxfPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LINE")

	svgPath := filepath.Join(dir, "section.svg")
	require.NoError(t, Save(svgPath, o, 1))
	assert.Equal(t, FormatSVG, FormatFromPath(svgPath))
	assert.Equal(t, FormatDXF, FormatFromPath("OUT.DXF"))
}
