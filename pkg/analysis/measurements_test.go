package analysis

import (
	"math"
	"testing"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

func testCube(size float64) *mesh.Mesh {
	s := size
	m, err := mesh.New([]geometry.Vector3{
		{X: 0, Y: 0, Z: 0}, {X: s, Y: 0, Z: 0}, {X: s, Y: s, Z: 0}, {X: 0, Y: s, Z: 0},
		{X: 0, Y: 0, Z: s}, {X: s, Y: 0, Z: s}, {X: s, Y: s, Z: s}, {X: 0, Y: s, Z: s},
	}, []mesh.Triangle{
		{0, 2, 1}, {0, 3, 2}, {4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4}, {2, 3, 7}, {2, 7, 6},
		{1, 2, 6}, {1, 6, 5}, {3, 0, 4}, {3, 4, 7},
	})
	if err != nil {
		panic(err)
	}
	return m
}

func TestAnalyzeMeshCube(t *testing.T) {
	result := AnalyzeMesh(testCube(2))

	if result.TriangleCount != 12 {
		t.Errorf("TriangleCount failed: expected 12, got %d", result.TriangleCount)
	}
	if result.EdgeCount != 18 {
		t.Errorf("EdgeCount failed: expected 18, got %d", result.EdgeCount)
	}
	if math.Abs(result.Volume-8) > 1e-10 {
		t.Errorf("Volume failed: expected 8, got %v", result.Volume)
	}
	if math.Abs(result.SurfaceArea-24) > 1e-10 {
		t.Errorf("SurfaceArea failed: expected 24, got %v", result.SurfaceArea)
	}
	if !result.Watertight {
		t.Errorf("Watertight failed: expected closed cube, got %d boundary edges", result.BoundaryEdges)
	}
	if math.Abs(result.MinEdgeLength-2) > 1e-10 {
		t.Errorf("MinEdgeLength failed: expected 2, got %v", result.MinEdgeLength)
	}
	if math.Abs(result.MaxEdgeLength-2*math.Sqrt2) > 1e-10 {
		t.Errorf("MaxEdgeLength failed: expected %v, got %v", 2*math.Sqrt2, result.MaxEdgeLength)
	}
}

func TestAnalyzeMeshOpen(t *testing.T) {
	m := testCube(1)
	m.Triangles = m.Triangles[2:]
	result := AnalyzeMesh(m)
	if result.Watertight {
		t.Error("Watertight failed: expected open mesh")
	}
	if result.BoundaryEdges != 4 {
		t.Errorf("BoundaryEdges failed: expected 4, got %d", result.BoundaryEdges)
	}
}

func TestFindEdges(t *testing.T) {
	result := AnalyzeMesh(testCube(1))

	longest := FindLongestEdges(result, 3)
	if len(longest) != 3 {
		t.Fatalf("FindLongestEdges failed: expected 3 edges, got %d", len(longest))
	}
	for _, e := range longest {
		if math.Abs(e.Length-math.Sqrt2) > 1e-10 {
			t.Errorf("FindLongestEdges failed: expected diagonal, got %v", e.Length)
		}
	}

	shortest := FindShortestEdges(result, 100)
	if len(shortest) != 18 {
		t.Errorf("FindShortestEdges failed: expected 18 edges, got %d", len(shortest))
	}
	if shortest[0].Length != 1 {
		t.Errorf("FindShortestEdges failed: expected 1, got %v", shortest[0].Length)
	}

	unit := FindEdgesByLength(result, 0.5, 1.5)
	if len(unit) != 12 {
		t.Errorf("FindEdgesByLength failed: expected 12, got %d", len(unit))
	}
}

func TestFindNearestVertex(t *testing.T) {
	v, d := FindNearestVertex(testCube(1), geometry.NewVector3(1.1, 0.9, 1))
	expected := geometry.NewVector3(1, 1, 1)
	if v != expected {
		t.Errorf("FindNearestVertex failed: expected %v, got %v", expected, v)
	}
	if math.Abs(d-math.Sqrt(0.02)) > 1e-10 {
		t.Errorf("FindNearestVertex failed: expected distance %v, got %v", math.Sqrt(0.02), d)
	}
}

func TestFormatVector(t *testing.T) {
	got := FormatVector(geometry.NewVector3(1, -2.5, 0))
	if got != "(1.000000, -2.500000, 0.000000)" {
		t.Errorf("FormatVector failed: got %s", got)
	}
}

func TestSectionPoints(t *testing.T) {
	points := SectionPoints(testCube(2), geometry.NewVector3(0, 0, 2), geometry.NewVector3(0, 0, 3), 1e-9)
	if len(points) != 4 {
		t.Errorf("SectionPoints failed: expected 4 top vertices, got %d", len(points))
	}
	for _, p := range points {
		if p.Z != 2 {
			t.Errorf("SectionPoints failed: expected z=2, got %v", p)
		}
	}
}

func TestFitSection(t *testing.T) {
	// the top face of a 2x2 cube is circumscribed by a circle of radius sqrt(2)
	fit, n, err := FitSection(testCube(2), geometry.NewVector3(0, 0, 2), geometry.NewVector3(0, 0, 1), 1e-9)
	if err != nil {
		t.Fatalf("FitSection failed: %v", err)
	}
	if n != 4 {
		t.Errorf("FitSection failed: expected 4 points, got %d", n)
	}
	if math.Abs(fit.Radius-math.Sqrt2) > 1e-9 {
		t.Errorf("FitSection failed: expected radius %v, got %v", math.Sqrt2, fit.Radius)
	}
	expected := geometry.NewVector3(1, 1, 2)
	if fit.Center.Distance(expected) > 1e-9 {
		t.Errorf("FitSection failed: expected center %v, got %v", expected, fit.Center)
	}

	if _, _, err := FitSection(testCube(2), geometry.NewVector3(0, 0, 1), geometry.NewVector3(0, 0, 1), 1e-9); err == nil {
		t.Errorf("FitSection failed: expected error for an empty section")
	}
}
