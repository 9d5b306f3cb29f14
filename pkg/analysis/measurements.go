// Package analysis measures meshes: bounds, volume, area, edges and
// watertightness.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// EdgeInfo contains information about an edge in the mesh
type EdgeInfo struct {
	Start      geometry.Vector3
	End        geometry.Vector3
	Length     float64
	TriangleID int // first triangle using the edge
}

// MeasurementResult contains various measurements of a mesh
type MeasurementResult struct {
	BoundingBox      geometry.BoundingBox
	Dimensions       geometry.Vector3
	Volume           float64
	SurfaceArea      float64
	VertexCount      int
	TriangleCount    int
	EdgeCount        int
	BoundaryEdges    int
	NonManifoldEdges int
	Watertight       bool
	MinEdgeLength    float64
	MaxEdgeLength    float64
	AvgEdgeLength    float64
	AllEdges         []EdgeInfo
}

// AnalyzeMesh performs comprehensive analysis on a mesh. Edges shared by
// several triangles are reported once.
func AnalyzeMesh(m *mesh.Mesh) *MeasurementResult {
	topology := m.Topology()
	result := &MeasurementResult{
		BoundingBox:      m.Bounds,
		SurfaceArea:      m.SurfaceArea(),
		Volume:           m.Volume(),
		VertexCount:      m.VertexCount(),
		TriangleCount:    m.TriangleCount(),
		BoundaryEdges:    topology.BoundaryEdges,
		NonManifoldEdges: topology.NonManifoldEdges,
		Watertight:       topology.Closed(),
		AllEdges:         make([]EdgeInfo, 0, topology.Edges),
	}
	result.Dimensions = result.BoundingBox.Size()

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	seen := make(map[[2]int]bool, topology.Edges)
	for i, t := range m.Triangles {
		for j := 0; j < 3; j++ {
			a, b := t[j], t[(j+1)%3]
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			start, end := m.Vertices[a], m.Vertices[b]
			length := start.Distance(end)
			result.AllEdges = append(result.AllEdges, EdgeInfo{
				Start:      start,
				End:        end,
				Length:     length,
				TriangleID: i,
			})

			totalLength += length
			if length < minLength {
				minLength = length
			}
			if length > maxLength {
				maxLength = length
			}
		}
	}

	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(result.EdgeCount)
	}

	return result
}

// FindEdgesByLength finds all edges within a length range
func FindEdgesByLength(result *MeasurementResult, minLength, maxLength float64) []EdgeInfo {
	var edges []EdgeInfo
	for _, edge := range result.AllEdges {
		if edge.Length >= minLength && edge.Length <= maxLength {
			edges = append(edges, edge)
		}
	}
	return edges
}

// FindLongestEdges returns the N longest edges in the mesh
func FindLongestEdges(result *MeasurementResult, count int) []EdgeInfo {
	return sortedEdges(result, count, func(a, b EdgeInfo) bool { return a.Length > b.Length })
}

// FindShortestEdges returns the N shortest edges in the mesh
func FindShortestEdges(result *MeasurementResult, count int) []EdgeInfo {
	return sortedEdges(result, count, func(a, b EdgeInfo) bool { return a.Length < b.Length })
}

func sortedEdges(result *MeasurementResult, count int, less func(a, b EdgeInfo) bool) []EdgeInfo {
	edges := make([]EdgeInfo, len(result.AllEdges))
	copy(edges, result.AllEdges)

	sort.SliceStable(edges, func(i, j int) bool {
		return less(edges[i], edges[j])
	})

	if count > len(edges) {
		count = len(edges)
	}
	return edges[:count]
}

// DistanceBetweenPoints calculates the distance between two arbitrary points
func DistanceBetweenPoints(p1, p2 geometry.Vector3) float64 {
	return p1.Distance(p2)
}

// FindNearestVertex finds the vertex in the mesh nearest to a given point
func FindNearestVertex(m *mesh.Mesh, point geometry.Vector3) (geometry.Vector3, float64) {
	var nearestVertex geometry.Vector3
	minDistance := math.MaxFloat64

	for _, vertex := range m.Vertices {
		distance := point.Distance(vertex)
		if distance < minDistance {
			minDistance = distance
			nearestVertex = vertex
		}
	}

	return nearestVertex, minDistance
}

// SectionPoints returns the mesh vertices within tolerance of the plane
// through position with the given normal, e.g. the rim left by a cut.
func SectionPoints(m *mesh.Mesh, position, normal geometry.Vector3, tolerance float64) []geometry.Vector3 {
	n := normal.Normalize()
	var points []geometry.Vector3
	for _, vertex := range m.Vertices {
		if math.Abs(vertex.Sub(position).Dot(n)) <= tolerance {
			points = append(points, vertex)
		}
	}
	return points
}

// FitSection fits a circle to the section of the mesh on a plane, the way a
// cut through a round part is measured.
func FitSection(m *mesh.Mesh, position, normal geometry.Vector3, tolerance float64) (*geometry.CircleFit, int, error) {
	points := SectionPoints(m, position, normal, tolerance)
	fit, err := geometry.FitCircle(points, normal)
	if err != nil {
		return nil, len(points), fmt.Errorf("section with %d points: %w", len(points), err)
	}
	return fit, len(points), nil
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
