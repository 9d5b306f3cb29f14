// Package mesh holds the indexed triangle mesh that flows through the
// transform and cut pipeline.
//
// Triangles are counter-clockwise when seen from outside: the winding
// determines the outward orientation. Boolean operations additionally assume
// that the surface is closed and 2-manifold. That precondition is documented,
// not enforced; Topology reports violations.
package mesh

import (
	"fmt"

	"github.com/philipparndt/stlcut/pkg/geometry"
)

// Triangle is a triple of vertex indices
type Triangle [3]int

// Mesh is an indexed triangle mesh with optional per-vertex normals.
// A Mesh is owned by the pipeline stage holding it; stages hand over new
// meshes instead of sharing mutable geometry.
type Mesh struct {
	Name      string
	Vertices  []geometry.Vector3
	Triangles []Triangle
	Normals   []geometry.Vector3 // per vertex, empty until ComputeNormals
	Bounds    geometry.BoundingBox
}

// New validates the indices and returns a mesh with bounds computed
func New(vertices []geometry.Vector3, triangles []Triangle) (*Mesh, error) {
	m := &Mesh{Vertices: vertices, Triangles: triangles}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.ComputeBounds()
	return m, nil
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no triangles
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Validate checks that every index is in range and every vertex is finite
func (m *Mesh) Validate() error {
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("mesh: vertex %d is not finite: %v", i, v)
		}
	}
	n := len(m.Vertices)
	for i, t := range m.Triangles {
		for _, idx := range t {
			if idx < 0 || idx >= n {
				return fmt.Errorf("mesh: triangle %d references vertex %d, mesh has %d vertices", i, idx, n)
			}
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("mesh: %d normals for %d vertices", len(m.Normals), n)
	}
	return nil
}

// Clone returns a deep copy
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Vertices:  append([]geometry.Vector3(nil), m.Vertices...),
		Triangles: append([]Triangle(nil), m.Triangles...),
		Bounds:    m.Bounds,
	}
	if len(m.Normals) > 0 {
		c.Normals = append([]geometry.Vector3(nil), m.Normals...)
	}
	return c
}

// Triangle returns the i-th triangle with its face normal
func (m *Mesh) Triangle(i int) geometry.Triangle {
	t := m.Triangles[i]
	tri := geometry.NewTriangle(geometry.Vector3{}, m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]])
	tri.Normal = tri.CalculateNormal()
	return tri
}

// ComputeBounds recomputes the axis-aligned bounding box from the vertices
// referenced by triangles.
func (m *Mesh) ComputeBounds() {
	bbox := geometry.NewBoundingBox()
	for _, t := range m.Triangles {
		for _, idx := range t {
			bbox.Extend(m.Vertices[idx])
		}
	}
	m.Bounds = bbox
}

// ComputeNormals recomputes area-weighted vertex normals from the winding
func (m *Mesh) ComputeNormals() {
	normals := make([]geometry.Vector3, len(m.Vertices))
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		// cross product length is twice the area, which is the weight we want
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range t {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals
}

// Recompute refreshes bounds and normals after the geometry changed
func (m *Mesh) Recompute() {
	m.ComputeBounds()
	m.ComputeNormals()
}

// ReverseWinding flips every triangle, turning the surface inside out
func (m *Mesh) ReverseWinding() {
	for i, t := range m.Triangles {
		m.Triangles[i] = Triangle{t[0], t[2], t[1]}
	}
	for i, n := range m.Normals {
		m.Normals[i] = n.Neg()
	}
}

// Volume returns the enclosed volume of a closed, outward-wound mesh
func (m *Mesh) Volume() float64 {
	if len(m.Triangles) == 0 {
		return 0
	}
	// Shift to the bounds center to keep the tetrahedra small.
	origin := m.Bounds.Center()
	if m.Bounds.IsEmpty() {
		origin = geometry.Vector3{}
	}
	volume := 0.0
	for _, t := range m.Triangles {
		a := m.Vertices[t[0]].Sub(origin)
		b := m.Vertices[t[1]].Sub(origin)
		c := m.Vertices[t[2]].Sub(origin)
		volume += a.Dot(b.Cross(c))
	}
	return volume / 6.0
}

// SurfaceArea returns the total triangle area
func (m *Mesh) SurfaceArea() float64 {
	area := 0.0
	for i := range m.Triangles {
		area += m.Triangle(i).Area()
	}
	return area
}
