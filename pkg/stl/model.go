// Package stl decodes and encodes STL triangle soups in ASCII and binary form.
package stl

import (
	"github.com/philipparndt/stlcut/pkg/geometry"
)

// Model is an unindexed triangle soup as stored in an STL file. The stored
// facet normals are kept as read; writers recompute them from the winding.
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddTriangle appends a facet
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of facets
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox returns the box enclosing every facet vertex
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, t := range m.Triangles {
		bbox.Extend(t.V1)
		bbox.Extend(t.V2)
		bbox.Extend(t.V3)
	}
	return bbox
}

// OrientToNormals swaps V2 and V3 of every facet whose winding points
// against its stored normal and returns how many facets were flipped.
// Facets with a zero stored normal or zero area are left alone.
func (m *Model) OrientToNormals() int {
	flipped := 0
	for i, t := range m.Triangles {
		if t.Normal.LengthSquared() == 0 {
			continue
		}
		n := t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1))
		if n.Dot(t.Normal) < 0 {
			m.Triangles[i].V2, m.Triangles[i].V3 = t.V3, t.V2
			flipped++
		}
	}
	return flipped
}
