package mesh

import (
	"math"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/stl"
)

// DefaultWeldTolerance is the distance below which STL vertices are merged
const DefaultWeldTolerance = 1e-6

type cellKey struct {
	x, y, z int64
}

// Welder merges points closer than a tolerance into shared vertex indices
// using a uniform hash grid. Lookups probe the 27 cells around a point so
// that neighbours straddling a cell border are still found.
type Welder struct {
	tolerance float64
	vertices  []geometry.Vector3
	cells     map[cellKey][]int
	exact     map[geometry.Vector3]int
}

// NewWelder creates a welder. A tolerance <= 0 merges only identical points.
func NewWelder(tolerance float64) *Welder {
	w := &Welder{tolerance: tolerance}
	if tolerance > 0 {
		w.cells = make(map[cellKey][]int)
	} else {
		w.exact = make(map[geometry.Vector3]int)
	}
	return w
}

// Vertices returns the welded vertex list
func (w *Welder) Vertices() []geometry.Vector3 {
	return w.vertices
}

func (w *Welder) key(p geometry.Vector3) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / w.tolerance)),
		y: int64(math.Floor(p.Y / w.tolerance)),
		z: int64(math.Floor(p.Z / w.tolerance)),
	}
}

// Add returns the index of an existing vertex within tolerance of p, or
// appends p and returns its new index.
func (w *Welder) Add(p geometry.Vector3) int {
	if w.exact != nil {
		if idx, ok := w.exact[p]; ok {
			return idx
		}
		idx := len(w.vertices)
		w.vertices = append(w.vertices, p)
		w.exact[p] = idx
		return idx
	}

	k := w.key(p)
	best, bestDist := -1, w.tolerance
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, idx := range w.cells[cellKey{k.x + dx, k.y + dy, k.z + dz}] {
					if d := w.vertices[idx].Distance(p); d <= bestDist {
						best, bestDist = idx, d
					}
				}
			}
		}
	}
	if best >= 0 {
		return best
	}

	idx := len(w.vertices)
	w.vertices = append(w.vertices, p)
	w.cells[k] = append(w.cells[k], idx)
	return idx
}

// FromTriangles builds an indexed mesh from a triangle soup. Triangles that
// collapse after welding are dropped.
func FromTriangles(triangles []geometry.Triangle, tolerance float64) *Mesh {
	w := NewWelder(tolerance)
	tris := make([]Triangle, 0, len(triangles))
	for _, t := range triangles {
		tri := Triangle{w.Add(t.V1), w.Add(t.V2), w.Add(t.V3)}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			continue
		}
		tris = append(tris, tri)
	}
	m := &Mesh{Vertices: w.Vertices(), Triangles: tris}
	m.Recompute()
	return m
}

// FromModel converts a parsed STL model into an indexed mesh
func FromModel(model *stl.Model, tolerance float64) *Mesh {
	m := FromTriangles(model.Triangles, tolerance)
	m.Name = model.Name
	return m
}

// Weld returns a copy of the mesh with vertices closer than tolerance merged
// and collapsed triangles removed. Unreferenced vertices are dropped.
func (m *Mesh) Weld(tolerance float64) *Mesh {
	w := NewWelder(tolerance)
	tris := make([]Triangle, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		tri := Triangle{w.Add(m.Vertices[t[0]]), w.Add(m.Vertices[t[1]]), w.Add(m.Vertices[t[2]])}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			continue
		}
		tris = append(tris, tri)
	}
	out := &Mesh{Name: m.Name, Vertices: w.Vertices(), Triangles: tris}
	out.Recompute()
	return out
}

// ToModel converts the mesh into an STL triangle soup with face normals
// derived from the winding.
func (m *Mesh) ToModel() *stl.Model {
	model := stl.NewModel(m.Name)
	model.Triangles = make([]geometry.Triangle, 0, len(m.Triangles))
	for i := range m.Triangles {
		model.AddTriangle(m.Triangle(i))
	}
	return model
}
