// Package section intersects a mesh with a plane and exports the resulting
// outline as SVG or DXF.
package section

import (
	"math"

	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// Point is a position in the section plane
type Point struct {
	X, Y float64
}

// Path is a chain of section points. Closed paths do not repeat their first
// point.
type Path struct {
	Points []Point
	Closed bool
}

// Outline is the cross-section of a mesh. Closed loops of a closed mesh run
// counter-clockwise around material when seen from the plane normal, so
// holes run clockwise.
type Outline struct {
	Plane  cutter.Plane
	U, V   geometry.Vector3 // in-plane axes, U × V = normal
	Origin geometry.Vector3
	Paths  []Path
}

type segment struct {
	a, b geometry.Vector3
}

// Slice intersects every triangle with the plane and chains the segments
// into paths. Vertices lying on the plane count as being on its positive
// side, so edges through them are not reported twice. Triangles lying in the
// plane contribute nothing.
func Slice(m *mesh.Mesh, plane cutter.Plane) (*Outline, error) {
	plane, err := plane.Normalized()
	if err != nil {
		return nil, err
	}
	u, v := geometry.PlaneBasis(plane.Normal)
	out := &Outline{Plane: plane, U: u, V: v, Origin: plane.Position}
	if m == nil || m.IsEmpty() {
		return out, nil
	}

	eps := 1e-9 * math.Max(1, m.Bounds.Diagonal())
	var segments []segment
	for i := range m.Triangles {
		if s, ok := sliceTriangle(m.Triangle(i), plane, eps); ok {
			segments = append(segments, s)
		}
	}

	for _, chain := range chain(segments, eps*100) {
		path := Path{Closed: chain.closed, Points: make([]Point, len(chain.points))}
		for i, p := range chain.points {
			path.Points[i] = out.Project(p)
		}
		out.Paths = append(out.Paths, path)
	}
	return out, nil
}

func sliceTriangle(t geometry.Triangle, plane cutter.Plane, eps float64) (segment, bool) {
	verts := [3]geometry.Vector3{t.V1, t.V2, t.V3}
	var d [3]float64
	above := 0
	for i, p := range verts {
		d[i] = plane.SignedDistance(p)
		if math.Abs(d[i]) <= eps {
			d[i] = 0
		}
		if d[i] >= 0 {
			above++
		}
	}
	if above == 0 || above == 3 {
		return segment{}, false
	}

	var hits []geometry.Vector3
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		if (d[i] >= 0) == (d[j] >= 0) {
			continue
		}
		s := d[i] / (d[i] - d[j])
		hits = append(hits, verts[i].Lerp(verts[j], s))
	}
	if len(hits) != 2 || hits[0].ApproxEqual(hits[1], eps) {
		return segment{}, false
	}

	// material lies to the left when walking along normal × face normal
	seg := segment{a: hits[0], b: hits[1]}
	dir := plane.Normal.Cross(t.CalculateNormal())
	if seg.b.Sub(seg.a).Dot(dir) < 0 {
		seg.a, seg.b = seg.b, seg.a
	}
	return seg, true
}

type pointChain struct {
	points []geometry.Vector3
	closed bool
}

// chain links segments head to tail. Endpoints closer than tol are treated
// as the same point.
func chain(segments []segment, tol float64) []pointChain {
	w := mesh.NewWelder(tol)
	type link struct{ from, to int }
	links := make([]link, len(segments))
	starts := make(map[int][]int)
	ends := make(map[int]int)
	used := make([]bool, len(segments))
	for i, s := range segments {
		links[i] = link{w.Add(s.a), w.Add(s.b)}
		if links[i].from == links[i].to {
			used[i] = true
			continue
		}
		starts[links[i].from] = append(starts[links[i].from], i)
		ends[links[i].to]++
	}
	vertices := w.Vertices()

	next := func(from int) int {
		for _, i := range starts[from] {
			if !used[i] {
				return i
			}
		}
		return -1
	}
	walk := func(first int) pointChain {
		c := pointChain{points: []geometry.Vector3{vertices[links[first].from]}}
		origin := links[first].from
		for i := first; i >= 0; i = next(links[i].to) {
			used[i] = true
			if links[i].to == origin {
				c.closed = true
				break
			}
			c.points = append(c.points, vertices[links[i].to])
		}
		return c
	}

	var chains []pointChain
	// open chains first, starting where no segment ends
	for i := range segments {
		if !used[i] && ends[links[i].from] == 0 {
			chains = append(chains, walk(i))
		}
	}
	for i := range segments {
		if !used[i] {
			chains = append(chains, walk(i))
		}
	}
	return chains
}

// Project maps a 3D point into plane coordinates
func (o *Outline) Project(p geometry.Vector3) Point {
	d := p.Sub(o.Origin)
	return Point{X: d.Dot(o.U), Y: d.Dot(o.V)}
}

// Unproject maps plane coordinates back to 3D
func (o *Outline) Unproject(p Point) geometry.Vector3 {
	return o.Origin.Add(o.U.Mul(p.X)).Add(o.V.Mul(p.Y))
}

// IsEmpty reports whether the plane missed the mesh
func (o *Outline) IsEmpty() bool {
	return len(o.Paths) == 0
}

// ClosedCount returns the number of closed loops
func (o *Outline) ClosedCount() int {
	n := 0
	for _, p := range o.Paths {
		if p.Closed {
			n++
		}
	}
	return n
}

// Bounds returns the 2D extent of all paths
func (o *Outline) Bounds() (lo, hi Point) {
	lo = Point{math.Inf(1), math.Inf(1)}
	hi = Point{math.Inf(-1), math.Inf(-1)}
	for _, path := range o.Paths {
		for _, p := range path.Points {
			lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
			hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
		}
	}
	return lo, hi
}

// Length returns the total length of the paths
func (o *Outline) Length() float64 {
	total := 0.0
	for _, path := range o.Paths {
		total += path.Length()
	}
	return total
}

// Area returns the net enclosed area: loops around material count
// positive, holes negative. Open paths are ignored.
func (o *Outline) Area() float64 {
	total := 0.0
	for _, path := range o.Paths {
		if path.Closed {
			total += path.SignedArea()
		}
	}
	return total
}

// Length returns the length of the path, including the closing edge
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		total += math.Hypot(p.Points[i].X-p.Points[i-1].X, p.Points[i].Y-p.Points[i-1].Y)
	}
	if p.Closed && len(p.Points) > 2 {
		first, last := p.Points[0], p.Points[len(p.Points)-1]
		total += math.Hypot(first.X-last.X, first.Y-last.Y)
	}
	return total
}

// SignedArea returns the shoelace area, positive for counter-clockwise loops
func (p Path) SignedArea() float64 {
	area := 0.0
	for i := range p.Points {
		a := p.Points[i]
		b := p.Points[(i+1)%len(p.Points)]
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}
