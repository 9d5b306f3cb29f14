package csg

import (
	"context"
	"math"
	"sort"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// maxEarSearch bounds the best-ear search; larger polygons clip the first
// valid ear.
const maxEarSearch = 64

// weldRatio scales the classification tolerance down to the weld tolerance.
// Split points are bit-identical on both sides of an edge; welding only
// absorbs rounding noise.
const weldRatio = 1e-3

// indexedPolygon is a polygon over welded vertex indices
type indexedPolygon struct {
	indices []int
	normal  geometry.Vector3
}

// assemble turns BSP output polygons into a triangle mesh: shared corners
// are welded, vertices lying on other polygons' edges are inserted into those
// edges, and each polygon is ear-clipped. tol is the weld tolerance, far
// below the plane classification tolerance.
func assemble(ctx context.Context, polygons []polygon, tol float64) (*mesh.Mesh, error) {
	welder := mesh.NewWelder(tol)
	indexed := make([]indexedPolygon, 0, len(polygons))
	for _, p := range polygons {
		idx := make([]int, 0, len(p.vertices))
		for _, v := range p.vertices {
			i := welder.Add(v)
			if len(idx) > 0 && idx[len(idx)-1] == i {
				continue
			}
			idx = append(idx, i)
		}
		for len(idx) > 1 && idx[0] == idx[len(idx)-1] {
			idx = idx[:len(idx)-1]
		}
		if len(idx) < 3 {
			continue
		}
		indexed = append(indexed, indexedPolygon{indices: idx, normal: p.plane.normal})
	}

	vertices := welder.Vertices()
	if err := repairTJunctions(ctx, indexed, vertices, tol); err != nil {
		return nil, err
	}

	triangles := make([]mesh.Triangle, 0, len(indexed)*2)
	for i, p := range indexed {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		triangles = triangulate(p, vertices, tol, triangles)
	}
	triangles = removeOppositePairs(triangles)
	return compact(vertices, triangles), nil
}

// vertexGrid is a coarse spatial hash over welded vertices used to find
// vertices near an edge.
type vertexGrid struct {
	cell     float64
	min      geometry.Vector3
	cells    map[[3]int][]int
	vertices []geometry.Vector3
}

func newVertexGrid(vertices []geometry.Vector3, eps float64) *vertexGrid {
	bounds := geometry.BoundsOf(vertices)
	cell := bounds.Diagonal() / math.Cbrt(float64(len(vertices))+1)
	if cell < 4*eps {
		cell = 4 * eps
	}
	g := &vertexGrid{cell: cell, min: bounds.Min, cells: make(map[[3]int][]int), vertices: vertices}
	for i, v := range vertices {
		k := g.key(v)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *vertexGrid) key(p geometry.Vector3) [3]int {
	return [3]int{
		int(math.Floor((p.X - g.min.X) / g.cell)),
		int(math.Floor((p.Y - g.min.Y) / g.cell)),
		int(math.Floor((p.Z - g.min.Z) / g.cell)),
	}
}

// near calls fn for every vertex in cells overlapping the box [lo, hi]
func (g *vertexGrid) near(lo, hi geometry.Vector3, fn func(int)) {
	kl, kh := g.key(lo), g.key(hi)
	span := (kh[0] - kl[0] + 1) * (kh[1] - kl[1] + 1) * (kh[2] - kl[2] + 1)
	if span > len(g.cells) {
		for _, bucket := range g.cells {
			for _, i := range bucket {
				fn(i)
			}
		}
		return
	}
	for x := kl[0]; x <= kh[0]; x++ {
		for y := kl[1]; y <= kh[1]; y++ {
			for z := kl[2]; z <= kh[2]; z++ {
				for _, i := range g.cells[[3]int{x, y, z}] {
					fn(i)
				}
			}
		}
	}
}

type edgeHit struct {
	index int
	t     float64
}

// repairTJunctions inserts into every polygon edge the welded vertices that
// lie on it, so that neighbouring fragments share their corners.
func repairTJunctions(ctx context.Context, polygons []indexedPolygon, vertices []geometry.Vector3, eps float64) error {
	if len(vertices) == 0 {
		return nil
	}
	grid := newVertexGrid(vertices, eps)
	pad := geometry.Vector3{X: eps, Y: eps, Z: eps}

	for pi := range polygons {
		if pi%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		src := polygons[pi].indices
		out := make([]int, 0, len(src))
		changed := false
		for i, ia := range src {
			ib := src[(i+1)%len(src)]
			a, b := vertices[ia], vertices[ib]
			out = append(out, ia)

			d := b.Sub(a)
			length2 := d.Dot(d)
			if length2 <= eps*eps {
				continue
			}
			length := math.Sqrt(length2)
			var hits []edgeHit
			grid.near(a.Min(b).Sub(pad), a.Max(b).Add(pad), func(ic int) {
				if ic == ia || ic == ib {
					return
				}
				c := vertices[ic]
				t := c.Sub(a).Dot(d) / length2
				if t*length <= eps || (1-t)*length <= eps {
					return
				}
				if c.Distance(a.Add(d.Mul(t))) > eps {
					return
				}
				hits = append(hits, edgeHit{index: ic, t: t})
			})
			if len(hits) == 0 {
				continue
			}
			sort.Slice(hits, func(x, y int) bool { return hits[x].t < hits[y].t })
			for _, h := range hits {
				out = append(out, h.index)
			}
			changed = true
		}
		if changed {
			polygons[pi].indices = out
		}
	}
	return nil
}

// triangulate ear-clips a convex polygon that may carry collinear vertices
// on its edges. Only strictly convex corners are clipped, so no zero-area
// triangles are emitted, and among them the best-shaped ear is taken.
func triangulate(p indexedPolygon, vertices []geometry.Vector3, eps float64, out []mesh.Triangle) []mesh.Triangle {
	ring := append([]int(nil), p.indices...)
	for len(ring) >= 3 {
		best, bestQuality := -1, 0.0
		n := len(ring)
		for i := 0; i < n; i++ {
			prev := vertices[ring[(i+n-1)%n]]
			cur := vertices[ring[i]]
			next := vertices[ring[(i+1)%n]]
			q, ok := earQuality(prev, cur, next, p.normal, eps)
			if !ok || chordBlocked(ring, vertices, i, eps) {
				continue
			}
			if best < 0 || q > bestQuality {
				best, bestQuality = i, q
			}
			if n > maxEarSearch {
				break
			}
		}
		if best < 0 {
			// only collinear corners left: the remainder has no area
			return out
		}
		out = append(out, mesh.Triangle{ring[(best+n-1)%n], ring[best], ring[(best+1)%n]})
		ring = append(ring[:best], ring[best+1:]...)
	}
	return out
}

// chordBlocked reports whether another ring vertex lies on the chord that
// clipping corner i would create. Clipping such an ear would leave that
// vertex on an edge no triangle covers.
func chordBlocked(ring []int, vertices []geometry.Vector3, i int, eps float64) bool {
	n := len(ring)
	if n <= 3 {
		return false
	}
	a := vertices[ring[(i+n-1)%n]]
	b := vertices[ring[(i+1)%n]]
	d := b.Sub(a)
	length2 := d.Dot(d)
	for k := 2; k < n-1; k++ {
		c := vertices[ring[(i+k)%n]]
		t := c.Sub(a).Dot(d) / length2
		if t <= 0 || t >= 1 {
			continue
		}
		if c.Distance(a.Add(d.Mul(t))) <= eps {
			return true
		}
	}
	return false
}

// earQuality returns a shape measure of the triangle (prev, cur, next) and
// whether cur is a strictly convex corner with respect to normal.
func earQuality(prev, cur, next, normal geometry.Vector3, eps float64) (float64, bool) {
	e1 := cur.Sub(prev)
	e2 := next.Sub(cur)
	cross := e1.Cross(e2)
	if cross.Dot(normal) <= 0 {
		return 0, false
	}
	chord := next.Sub(prev)
	chordLength := chord.Length()
	if chordLength == 0 {
		return 0, false
	}
	// distance of cur from the chord prev-next
	height := cross.Length() / chordLength
	if height <= eps {
		return 0, false
	}
	e3 := chord
	sum := e1.Dot(e1) + e2.Dot(e2) + e3.Dot(e3)
	return cross.Length() / sum, true
}

// removeOppositePairs drops pairs of triangles over the same three vertices
// with opposite winding. Such pairs are zero-thickness walls left where
// coplanar faces of the operands met.
func removeOppositePairs(triangles []mesh.Triangle) []mesh.Triangle {
	type key [3]int
	canonical := func(t mesh.Triangle) (key, bool) {
		// rotate so the smallest index comes first; the parity of the rest
		// tells the winding
		i := 0
		if t[1] < t[i] {
			i = 1
		}
		if t[2] < t[i] {
			i = 2
		}
		a, b, c := t[i], t[(i+1)%3], t[(i+2)%3]
		if b < c {
			return key{a, b, c}, true
		}
		return key{a, c, b}, false
	}

	count := make(map[key][2]int, len(triangles))
	for _, t := range triangles {
		k, forward := canonical(t)
		c := count[k]
		if forward {
			c[0]++
		} else {
			c[1]++
		}
		count[k] = c
	}

	out := triangles[:0]
	removed := make(map[key][2]int)
	for _, t := range triangles {
		k, forward := canonical(t)
		c := count[k]
		pairs := c[0]
		if c[1] < pairs {
			pairs = c[1]
		}
		r := removed[k]
		slot := 1
		if forward {
			slot = 0
		}
		if r[slot] < pairs {
			r[slot]++
			removed[k] = r
			continue
		}
		out = append(out, t)
	}
	return out
}

// compact drops unreferenced vertices and builds the mesh
func compact(vertices []geometry.Vector3, triangles []mesh.Triangle) *mesh.Mesh {
	remap := make([]int, len(vertices))
	for i := range remap {
		remap[i] = -1
	}
	used := make([]geometry.Vector3, 0, len(vertices))
	for ti, t := range triangles {
		for j, idx := range t {
			if remap[idx] < 0 {
				remap[idx] = len(used)
				used = append(used, vertices[idx])
			}
			triangles[ti][j] = remap[idx]
		}
	}
	m := &mesh.Mesh{Vertices: used, Triangles: triangles}
	m.Recompute()
	return m
}
