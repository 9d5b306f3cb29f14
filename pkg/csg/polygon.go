package csg

import (
	"github.com/philipparndt/stlcut/pkg/geometry"
)

// Point classification against a plane
const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = front | back
)

// plane is the set of points p with normal·p = w
type plane struct {
	normal geometry.Vector3
	w      float64
}

func (p plane) flipped() plane {
	return plane{normal: p.normal.Neg(), w: -p.w}
}

// planeFromPoints returns the plane through a, b, c in winding order and
// false when the three points are (nearly) collinear.
func planeFromPoints(a, b, c geometry.Vector3) (plane, bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	cross := ab.Cross(ac)
	longest := ab.Dot(ab)
	if l := ac.Dot(ac); l > longest {
		longest = l
	}
	if bc := c.Sub(b); bc.Dot(bc) > longest {
		longest = bc.Dot(bc)
	}
	length := cross.Length()
	// |ab × ac| is the sine of the sharpest angle times two edge lengths
	if length == 0 || length <= 1e-12*longest {
		return plane{}, false
	}
	n := cross.Mul(1 / length)
	return plane{normal: n, w: n.Dot(a)}, true
}

// polygon is a convex planar polygon. Fragments keep the plane of the
// triangle they were cut from instead of re-deriving it from their corners.
type polygon struct {
	vertices []geometry.Vector3
	plane    plane
}

func (p polygon) clone() polygon {
	return polygon{vertices: append([]geometry.Vector3(nil), p.vertices...), plane: p.plane}
}

func (p *polygon) flip() {
	for i, j := 0, len(p.vertices)-1; i < j; i, j = i+1, j-1 {
		p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
	}
	p.plane = p.plane.flipped()
}

// less orders points lexicographically
func less(a, b geometry.Vector3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// intersect returns the point where segment a-b crosses the plane. The
// endpoints are ordered first so that the two polygons sharing an edge get
// bit-identical split points.
func (p plane) intersect(a, b geometry.Vector3) geometry.Vector3 {
	if less(b, a) {
		a, b = b, a
	}
	d := b.Sub(a)
	denom := p.normal.Dot(d)
	if denom == 0 {
		return a
	}
	t := (p.w - p.normal.Dot(a)) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(d.Mul(t))
}

// split sorts poly into one of the four lists, splitting it in two when it
// spans the plane. Coplanar polygons go to coplanarFront or coplanarBack
// depending on their orientation. It returns the number of polygons created.
func (p plane) split(poly polygon, eps float64, coplanarFront, coplanarBack, frontList, backList *[]polygon) int {
	n := len(poly.vertices)
	var stackTypes [8]int
	types := stackTypes[:0]
	if n > len(stackTypes) {
		types = make([]int, 0, n)
	}

	polygonType := coplanar
	for _, v := range poly.vertices {
		t := p.normal.Dot(v) - p.w
		typ := coplanar
		if t < -eps {
			typ = back
		} else if t > eps {
			typ = front
		}
		polygonType |= typ
		types = append(types, typ)
	}

	switch polygonType {
	case coplanar:
		if p.normal.Dot(poly.plane.normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*frontList = append(*frontList, poly)
	case back:
		*backList = append(*backList, poly)
	default:
		f := make([]geometry.Vector3, 0, n+1)
		b := make([]geometry.Vector3, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.vertices[i], poly.vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				v := p.intersect(vi, vj)
				f = append(f, v)
				b = append(b, v)
			}
		}
		created := 0
		if len(f) >= 3 {
			*frontList = append(*frontList, polygon{vertices: f, plane: poly.plane})
			created++
		}
		if len(b) >= 3 {
			*backList = append(*backList, polygon{vertices: b, plane: poly.plane})
			created++
		}
		return created - 1
	}
	return 0
}
