package mesh

import "sort"

// EdgeReport summarises the edge structure of a mesh
type EdgeReport struct {
	Edges            int // distinct undirected edges
	BoundaryEdges    int // used by exactly one triangle
	NonManifoldEdges int // used by more than two triangles
	FlippedEdges     int // shared by two triangles with the same direction
}

// Closed reports whether every edge is shared by exactly two consistently
// oriented triangles.
func (r EdgeReport) Closed() bool {
	return r.Edges > 0 && r.BoundaryEdges == 0 && r.NonManifoldEdges == 0 && r.FlippedEdges == 0
}

type edgeKey struct {
	a, b int
}

// EdgeDefect classifies an edge that keeps a mesh from being closed
type EdgeDefect int

const (
	Boundary EdgeDefect = iota + 1
	NonManifold
	Flipped
)

func (d EdgeDefect) String() string {
	switch d {
	case Boundary:
		return "boundary"
	case NonManifold:
		return "non-manifold"
	case Flipped:
		return "flipped"
	default:
		return "ok"
	}
}

// DefectEdge is an undirected edge between vertex indices A < B
type DefectEdge struct {
	A, B   int
	Defect EdgeDefect
	Uses   int // triangles using the edge
}

// walkEdges calls fn once per undirected edge with its directed use counts
func (m *Mesh) walkEdges(fn func(k edgeKey, forward, backward int)) {
	directed := make(map[edgeKey]int, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		for i := 0; i < 3; i++ {
			directed[edgeKey{t[i], t[(i+1)%3]}]++
		}
	}
	for e, forward := range directed {
		if e.a > e.b {
			if _, ok := directed[edgeKey{e.b, e.a}]; ok {
				continue
			}
			fn(edgeKey{e.b, e.a}, 0, forward)
			continue
		}
		fn(e, forward, directed[edgeKey{e.b, e.a}])
	}
}

func classifyEdge(forward, backward int) EdgeDefect {
	switch total := forward + backward; {
	case total == 1:
		return Boundary
	case total > 2:
		return NonManifold
	case forward == 2 || backward == 2:
		return Flipped
	}
	return 0
}

// Topology counts boundary, non-manifold and inconsistently oriented edges
func (m *Mesh) Topology() EdgeReport {
	var report EdgeReport
	m.walkEdges(func(_ edgeKey, forward, backward int) {
		report.Edges++
		switch classifyEdge(forward, backward) {
		case Boundary:
			report.BoundaryEdges++
		case NonManifold:
			report.NonManifoldEdges++
		case Flipped:
			report.FlippedEdges++
		}
	})
	return report
}

// DefectEdges lists every edge that is not shared by exactly two consistently
// oriented triangles, ordered by vertex index.
func (m *Mesh) DefectEdges() []DefectEdge {
	var out []DefectEdge
	m.walkEdges(func(k edgeKey, forward, backward int) {
		if d := classifyEdge(forward, backward); d != 0 {
			out = append(out, DefectEdge{A: k.a, B: k.b, Defect: d, Uses: forward + backward})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// IsClosed reports whether the mesh is a closed, consistently oriented
// 2-manifold surface.
func (m *Mesh) IsClosed() bool {
	return m.Topology().Closed()
}
