// Package csg implements mesh booleans on binary space partitioning trees.
//
// Both operands are expected to be closed, outward-wound 2-manifold meshes.
// Points are classified against splitting planes with a tolerance relative
// to the size of the first operand, fragments are re-triangulated without
// slivers and T-junctions are closed so that the result is watertight again.
package csg

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// Defaults used when Options fields are zero
const (
	DefaultRelativeEpsilon = 1e-5
	DefaultMaxPolygons     = 200000
)

var (
	// ErrEmptyResult is returned when an operation leaves no triangles
	ErrEmptyResult = errors.New("boolean result is empty")
	// ErrLimitExceeded is returned when the fragment count passes MaxPolygons
	ErrLimitExceeded = errors.New("polygon limit exceeded")
)

// Op names a boolean operation
type Op string

const (
	OpSubtract  Op = "subtract"
	OpUnion     Op = "union"
	OpIntersect Op = "intersect"
)

// BooleanOperationError reports a boolean that could not produce a valid
// result. The operands are never modified.
type BooleanOperationError struct {
	Op  Op
	Err error
}

func (e *BooleanOperationError) Error() string {
	return fmt.Sprintf("boolean %s failed: %v", e.Op, e.Err)
}

func (e *BooleanOperationError) Unwrap() error {
	return e.Err
}

// Options tune a boolean operation
type Options struct {
	// RelativeEpsilon is multiplied by max(1, diagonal of the first operand)
	// to get the plane classification tolerance.
	RelativeEpsilon float64
	// MaxPolygons caps the number of polygon fragments; <= 0 uses the default.
	MaxPolygons int
	// RequireClosed fails the operation when the first operand is closed but
	// the result has open or non-manifold edges.
	RequireClosed bool
}

// DefaultOptions returns the default tolerance and budget. Closed operands
// must give closed results.
func DefaultOptions() Options {
	return Options{
		RelativeEpsilon: DefaultRelativeEpsilon,
		MaxPolygons:     DefaultMaxPolygons,
		RequireClosed:   true,
	}
}

func (o Options) epsilon(bounds geometry.BoundingBox) float64 {
	rel := o.RelativeEpsilon
	if rel <= 0 {
		rel = DefaultRelativeEpsilon
	}
	return rel * math.Max(1, bounds.Diagonal())
}

// Epsilon returns the absolute tolerance used for a first operand with the
// given bounds.
func (o Options) Epsilon(bounds geometry.BoundingBox) float64 {
	return o.epsilon(bounds)
}

// Subtract returns a − b
func Subtract(ctx context.Context, a, b *mesh.Mesh, opts Options) (*mesh.Mesh, error) {
	return run(ctx, OpSubtract, a, b, opts)
}

// Union returns a ∪ b
func Union(ctx context.Context, a, b *mesh.Mesh, opts Options) (*mesh.Mesh, error) {
	return run(ctx, OpUnion, a, b, opts)
}

// Intersect returns a ∩ b
func Intersect(ctx context.Context, a, b *mesh.Mesh, opts Options) (*mesh.Mesh, error) {
	return run(ctx, OpIntersect, a, b, opts)
}

func run(ctx context.Context, op Op, a, b *mesh.Mesh, opts Options) (result *mesh.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &BooleanOperationError{Op: op, Err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	if err := validate(a, b); err != nil {
		return nil, &BooleanOperationError{Op: op, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &BooleanOperationError{Op: op, Err: err}
	}

	maxPolygons := opts.MaxPolygons
	if maxPolygons <= 0 {
		maxPolygons = DefaultMaxPolygons
	}
	e := &engine{ctx: ctx, eps: opts.epsilon(a.Bounds), maxPolygons: maxPolygons}

	if disjoint(a.Bounds, b.Bounds, e.eps) {
		result, err = disjointResult(op, a, b)
	} else {
		result, err = e.evaluate(op, a, b)
	}
	if err != nil {
		return nil, &BooleanOperationError{Op: op, Err: err}
	}
	if result.IsEmpty() {
		return nil, &BooleanOperationError{Op: op, Err: ErrEmptyResult}
	}
	if opts.RequireClosed && a.IsClosed() {
		if report := result.Topology(); !report.Closed() {
			return nil, &BooleanOperationError{Op: op, Err: fmt.Errorf(
				"result is not closed: %d boundary, %d non-manifold, %d flipped edges",
				report.BoundaryEdges, report.NonManifoldEdges, report.FlippedEdges)}
		}
	}
	result.Name = a.Name
	return result, nil
}

func validate(a, b *mesh.Mesh) error {
	if a == nil || b == nil {
		return errors.New("nil mesh")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("first operand: %w", err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("second operand: %w", err)
	}
	return nil
}

func disjoint(a, b geometry.BoundingBox, eps float64) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return true
	}
	return a.Min.X > b.Max.X+eps || b.Min.X > a.Max.X+eps ||
		a.Min.Y > b.Max.Y+eps || b.Min.Y > a.Max.Y+eps ||
		a.Min.Z > b.Max.Z+eps || b.Min.Z > a.Max.Z+eps
}

// disjointResult handles operands whose bounds do not touch
func disjointResult(op Op, a, b *mesh.Mesh) (*mesh.Mesh, error) {
	switch op {
	case OpSubtract:
		out := a.Clone()
		out.Recompute()
		return out, nil
	case OpUnion:
		return merge(a, b), nil
	default:
		return nil, ErrEmptyResult
	}
}

func merge(a, b *mesh.Mesh) *mesh.Mesh {
	out := &mesh.Mesh{
		Vertices:  append(append([]geometry.Vector3(nil), a.Vertices...), b.Vertices...),
		Triangles: append([]mesh.Triangle(nil), a.Triangles...),
	}
	offset := len(a.Vertices)
	for _, t := range b.Triangles {
		out.Triangles = append(out.Triangles, mesh.Triangle{t[0] + offset, t[1] + offset, t[2] + offset})
	}
	out.Recompute()
	return out
}

func (e *engine) evaluate(op Op, a, b *mesh.Mesh) (*mesh.Mesh, error) {
	pa := toPolygons(a)
	pb := toPolygons(b)
	e.polygons = len(pa) + len(pb)
	if e.polygons > e.maxPolygons {
		return nil, ErrLimitExceeded
	}
	if len(pa) == 0 {
		return nil, errors.New("first operand has no non-degenerate triangles")
	}

	ta, err := e.newTree(pa)
	if err != nil {
		return nil, err
	}
	tb, err := e.newTree(pb)
	if err != nil {
		return nil, err
	}

	var steps []func() error
	switch op {
	case OpSubtract:
		steps = []func() error{
			func() error { ta.invert(); return nil },
			func() error { return e.clipTo(ta, tb) },
			func() error { return e.clipTo(tb, ta) },
			func() error { tb.invert(); return nil },
			func() error { return e.clipTo(tb, ta) },
			func() error { tb.invert(); return nil },
			func() error { return e.build(ta, tb.allPolygons()) },
			func() error { ta.invert(); return nil },
		}
	case OpUnion:
		steps = []func() error{
			func() error { return e.clipTo(ta, tb) },
			func() error { return e.clipTo(tb, ta) },
			func() error { tb.invert(); return nil },
			func() error { return e.clipTo(tb, ta) },
			func() error { tb.invert(); return nil },
			func() error { return e.build(ta, tb.allPolygons()) },
		}
	case OpIntersect:
		steps = []func() error{
			func() error { ta.invert(); return nil },
			func() error { return e.clipTo(tb, ta) },
			func() error { tb.invert(); return nil },
			func() error { return e.clipTo(ta, tb) },
			func() error { return e.clipTo(tb, ta) },
			func() error { return e.build(ta, tb.allPolygons()) },
			func() error { ta.invert(); return nil },
		}
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if err := e.ctx.Err(); err != nil {
		return nil, err
	}
	return assemble(e.ctx, ta.allPolygons(), e.eps*weldRatio)
}

// toPolygons converts mesh triangles into polygons, dropping triangles too
// thin to define a plane.
func toPolygons(m *mesh.Mesh) []polygon {
	out := make([]polygon, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		pl, ok := planeFromPoints(a, b, c)
		if !ok {
			continue
		}
		out = append(out, polygon{vertices: []geometry.Vector3{a, b, c}, plane: pl})
	}
	return out
}
