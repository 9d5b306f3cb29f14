package cutter

import (
	"math"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// Default sizing used by NewBuilder
const (
	DefaultMargin  = 10.0
	DefaultMinSize = 1.0
)

// Builder creates cutter solids for planes.
//
// With FixedSize > 0 every cutter is a cube of that side length. Otherwise
// the side length is Margin·(2·|c−p| + d) where c is the target's bounds
// center, p the plane position and d the bounds diagonal, but at least
// MinSize. Any Margin >= 1 makes the box cover the whole target on the
// removed side of the plane.
type Builder struct {
	Margin    float64
	FixedSize float64
	MinSize   float64
}

// NewBuilder returns a builder with adaptive sizing
func NewBuilder() Builder {
	return Builder{Margin: DefaultMargin, MinSize: DefaultMinSize}
}

// Size returns the cutter side length for a plane and target bounds
func (b Builder) Size(plane Plane, target geometry.BoundingBox) float64 {
	if b.FixedSize > 0 {
		return b.FixedSize
	}
	margin := b.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	size := 0.0
	if !target.IsEmpty() {
		reach := 2*target.Center().Distance(plane.Position) + target.Diagonal()
		size = margin * reach
	}
	return math.Max(size, b.MinSize)
}

// Build returns a closed box whose face through the plane position faces the
// kept side and whose body extends over the removed side.
func (b Builder) Build(plane Plane, target geometry.BoundingBox) (*mesh.Mesh, error) {
	plane, err := plane.Normalized()
	if err != nil {
		return nil, err
	}
	size := b.Size(plane, target)
	center := plane.Position.Add(plane.Normal.Mul(plane.Side.Sign() * size / 2))
	return Box(center, size, Orientation(plane.Normal)), nil
}

// Orientation returns a rotation whose local +Z axis is the given unit
// direction. Axis-aligned directions give axis-aligned frames.
func Orientation(forward geometry.Vector3) geometry.Matrix3 {
	up := geometry.Vector3{Y: 1}
	if math.Abs(forward.Y) > 0.999 {
		up = geometry.Vector3{Z: 1}
	}
	right := up.Cross(forward).Normalize()
	upOrtho := forward.Cross(right)
	return geometry.Matrix3{
		right.X, upOrtho.X, forward.X,
		right.Y, upOrtho.Y, forward.Y,
		right.Z, upOrtho.Z, forward.Z,
	}
}

// boxTriangles are the outward-wound faces of the corner layout used by Box
var boxTriangles = []mesh.Triangle{
	{0, 2, 1}, {0, 3, 2}, // -Z
	{4, 5, 6}, {4, 6, 7}, // +Z
	{0, 1, 5}, {0, 5, 4}, // -Y
	{2, 3, 7}, {2, 7, 6}, // +Y
	{1, 2, 6}, {1, 6, 5}, // +X
	{3, 0, 4}, {3, 4, 7}, // -X
}

// Box returns a closed cube with 12 outward-wound triangles, centered at
// center and rotated by a proper rotation.
func Box(center geometry.Vector3, size float64, orientation geometry.Matrix3) *mesh.Mesh {
	h := size / 2
	local := [8]geometry.Vector3{
		{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h},
		{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h},
	}
	vertices := make([]geometry.Vector3, len(local))
	for i, p := range local {
		vertices[i] = orientation.MulVector(p).Add(center)
	}
	m := &mesh.Mesh{
		Name:      "cutter",
		Vertices:  vertices,
		Triangles: append([]mesh.Triangle(nil), boxTriangles...),
	}
	m.Recompute()
	return m
}
