// Package primitive generates closed sample solids. Boxes are exact; round
// solids are tessellated from signed distance fields with marching cubes.
package primitive

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// DefaultCells is the marching cubes resolution along the longest axis
const DefaultCells = 64

// boxTriangles wind the faces of the corner layout used by Box outward
var boxTriangles = []mesh.Triangle{
	{0, 2, 1}, {0, 3, 2},
	{4, 5, 6}, {4, 6, 7},
	{0, 1, 5}, {0, 5, 4},
	{2, 3, 7}, {2, 7, 6},
	{1, 2, 6}, {1, 6, 5},
	{3, 0, 4}, {3, 4, 7},
}

// Box returns the axis-aligned box spanning min to max as 12 triangles
func Box(min, max geometry.Vector3) (*mesh.Mesh, error) {
	size := max.Sub(min)
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %v", size)
	}
	vertices := []geometry.Vector3{
		{X: min.X, Y: min.Y, Z: min.Z}, {X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z}, {X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z}, {X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z}, {X: min.X, Y: max.Y, Z: max.Z},
	}
	m, err := mesh.New(vertices, append([]mesh.Triangle(nil), boxTriangles...))
	if err != nil {
		return nil, err
	}
	m.Name = "box"
	m.ComputeNormals()
	return m, nil
}

// Cube returns a cube with its minimum corner at the origin
func Cube(size float64) (*mesh.Mesh, error) {
	return Box(geometry.Vector3{}, geometry.Vector3{X: size, Y: size, Z: size})
}

// Cylinder returns a Z-axis cylinder centered at the origin
func Cylinder(radius, height float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return tessellate("cylinder", s, cells)
}

// Sphere returns a sphere centered at the origin
func Sphere(radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere: %w", err)
	}
	return tessellate("sphere", s, cells)
}

// UVSphere returns a latitude/longitude sphere centered at the origin with
// poles on the Z axis. Unlike Sphere its vertices lie exactly on the surface.
func UVSphere(radius float64, rings, segments int) (*mesh.Mesh, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("uv sphere: radius must be positive, got %g", radius)
	}
	if rings < 2 || segments < 3 {
		return nil, fmt.Errorf("uv sphere: need at least 2 rings and 3 segments, got %d and %d", rings, segments)
	}

	vertices := make([]geometry.Vector3, 0, (rings-1)*segments+2)
	vertices = append(vertices, geometry.Vector3{Z: radius})
	for i := 1; i < rings; i++ {
		theta := math.Pi * float64(i) / float64(rings)
		for j := 0; j < segments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(segments)
			vertices = append(vertices, geometry.Vector3{
				X: radius * math.Sin(theta) * math.Cos(phi),
				Y: radius * math.Sin(theta) * math.Sin(phi),
				Z: radius * math.Cos(theta),
			})
		}
	}
	south := len(vertices)
	vertices = append(vertices, geometry.Vector3{Z: -radius})

	at := func(ring, segment int) int {
		return 1 + (ring-1)*segments + segment%segments
	}
	triangles := make([]mesh.Triangle, 0, 2*(rings-1)*segments)
	for j := 0; j < segments; j++ {
		triangles = append(triangles, mesh.Triangle{0, at(1, j), at(1, j+1)})
	}
	for i := 1; i < rings-1; i++ {
		for j := 0; j < segments; j++ {
			a, b := at(i, j), at(i+1, j)
			c, d := at(i+1, j+1), at(i, j+1)
			triangles = append(triangles, mesh.Triangle{a, b, c}, mesh.Triangle{a, c, d})
		}
	}
	for j := 0; j < segments; j++ {
		triangles = append(triangles, mesh.Triangle{south, at(rings-1, j+1), at(rings-1, j)})
	}

	m, err := mesh.New(vertices, triangles)
	if err != nil {
		return nil, err
	}
	m.Name = "uv-sphere"
	m.ComputeNormals()
	return m, nil
}

// RoundedBox returns a box of the given size centered at the origin with
// rounded edges
func RoundedBox(size geometry.Vector3, round float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, round)
	if err != nil {
		return nil, fmt.Errorf("rounded box: %w", err)
	}
	return tessellate("rounded-box", s, cells)
}

// tessellate runs marching cubes over the field and welds the triangle soup
// into an outward-wound indexed mesh.
func tessellate(name string, s sdf.SDF3, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		cells = DefaultCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%s: marching cubes produced no triangles", name)
	}

	soup := make([]geometry.Triangle, 0, len(triangles))
	for _, tri := range triangles {
		n := tri.Normal()
		soup = append(soup, geometry.NewTriangle(
			geometry.NewVector3(n.X, n.Y, n.Z),
			geometry.NewVector3(tri[0].X, tri[0].Y, tri[0].Z),
			geometry.NewVector3(tri[1].X, tri[1].Y, tri[1].Z),
			geometry.NewVector3(tri[2].X, tri[2].Y, tri[2].Z),
		))
	}

	bb := s.BoundingBox()
	diagonal := v3.Vec{X: bb.Max.X - bb.Min.X, Y: bb.Max.Y - bb.Min.Y, Z: bb.Max.Z - bb.Min.Z}.Length()
	m := mesh.FromTriangles(soup, diagonal*mesh.DefaultWeldTolerance)
	if m.Volume() < 0 {
		m.ReverseWinding()
	}
	m.Name = name
	return m, nil
}
