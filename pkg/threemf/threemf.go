// Package threemf reads and writes 3MF packages through go3mf. Only mesh
// objects of the root model are supported; components and extension
// resources are ignored.
package threemf

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hpinc/go3mf"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/stl"
)

// ErrNoMesh is returned when a package has no printable mesh object
var ErrNoMesh = errors.New("3mf package contains no mesh")

// Decode reads a 3MF package into a triangle soup. Every build item is
// placed with its transform; a package without build items yields all mesh
// objects untransformed.
func Decode(r io.ReaderAt, size int64) (*stl.Model, error) {
	var model go3mf.Model
	if err := go3mf.NewDecoder(r, size).Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to decode 3MF: %w", err)
	}

	objects := make(map[uint32]*go3mf.Object, len(model.Resources.Objects))
	for _, obj := range model.Resources.Objects {
		objects[obj.ID] = obj
	}

	out := stl.NewModel("")
	if len(model.Build.Items) == 0 {
		for _, obj := range model.Resources.Objects {
			appendObject(out, obj, geometry.Identity4())
		}
	}
	for _, item := range model.Build.Items {
		obj, ok := objects[item.ObjectID]
		if !ok {
			return nil, fmt.Errorf("build item references unknown object %d", item.ObjectID)
		}
		appendObject(out, obj, itemMatrix(item.Transform))
	}

	if out.TriangleCount() == 0 {
		return nil, ErrNoMesh
	}
	return out, nil
}

// Parse reads a 3MF file
func Parse(path string) (*stl.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Decode(f, info.Size())
}

func appendObject(out *stl.Model, obj *go3mf.Object, mat geometry.Matrix4) {
	if obj.Mesh == nil {
		return
	}
	if out.Name == "" {
		out.Name = obj.Name
	}
	vertices := obj.Mesh.Vertices.Vertex
	point := func(i uint32) geometry.Vector3 {
		v := vertices[i]
		return mat.MulPoint(geometry.NewVector3(float64(v[0]), float64(v[1]), float64(v[2])))
	}
	for _, t := range obj.Mesh.Triangles.Triangle {
		if int(t.V1) >= len(vertices) || int(t.V2) >= len(vertices) || int(t.V3) >= len(vertices) {
			continue
		}
		tri := geometry.Triangle{V1: point(t.V1), V2: point(t.V2), V3: point(t.V3)}
		tri.Normal = tri.CalculateNormal()
		out.AddTriangle(tri)
	}
}

// itemMatrix converts a 3MF row-vector transform (translation in elements
// 12..14) into a column-vector Matrix4. The zero matrix means identity.
func itemMatrix(m go3mf.Matrix) geometry.Matrix4 {
	if m == (go3mf.Matrix{}) {
		return geometry.Identity4()
	}
	var out geometry.Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = float64(m[c*4+r])
		}
	}
	return out
}

// Encode writes the mesh as a single-object 3MF package
func Encode(w io.Writer, m *mesh.Mesh) error {
	msh := &go3mf.Mesh{}
	msh.Vertices.Vertex = make([]go3mf.Point3D, len(m.Vertices))
	for i, v := range m.Vertices {
		msh.Vertices.Vertex[i] = go3mf.Point3D{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	msh.Triangles.Triangle = make([]go3mf.Triangle, len(m.Triangles))
	for i, t := range m.Triangles {
		msh.Triangles.Triangle[i] = go3mf.Triangle{V1: uint32(t[0]), V2: uint32(t[1]), V3: uint32(t[2])}
	}

	model := &go3mf.Model{}
	model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{ID: 1, Name: m.Name, Mesh: msh})
	model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: 1})

	if err := go3mf.NewEncoder(w).Encode(model); err != nil {
		return fmt.Errorf("failed to encode 3MF: %w", err)
	}
	return nil
}

// Save writes the mesh to a .3mf file
func Save(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
