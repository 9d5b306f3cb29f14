package transform

import (
	"fmt"

	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// DegenerateTransformError is returned when a matrix cannot be applied
// because it is not invertible or holds non-finite values. The mesh is left
// untouched.
type DegenerateTransformError struct {
	Matrix geometry.Matrix4
	Reason string
}

func (e *DegenerateTransformError) Error() string {
	return fmt.Sprintf("degenerate transform: %s", e.Reason)
}

// Apply returns a new mesh with the matrix baked into its vertices.
//
// Positions become M·v. Normals are transformed by the inverse-transpose of
// the linear part and renormalized. A mirroring matrix (negative determinant)
// also reverses the winding so that triangles keep facing outward. The input
// mesh is not modified.
func Apply(m *mesh.Mesh, mat geometry.Matrix4) (*mesh.Mesh, error) {
	if err := Check(mat); err != nil {
		return nil, err
	}
	linear := mat.Linear()
	normalMatrix, _ := linear.NormalMatrix()

	out := m.Clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = mat.MulPoint(v)
	}
	if len(out.Normals) > 0 {
		for i, n := range out.Normals {
			out.Normals[i] = normalMatrix.MulVector(n).Normalize()
		}
	}
	if linear.Determinant() < 0 {
		for i, t := range out.Triangles {
			out.Triangles[i] = mesh.Triangle{t[0], t[2], t[1]}
		}
	}
	out.ComputeBounds()
	if len(out.Normals) == 0 {
		out.ComputeNormals()
	}
	return out, nil
}

// Check reports whether the matrix can be baked into geometry
func Check(mat geometry.Matrix4) error {
	if !mat.IsFinite() {
		return &DegenerateTransformError{Matrix: mat, Reason: "matrix contains NaN or infinite values"}
	}
	if _, ok := mat.Inverse(); !ok {
		return &DegenerateTransformError{Matrix: mat, Reason: "matrix is not invertible"}
	}
	if _, ok := mat.Linear().NormalMatrix(); !ok {
		return &DegenerateTransformError{Matrix: mat, Reason: "linear part is not invertible"}
	}
	return nil
}
