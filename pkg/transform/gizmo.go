// Package transform bakes affine transforms into mesh geometry.
package transform

import (
	"math"

	"github.com/philipparndt/stlcut/pkg/geometry"
)

// Gizmo is the translate/rotate/scale state of an interactive transform
// handle. Rotation is given as XYZ Euler angles in degrees.
type Gizmo struct {
	Translate geometry.Vector3 `yaml:"translate" json:"translate"`
	Rotate    geometry.Vector3 `yaml:"rotate" json:"rotate"`
	Scale     geometry.Vector3 `yaml:"scale" json:"scale"`
}

// NewGizmo returns a gizmo at rest (identity transform)
func NewGizmo() Gizmo {
	return Gizmo{Scale: geometry.Vector3{X: 1, Y: 1, Z: 1}}
}

// Rotation returns Rx · Ry · Rz for the gizmo's Euler angles
func (g Gizmo) Rotation() geometry.Matrix4 {
	rx := geometry.RotateX(degToRad(g.Rotate.X))
	ry := geometry.RotateY(degToRad(g.Rotate.Y))
	rz := geometry.RotateZ(degToRad(g.Rotate.Z))
	return rx.Mul(ry).Mul(rz)
}

// Matrix composes T · R · S
func (g Gizmo) Matrix() geometry.Matrix4 {
	return geometry.Translate(g.Translate).Mul(g.Rotation()).Mul(geometry.Scale(g.Scale))
}

// IsIdentity reports whether the gizmo leaves geometry unchanged
func (g Gizmo) IsIdentity() bool {
	return g.Matrix().IsIdentity()
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
