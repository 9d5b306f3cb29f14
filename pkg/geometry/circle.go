package geometry

import (
	"fmt"
	"math"
)

// CircleFit represents the result of fitting a circle to points
type CircleFit struct {
	Center Vector3 // Circle center in 3D
	Radius float64 // Circle radius
	Normal Vector3 // Normal vector of the plane containing the circle
	StdDev float64 // Standard deviation of the point distances from the circle
}

// PlaneBasis returns two orthonormal vectors spanning the plane orthogonal
// to normal. The normal must be non-zero.
func PlaneBasis(normal Vector3) (Vector3, Vector3) {
	n := normal.Normalize()
	helper := Vector3{X: 1}
	if math.Abs(n.X) > math.Abs(n.Y) {
		helper = Vector3{Y: 1}
	}
	if math.Abs(n.Z) < math.Min(math.Abs(n.X), math.Abs(n.Y)) {
		helper = Vector3{Z: 1}
	}
	u := helper.Sub(n.Mul(helper.Dot(n))).Normalize()
	v := n.Cross(u)
	return u, v
}

// FitCircle fits a circle to points lying in a plane with the given normal.
// Points are projected onto the plane through their centroid and fitted by
// algebraic least squares (x² + y² + ax + by + c = 0).
func FitCircle(points []Vector3, normal Vector3) (*CircleFit, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("need at least 3 points to fit a circle")
	}
	if normal.Length() == 0 || !normal.IsFinite() {
		return nil, fmt.Errorf("invalid plane normal %v", normal)
	}
	n := normal.Normalize()
	u, v := PlaneBasis(n)

	var centroid Vector3
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(points)))

	// 2D coordinates relative to the centroid keep the system well scaled
	points2D := make([][2]float64, len(points))
	var sxx, sxy, syy, sx, sy, sxz, syz, sz float64
	for i, p := range points {
		d := p.Sub(centroid)
		x, y := d.Dot(u), d.Dot(v)
		z := x*x + y*y
		points2D[i] = [2]float64{x, y}
		sxx += x * x
		sxy += x * y
		syy += y * y
		sx += x
		sy += y
		sxz += x * z
		syz += y * z
		sz += z
	}

	normalEquations := Matrix3{
		sxx, sxy, sx,
		sxy, syy, sy,
		sx, sy, float64(len(points)),
	}
	inverse, ok := normalEquations.Inverse()
	if !ok {
		return nil, fmt.Errorf("points are collinear")
	}
	abc := inverse.MulVector(Vector3{X: -sxz, Y: -syz, Z: -sz})

	cx, cy := -abc.X/2, -abc.Y/2
	r2 := cx*cx + cy*cy - abc.Z
	if r2 <= 0 {
		return nil, fmt.Errorf("points do not describe a circle")
	}
	radius := math.Sqrt(r2)

	var sumError float64
	for _, p := range points2D {
		dist := math.Hypot(p[0]-cx, p[1]-cy)
		sumError += (dist - radius) * (dist - radius)
	}

	return &CircleFit{
		Center: centroid.Add(u.Mul(cx)).Add(v.Mul(cy)),
		Radius: radius,
		Normal: n,
		StdDev: math.Sqrt(sumError / float64(len(points))),
	}, nil
}
