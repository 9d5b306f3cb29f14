package geometry

import (
	"math"
	"testing"
)

func circlePoints(center, normal Vector3, radius float64, n int) []Vector3 {
	u, v := PlaneBasis(normal)
	points := make([]Vector3, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = center.Add(u.Mul(radius * math.Cos(a))).Add(v.Mul(radius * math.Sin(a)))
	}
	return points
}

func TestPlaneBasis(t *testing.T) {
	normals := []Vector3{
		{X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -0.2, Y: 0.9, Z: 0.1},
	}
	for _, n := range normals {
		u, v := PlaneBasis(n)
		nn := n.Normalize()
		if math.Abs(u.Length()-1) > 1e-12 || math.Abs(v.Length()-1) > 1e-12 {
			t.Errorf("PlaneBasis failed: expected unit vectors for %v, got %v %v", n, u, v)
		}
		if math.Abs(u.Dot(nn)) > 1e-12 || math.Abs(v.Dot(nn)) > 1e-12 || math.Abs(u.Dot(v)) > 1e-12 {
			t.Errorf("PlaneBasis failed: expected orthogonal basis for %v", n)
		}
	}
}

func TestFitCircle(t *testing.T) {
	tests := []struct {
		center Vector3
		normal Vector3
		radius float64
	}{
		{Vector3{X: 1, Y: 2, Z: 3}, Vector3{Z: 1}, 5},
		{Vector3{X: 50, Y: 0, Z: 10}, Vector3{X: 1}, 12.5},
		{Vector3{X: -4, Y: 7, Z: 2}, Vector3{X: 1, Y: 1, Z: 0}, 0.5},
	}
	for _, tt := range tests {
		fit, err := FitCircle(circlePoints(tt.center, tt.normal, tt.radius, 24), tt.normal)
		if err != nil {
			t.Fatalf("FitCircle failed: %v", err)
		}
		if math.Abs(fit.Radius-tt.radius) > 1e-9 {
			t.Errorf("FitCircle radius failed: expected %v, got %v", tt.radius, fit.Radius)
		}
		if fit.Center.Distance(tt.center) > 1e-9 {
			t.Errorf("FitCircle center failed: expected %v, got %v", tt.center, fit.Center)
		}
		if fit.StdDev > 1e-9 {
			t.Errorf("FitCircle stddev failed: expected 0, got %v", fit.StdDev)
		}
	}
}

func TestFitCircleErrors(t *testing.T) {
	if _, err := FitCircle([]Vector3{{}, {X: 1}}, Vector3{Z: 1}); err == nil {
		t.Errorf("FitCircle failed: expected error for 2 points")
	}
	collinear := []Vector3{{}, {X: 1}, {X: 2}, {X: 3}}
	if _, err := FitCircle(collinear, Vector3{Z: 1}); err == nil {
		t.Errorf("FitCircle failed: expected error for collinear points")
	}
	if _, err := FitCircle(circlePoints(Vector3{}, Vector3{Z: 1}, 1, 8), Vector3{}); err == nil {
		t.Errorf("FitCircle failed: expected error for zero normal")
	}
}
