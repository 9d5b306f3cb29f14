package geometry

import (
	"math"
	"testing"
)

func matrixApproxEqual(a, b Matrix4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestMatrix4MulPoint(t *testing.T) {
	m := Translate(NewVector3(1, 2, 3)).Mul(Scale(NewVector3(2, 2, 2)))
	got := m.MulPoint(NewVector3(1, 1, 1))

	expected := NewVector3(3, 4, 5)
	if !got.ApproxEqual(expected, 1e-12) {
		t.Errorf("MulPoint failed: expected %v, got %v", expected, got)
	}
}

func TestMatrix4MulDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(NewVector3(100, 100, 100))
	got := m.MulDirection(NewVector3(0, 0, 1))

	if got != NewVector3(0, 0, 1) {
		t.Errorf("MulDirection failed: expected (0,0,1), got %v", got)
	}
}

func TestMatrix4Rotations(t *testing.T) {
	tests := []struct {
		name     string
		m        Matrix4
		in, want Vector3
	}{
		{"x", RotateX(math.Pi / 2), NewVector3(0, 1, 0), NewVector3(0, 0, 1)},
		{"y", RotateY(math.Pi / 2), NewVector3(0, 0, 1), NewVector3(1, 0, 0)},
		{"z", RotateZ(math.Pi / 2), NewVector3(1, 0, 0), NewVector3(0, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.MulPoint(tt.in)
			if !got.ApproxEqual(tt.want, 1e-12) {
				t.Errorf("rotation failed: expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatrix4Inverse(t *testing.T) {
	m := Translate(NewVector3(5, -3, 2)).
		Mul(RotateY(0.7)).
		Mul(RotateX(-0.3)).
		Mul(Scale(NewVector3(2, 0.5, 3)))

	inv, ok := m.Inverse()
	if !ok {
		t.Fatalf("Inverse failed: matrix reported singular")
	}
	if !matrixApproxEqual(m.Mul(inv), Identity4(), 1e-9) {
		t.Errorf("Inverse failed: m * inv != identity, got %v", m.Mul(inv))
	}
}

func TestMatrix4InverseSingular(t *testing.T) {
	m := Scale(NewVector3(1, 0, 1))
	if _, ok := m.Inverse(); ok {
		t.Errorf("Inverse failed: expected singular matrix to be rejected")
	}
	if _, ok := m.Linear().NormalMatrix(); ok {
		t.Errorf("NormalMatrix failed: expected singular linear part to be rejected")
	}
}

func TestMatrix4Determinant(t *testing.T) {
	m := Scale(NewVector3(2, 3, 4))
	if math.Abs(m.Determinant()-24) > 1e-12 {
		t.Errorf("Determinant failed: expected 24, got %v", m.Determinant())
	}
	if math.Abs(m.Linear().Determinant()-24) > 1e-12 {
		t.Errorf("Linear Determinant failed: expected 24, got %v", m.Linear().Determinant())
	}
}

func TestMatrix3NormalMatrixNonUniformScale(t *testing.T) {
	// A 45° face on a box stretched 2x along X must tilt toward +Y.
	l := Scale(NewVector3(2, 1, 1)).Linear()
	nm, ok := l.NormalMatrix()
	if !ok {
		t.Fatalf("NormalMatrix failed: matrix reported singular")
	}
	n := nm.MulVector(NewVector3(1, 1, 0).Normalize()).Normalize()

	expected := NewVector3(1, 2, 0).Normalize()
	if !n.ApproxEqual(expected, 1e-12) {
		t.Errorf("NormalMatrix failed: expected %v, got %v", expected, n)
	}
}
