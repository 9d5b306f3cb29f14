package geometry

import "math"

// singularTolerance is the relative determinant threshold under which a
// matrix is treated as non-invertible.
const singularTolerance = 1e-12

// Matrix3 is a 3×3 matrix stored row-major.
type Matrix3 [9]float64

// Identity3 returns the 3×3 identity matrix
func Identity3() Matrix3 {
	return Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// MulVector returns m × v
func (m Matrix3) MulVector(v Vector3) Vector3 {
	return Vector3{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Mul returns m × o
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var r Matrix3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row*3+col] = m[row*3]*o[col] + m[row*3+1]*o[3+col] + m[row*3+2]*o[6+col]
		}
	}
	return r
}

// Transpose returns the transposed matrix
func (m Matrix3) Transpose() Matrix3 {
	return Matrix3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Determinant returns the determinant
func (m Matrix3) Determinant() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the inverse and whether the matrix was invertible
func (m Matrix3) Inverse() (Matrix3, bool) {
	det := m.Determinant()
	if isSingular(det, maxAbs(m[:]), 3) {
		return Matrix3{}, false
	}
	inv := 1.0 / det
	return Matrix3{
		(m[4]*m[8] - m[5]*m[7]) * inv,
		(m[2]*m[7] - m[1]*m[8]) * inv,
		(m[1]*m[5] - m[2]*m[4]) * inv,
		(m[5]*m[6] - m[3]*m[8]) * inv,
		(m[0]*m[8] - m[2]*m[6]) * inv,
		(m[2]*m[3] - m[0]*m[5]) * inv,
		(m[3]*m[7] - m[4]*m[6]) * inv,
		(m[1]*m[6] - m[0]*m[7]) * inv,
		(m[0]*m[4] - m[1]*m[3]) * inv,
	}, true
}

// NormalMatrix returns the inverse-transpose used to transform surface
// normals, and whether it exists.
func (m Matrix3) NormalMatrix() (Matrix3, bool) {
	inv, ok := m.Inverse()
	if !ok {
		return Matrix3{}, false
	}
	return inv.Transpose(), true
}

// Column returns the i-th column as a vector
func (m Matrix3) Column(i int) Vector3 {
	return Vector3{X: m[i], Y: m[3+i], Z: m[6+i]}
}

// Matrix4 is a 4×4 affine matrix stored row-major. Points are column
// vectors, so the translation lives in elements 3, 7 and 11.
type Matrix4 [16]float64

// Identity4 returns the 4×4 identity matrix
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix
func Translate(v Vector3) Matrix4 {
	m := Identity4()
	m[3], m[7], m[11] = v.X, v.Y, v.Z
	return m
}

// Scale returns a (possibly non-uniform) scale matrix
func Scale(v Vector3) Matrix4 {
	m := Identity4()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// RotateX returns a rotation about the X axis by angle radians
func RotateX(angle float64) Matrix4 {
	s, c := math.Sincos(angle)
	return Matrix4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation about the Y axis by angle radians
func RotateY(angle float64) Matrix4 {
	s, c := math.Sincos(angle)
	return Matrix4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation about the Z axis by angle radians
func RotateZ(angle float64) Matrix4 {
	s, c := math.Sincos(angle)
	return Matrix4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromLinear builds an affine matrix from a 3×3 linear part and a translation
func FromLinear(l Matrix3, t Vector3) Matrix4 {
	return Matrix4{
		l[0], l[1], l[2], t.X,
		l[3], l[4], l[5], t.Y,
		l[6], l[7], l[8], t.Z,
		0, 0, 0, 1,
	}
}

// Mul returns m × o
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var r Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r[row*4+col] = m[row*4]*o[col] + m[row*4+1]*o[4+col] +
				m[row*4+2]*o[8+col] + m[row*4+3]*o[12+col]
		}
	}
	return r
}

// MulPoint transforms a point (w=1)
func (m Matrix4) MulPoint(v Vector3) Vector3 {
	p := Vector3{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3],
		Y: m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7],
		Z: m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11],
	}
	w := m[12]*v.X + m[13]*v.Y + m[14]*v.Z + m[15]
	if w != 1 && w != 0 {
		p = p.Mul(1 / w)
	}
	return p
}

// MulDirection transforms a direction (w=0), ignoring translation
func (m Matrix4) MulDirection(v Vector3) Vector3 {
	return m.Linear().MulVector(v)
}

// Linear returns the upper-left 3×3 block
func (m Matrix4) Linear() Matrix3 {
	return Matrix3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// TranslationPart returns the translation column
func (m Matrix4) TranslationPart() Vector3 {
	return Vector3{X: m[3], Y: m[7], Z: m[11]}
}

// IsAffine reports whether the bottom row is (0, 0, 0, 1)
func (m Matrix4) IsAffine() bool {
	return m[12] == 0 && m[13] == 0 && m[14] == 0 && m[15] == 1
}

// IsFinite reports whether no element is NaN or infinite
func (m Matrix4) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsIdentity checks if the matrix is approximately identity
func (m Matrix4) IsIdentity() bool {
	id := Identity4()
	for i := 0; i < 16; i++ {
		if math.Abs(m[i]-id[i]) > 1e-12 {
			return false
		}
	}
	return true
}

// Transpose returns the transposed matrix
func (m Matrix4) Transpose() Matrix4 {
	var r Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r[col*4+row] = m[row*4+col]
		}
	}
	return r
}

// Determinant returns the determinant of the full 4×4 matrix
func (m Matrix4) Determinant() float64 {
	inv := m.adjugate()
	return m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
}

// Inverse returns the inverse and whether the matrix was invertible
func (m Matrix4) Inverse() (Matrix4, bool) {
	adj := m.adjugate()
	det := m[0]*adj[0] + m[1]*adj[4] + m[2]*adj[8] + m[3]*adj[12]
	if isSingular(det, maxAbs(m[:]), 4) {
		return Matrix4{}, false
	}
	inv := 1.0 / det
	for i := range adj {
		adj[i] *= inv
	}
	return adj, true
}

// adjugate returns the transposed cofactor matrix.
func (m Matrix4) adjugate() Matrix4 {
	var inv Matrix4
	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]
	return inv
}

func maxAbs(values []float64) float64 {
	largest := 0.0
	for _, v := range values {
		largest = math.Max(largest, math.Abs(v))
	}
	return largest
}

// isSingular compares det against the scale an n×n matrix with entries of
// magnitude scale would have.
func isSingular(det, scale float64, n int) bool {
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return true
	}
	return math.Abs(det) <= singularTolerance*math.Pow(scale, float64(n))
}
