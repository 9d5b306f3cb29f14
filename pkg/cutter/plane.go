// Package cutter turns cut planes into closed box solids that stand in for
// the half-space to remove.
package cutter

import (
	"fmt"
	"math"
	"strings"

	"github.com/philipparndt/stlcut/pkg/geometry"
)

// MinNormalLength is the length under which a plane normal is degenerate
const MinNormalLength = 1e-6

// Side selects which half-space a cut removes
type Side int

const (
	// SidePositive removes the material on the side the normal points to
	SidePositive Side = iota
	// SideNegative removes the material behind the plane
	SideNegative
)

func (s Side) String() string {
	switch s {
	case SidePositive:
		return "positive"
	case SideNegative:
		return "negative"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Sign returns +1 for SidePositive and -1 for SideNegative
func (s Side) Sign() float64 {
	if s == SideNegative {
		return -1
	}
	return 1
}

// ParseSide parses "positive"/"negative" (also "+"/"-"); empty means positive
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "positive", "pos", "+":
		return SidePositive, nil
	case "negative", "neg", "-":
		return SideNegative, nil
	default:
		return SidePositive, fmt.Errorf("unknown side %q (expected positive or negative)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// Plane describes a cut: a point on the plane, its normal and the side
// whose material is removed. Planes are plain values evaluated at cut time.
type Plane struct {
	Position geometry.Vector3
	Normal   geometry.Vector3
	Side     Side
}

// DegenerateCutPlaneError is returned for a plane whose normal is
// effectively zero or not finite.
type DegenerateCutPlaneError struct {
	Plane Plane
}

func (e *DegenerateCutPlaneError) Error() string {
	return fmt.Sprintf("degenerate cut plane: normal %v has length %g", e.Plane.Normal, e.Plane.Normal.Length())
}

// Normalized returns the plane with a unit normal
func (p Plane) Normalized() (Plane, error) {
	length := p.Normal.Length()
	if !p.Position.IsFinite() || !p.Normal.IsFinite() || math.IsNaN(length) || length < MinNormalLength {
		return p, &DegenerateCutPlaneError{Plane: p}
	}
	p.Normal = p.Normal.Mul(1 / length)
	return p, nil
}

// SignedDistance returns the distance of a point along the normal.
// The plane must be normalized.
func (p Plane) SignedDistance(point geometry.Vector3) float64 {
	return point.Sub(p.Position).Dot(p.Normal)
}

// Removes reports whether the point lies strictly inside the removed
// half-space. The plane must be normalized.
func (p Plane) Removes(point geometry.Vector3) bool {
	return p.SignedDistance(point)*p.Side.Sign() > 0
}

// String formats the plane as "px,py,pz:nx,ny,nz:side", the form ParsePlane
// accepts.
func (p Plane) String() string {
	return fmt.Sprintf("%s:%s:%s", p.Position, p.Normal, p.Side)
}

// ParsePlane parses "px,py,pz:nx,ny,nz[:positive|negative]"
func ParsePlane(s string) (Plane, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Plane{}, fmt.Errorf("invalid plane %q: expected px,py,pz:nx,ny,nz[:side]", s)
	}
	position, err := geometry.ParseVector3(parts[0])
	if err != nil {
		return Plane{}, fmt.Errorf("invalid plane position: %w", err)
	}
	normal, err := geometry.ParseVector3(parts[1])
	if err != nil {
		return Plane{}, fmt.Errorf("invalid plane normal: %w", err)
	}
	side := SidePositive
	if len(parts) == 3 {
		if side, err = ParseSide(parts[2]); err != nil {
			return Plane{}, err
		}
	}
	return Plane{Position: position, Normal: normal, Side: side}, nil
}

// PlaneFromPose derives a plane from the world matrix of a plane object whose
// local normal is +Z. The normal goes through the inverse-transpose of the
// linear part; a singular pose yields a zero normal, which Normalized
// rejects.
func PlaneFromPose(pose geometry.Matrix4, side Side) Plane {
	plane := Plane{
		Position: pose.MulPoint(geometry.Vector3{}),
		Side:     side,
	}
	if normalMatrix, ok := pose.Linear().NormalMatrix(); ok {
		plane.Normal = normalMatrix.MulVector(geometry.Vector3{Z: 1}).Normalize()
	}
	return plane
}
