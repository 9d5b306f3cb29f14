package cut

import (
	"errors"
	"fmt"

	"github.com/philipparndt/stlcut/pkg/cutter"
)

// ErrNilMesh is returned when a call is given no mesh
var ErrNilMesh = errors.New("cut: mesh is nil")

// ResourceExceededError reports a cut that ran past its deadline or its
// polygon budget. Earlier successful cuts of the same call are kept.
type ResourceExceededError struct {
	Limit string // "deadline" or "polygons"
	Err   error
}

func (e *ResourceExceededError) Error() string {
	return fmt.Sprintf("resource exceeded (%s): %v", e.Limit, e.Err)
}

func (e *ResourceExceededError) Unwrap() error {
	return e.Err
}

// StepError ties a failure to the plane that caused it
type StepError struct {
	Index int
	Plane cutter.Plane
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("cut %d (%s): %v", e.Index, e.Plane, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
