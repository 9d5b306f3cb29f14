// Package cut sequences transform and half-space subtractions over a mesh.
//
// A pipeline call is best effort: cuts are applied in order, a degenerate
// plane is skipped, and the first failing cut stops the sequence while the
// cuts already applied are kept. The returned Result always carries the best
// mesh obtained and how many cuts were applied.
package cut

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/philipparndt/stlcut/pkg/csg"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/transform"
)

// DefaultTimeout bounds one pipeline call when no timeout is configured
const DefaultTimeout = 60 * time.Second

// State is the pipeline state
type State int

const (
	StateIdle State = iota
	StateTransformApplied
	StateCutting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTransformApplied:
		return "transform-applied"
	case StateCutting:
		return "cutting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepStatus is the outcome of one cut
type StepStatus int

const (
	StepApplied StepStatus = iota
	StepSkipped
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepApplied:
		return "applied"
	case StepSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Step records one cut
type Step struct {
	Index     int
	Plane     cutter.Plane
	Status    StepStatus
	Triangles int
	Volume    float64
	Duration  time.Duration
	Err       error
}

// Result is the outcome of a pipeline call
type Result struct {
	Mesh        *mesh.Mesh
	Requested   int
	Applied     int
	Skipped     []int
	FailedIndex int // -1 when no cut failed
	Steps       []Step
	State       State
}

// Complete reports whether every requested cut was applied
func (r *Result) Complete() bool {
	return r.State == StateSucceeded && r.Applied == r.Requested
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger for step records
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithBuilder sets the cutter sizing
func WithBuilder(b cutter.Builder) Option {
	return func(p *Pipeline) {
		p.builder = b
	}
}

// WithBooleanOptions sets the tolerance and polygon budget
func WithBooleanOptions(opts csg.Options) Option {
	return func(p *Pipeline) {
		p.boolean = opts
	}
}

// WithTimeout bounds the wall-clock time of one call; <= 0 disables it
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// Pipeline applies transforms and cuts. It holds configuration only and may
// be shared by concurrent calls on different meshes.
type Pipeline struct {
	logger  *slog.Logger
	builder cutter.Builder
	boolean csg.Options
	timeout time.Duration
}

// New creates a pipeline with adaptive cutters, default tolerance and
// DefaultTimeout.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:  slog.Default(),
		builder: cutter.NewBuilder(),
		boolean: csg.DefaultOptions(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ApplyTransform bakes the matrix into a copy of the mesh
func (p *Pipeline) ApplyTransform(m *mesh.Mesh, mat geometry.Matrix4) (*mesh.Mesh, error) {
	if m == nil {
		return nil, ErrNilMesh
	}
	out, err := transform.Apply(m, mat)
	if err != nil {
		p.logger.Warn("transform rejected", "mesh", m.Name, "error", err)
		return nil, err
	}
	p.logger.Debug("transform applied", "mesh", m.Name, "vertices", out.VertexCount())
	return out, nil
}

// Request is one complete pipeline invocation
type Request struct {
	Name      string
	Mesh      *mesh.Mesh
	Transform *geometry.Matrix4 // nil leaves the mesh where it is
	Planes    []cutter.Plane
}

// Run applies the request's transform and then its cuts. On a transform
// failure the result holds the untouched input mesh.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	working := req.Mesh
	if req.Transform != nil {
		transformed, err := p.ApplyTransform(req.Mesh, *req.Transform)
		if err != nil {
			return &Result{
				Mesh:        req.Mesh,
				Requested:   len(req.Planes),
				FailedIndex: -1,
				State:       StateFailed,
			}, err
		}
		working = transformed
	}
	return p.CutWithPlanes(ctx, working, req.Planes)
}

// CutWithPlanes subtracts one cutter per plane, in order, from a copy of the
// mesh. Each cutter is sized against the mesh as left by the previous cut.
// On error the result still holds the mesh after the last successful cut.
// With RequireClosed set, a cut that would open a closed mesh fails with a
// csg.BooleanOperationError and is not applied.
func (p *Pipeline) CutWithPlanes(ctx context.Context, m *mesh.Mesh, planes []cutter.Plane) (*Result, error) {
	if m == nil {
		return &Result{Requested: len(planes), FailedIndex: -1, State: StateFailed}, ErrNilMesh
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	working := m.Clone()
	result := &Result{
		Mesh:        working,
		Requested:   len(planes),
		FailedIndex: -1,
		State:       StateTransformApplied,
	}

	for i, plane := range planes {
		result.State = StateCutting
		start := time.Now()

		if err := ctx.Err(); err != nil {
			return p.fail(result, i, plane, start, &ResourceExceededError{Limit: "deadline", Err: err})
		}

		box, err := p.builder.Build(plane, working.Bounds)
		if err != nil {
			var degenerate *cutter.DegenerateCutPlaneError
			if !errors.As(err, &degenerate) {
				return p.fail(result, i, plane, start, err)
			}
			p.logger.Warn("cut plane skipped", "index", i, "plane", plane.String(), "error", err)
			result.Skipped = append(result.Skipped, i)
			result.Steps = append(result.Steps, Step{
				Index: i, Plane: plane, Status: StepSkipped,
				Triangles: working.TriangleCount(), Volume: working.Volume(),
				Duration: time.Since(start), Err: err,
			})
			continue
		}

		out, err := csg.Subtract(ctx, working, box, p.boolean)
		if err != nil {
			return p.fail(result, i, plane, start, classify(err))
		}

		working = out
		result.Mesh = working
		result.Applied++
		step := Step{
			Index: i, Plane: plane, Status: StepApplied,
			Triangles: working.TriangleCount(), Volume: working.Volume(),
			Duration: time.Since(start),
		}
		result.Steps = append(result.Steps, step)
		p.logger.Debug("cut applied",
			"index", i,
			"plane", plane.String(),
			"triangles", step.Triangles,
			"duration", step.Duration)
		if p.boolean.RequireClosed {
			continue
		}
		// closure is not enforced by the engine: report it only
		if report := working.Topology(); !report.Closed() {
			p.logger.Warn("cut result is not closed",
				"index", i,
				"boundary_edges", report.BoundaryEdges,
				"non_manifold_edges", report.NonManifoldEdges)
		}
	}

	working.Recompute()
	result.State = StateSucceeded
	return result, nil
}

func (p *Pipeline) fail(result *Result, index int, plane cutter.Plane, start time.Time, err error) (*Result, error) {
	result.State = StateFailed
	result.FailedIndex = index
	result.Steps = append(result.Steps, Step{
		Index: index, Plane: plane, Status: StepFailed,
		Triangles: result.Mesh.TriangleCount(),
		Duration:  time.Since(start), Err: err,
	})
	p.logger.Warn("cut failed", "index", index, "plane", plane.String(), "error", err)
	return result, &StepError{Index: index, Plane: plane, Err: err}
}

// classify turns budget and deadline failures of the boolean engine into
// ResourceExceededError and passes everything else through.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ResourceExceededError{Limit: "deadline", Err: err}
	case errors.Is(err, csg.ErrLimitExceeded):
		return &ResourceExceededError{Limit: "polygons", Err: err}
	default:
		return err
	}
}
