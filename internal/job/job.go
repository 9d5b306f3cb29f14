// Package job reads YAML cut-job documents: where the mesh comes from, how
// to place it, which planes to cut with and where to write the results.
package job

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/philipparndt/stlcut/pkg/transform"
	"gopkg.in/yaml.v3"
)

// Job is one cut-job document
type Job struct {
	Name      string     `yaml:"name"`
	Input     string     `yaml:"input,omitempty"`
	Record    string     `yaml:"record,omitempty"`
	Transform *Transform `yaml:"transform,omitempty"`
	Planes    []Plane    `yaml:"planes"`
	Output    string     `yaml:"output,omitempty"`
	Format    string     `yaml:"format,omitempty"`
	Preview   string     `yaml:"preview,omitempty"`

	// dir is the directory of the job file; relative paths resolve against it
	dir string
}

// Transform places the mesh either with gizmo components or a full
// row-major 4x4 matrix
type Transform struct {
	Translate []float64 `yaml:"translate,omitempty"`
	Rotate    []float64 `yaml:"rotate,omitempty"`
	Scale     []float64 `yaml:"scale,omitempty"`
	Values    []float64 `yaml:"matrix,omitempty"`
}

// Plane is either explicit (position, normal) or a pose of a plane object
// whose local normal is +Z (translate, rotate)
type Plane struct {
	Position  []float64   `yaml:"position,omitempty"`
	Normal    []float64   `yaml:"normal,omitempty"`
	Translate []float64   `yaml:"translate,omitempty"`
	Rotate    []float64   `yaml:"rotate,omitempty"`
	Side      cutter.Side `yaml:"side,omitempty"`
}

// Load reads and validates a job file
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("job: read %s: %w", path, err)
	}
	j, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job: %s: %w", path, err)
	}
	j.dir = filepath.Dir(path)
	return j, nil
}

// Parse decodes and validates a job document
func Parse(data []byte) (*Job, error) {
	var j Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// Validate checks the document is complete and unambiguous
func (j *Job) Validate() error {
	var errs []error
	if (j.Input == "") == (j.Record == "") {
		errs = append(errs, errors.New("exactly one of input or record is required"))
	}
	if j.Transform != nil {
		if _, err := j.Transform.Matrix(); err != nil {
			errs = append(errs, fmt.Errorf("transform: %w", err))
		}
	}
	for i, p := range j.Planes {
		if _, err := p.Plane(); err != nil {
			errs = append(errs, fmt.Errorf("planes[%d]: %w", i, err))
		}
	}
	if j.Format != "" {
		if _, err := stl.ParseFormat(j.Format); err != nil {
			errs = append(errs, fmt.Errorf("format: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Path resolves a path from the document against the job file's directory
func (j *Job) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || j.dir == "" {
		return p
	}
	return filepath.Join(j.dir, p)
}

// InputPath returns the resolved input path
func (j *Job) InputPath() string { return j.Path(j.Input) }

// OutputPath returns the resolved output path
func (j *Job) OutputPath() string { return j.Path(j.Output) }

// PreviewPath returns the resolved preview path
func (j *Job) PreviewPath() string { return j.Path(j.Preview) }

// OutputFormat returns the STL encoding of the output, binary by default
func (j *Job) OutputFormat() stl.Format {
	f, _ := stl.ParseFormat(j.Format)
	return f
}

// CutPlanes returns the planes in document order
func (j *Job) CutPlanes() ([]cutter.Plane, error) {
	planes := make([]cutter.Plane, 0, len(j.Planes))
	for i, p := range j.Planes {
		plane, err := p.Plane()
		if err != nil {
			return nil, fmt.Errorf("planes[%d]: %w", i, err)
		}
		planes = append(planes, plane)
	}
	return planes, nil
}

// Matrix returns the transform matrix, nil when the job has no transform
func (j *Job) Matrix() (*geometry.Matrix4, error) {
	if j.Transform == nil {
		return nil, nil
	}
	m, err := j.Transform.Matrix()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Matrix composes the transform. A matrix and gizmo components are mutually
// exclusive. Missing scale defaults to 1.
func (t Transform) Matrix() (geometry.Matrix4, error) {
	if len(t.Values) > 0 {
		if len(t.Translate)+len(t.Rotate)+len(t.Scale) > 0 {
			return geometry.Matrix4{}, errors.New("matrix cannot be combined with translate, rotate or scale")
		}
		if len(t.Values) != 16 {
			return geometry.Matrix4{}, fmt.Errorf("matrix needs 16 values, got %d", len(t.Values))
		}
		var m geometry.Matrix4
		copy(m[:], t.Values)
		return m, nil
	}

	g := transform.NewGizmo()
	var err error
	if g.Translate, err = vector(t.Translate, g.Translate, "translate"); err != nil {
		return geometry.Matrix4{}, err
	}
	if g.Rotate, err = vector(t.Rotate, g.Rotate, "rotate"); err != nil {
		return geometry.Matrix4{}, err
	}
	if g.Scale, err = vector(t.Scale, g.Scale, "scale"); err != nil {
		return geometry.Matrix4{}, err
	}
	return g.Matrix(), nil
}

// Plane converts the document plane into a cut plane. The normal is not
// checked here; degenerate planes are skipped by the pipeline.
func (p Plane) Plane() (cutter.Plane, error) {
	explicit := len(p.Position) > 0 || len(p.Normal) > 0
	pose := len(p.Translate) > 0 || len(p.Rotate) > 0
	switch {
	case explicit && pose:
		return cutter.Plane{}, errors.New("use either position/normal or translate/rotate")
	case explicit:
		position, err := vector(p.Position, geometry.Vector3{}, "position")
		if err != nil {
			return cutter.Plane{}, err
		}
		if len(p.Normal) == 0 {
			return cutter.Plane{}, errors.New("normal is required")
		}
		normal, err := vector(p.Normal, geometry.Vector3{}, "normal")
		if err != nil {
			return cutter.Plane{}, err
		}
		return cutter.Plane{Position: position, Normal: normal, Side: p.Side}, nil
	case pose:
		g := transform.NewGizmo()
		var err error
		if g.Translate, err = vector(p.Translate, g.Translate, "translate"); err != nil {
			return cutter.Plane{}, err
		}
		if g.Rotate, err = vector(p.Rotate, g.Rotate, "rotate"); err != nil {
			return cutter.Plane{}, err
		}
		return cutter.PlaneFromPose(g.Matrix(), p.Side), nil
	default:
		return cutter.Plane{}, errors.New("plane needs position/normal or translate/rotate")
	}
}

func vector(values []float64, fallback geometry.Vector3, field string) (geometry.Vector3, error) {
	switch len(values) {
	case 0:
		return fallback, nil
	case 3:
		return geometry.NewVector3(values[0], values[1], values[2]), nil
	default:
		return geometry.Vector3{}, fmt.Errorf("%s needs 3 values, got %d", field, len(values))
	}
}
