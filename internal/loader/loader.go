// Package loader turns input paths (.stl, .3mf or .scad) and stored STL bytes
// into welded meshes, and meshes back into STL or 3MF.
package loader

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/openscad"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/philipparndt/stlcut/pkg/threemf"
)

// Loader resolves input files. WeldTolerance is relative to the model's
// bounding box diagonal.
type Loader struct {
	WeldTolerance float64
	// Compiler overrides the openscad compiler; nil creates one next to
	// each .scad file
	Compiler *openscad.Compiler
}

// New returns a loader with the given relative weld tolerance
func New(weldTolerance float64) *Loader {
	return &Loader{WeldTolerance: weldTolerance}
}

// IsOpenSCAD reports whether the path is an OpenSCAD source
func IsOpenSCAD(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".scad")
}

func (l *Loader) compiler(path string) *openscad.Compiler {
	if l.Compiler != nil {
		return l.Compiler
	}
	return openscad.NewCompiler(filepath.Dir(path))
}

// Is3MF reports whether the path is a 3MF package
func Is3MF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".3mf")
}

// LoadModel reads the triangle soup of an .stl or .3mf file or compiles a
// .scad file
func (l *Loader) LoadModel(ctx context.Context, path string) (*stl.Model, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".scad":
		model, err := l.compiler(path).Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to render OpenSCAD file: %w", err)
		}
		return model, nil
	case ".3mf":
		model, err := threemf.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse 3MF file: %w", err)
		}
		if model.Name == "" {
			model.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return model, nil
	case ".stl":
		model, err := stl.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse STL file: %w", err)
		}
		if model.Name == "" {
			model.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s (expected .stl, .3mf or .scad)", ext)
	}
}

// LoadMesh loads and welds the input
func (l *Loader) LoadMesh(ctx context.Context, path string) (*mesh.Mesh, error) {
	model, err := l.LoadModel(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.Weld(model), nil
}

// Weld converts a triangle soup into an indexed mesh. Facets wound against
// their stored normal are flipped first.
func (l *Loader) Weld(model *stl.Model) *mesh.Mesh {
	model.OrientToNormals()
	bbox := model.BoundingBox()
	scale := 1.0
	if !bbox.IsEmpty() {
		scale = math.Max(1, bbox.Diagonal())
	}
	return mesh.FromModel(model, l.WeldTolerance*scale)
}

// Decode parses STL bytes into a welded mesh
func (l *Loader) Decode(data []byte, name string) (*mesh.Mesh, error) {
	model, err := stl.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode STL: %w", err)
	}
	if name != "" {
		model.Name = name
	}
	return l.Weld(model), nil
}

// Encode serialises a mesh as STL
func Encode(m *mesh.Mesh, format stl.Format) ([]byte, error) {
	return stl.Encode(m.ToModel(), format)
}

// Save writes a mesh to path. A .3mf extension writes a 3MF package and
// ignores format.
func Save(path string, m *mesh.Mesh, format stl.Format) error {
	if Is3MF(path) {
		return threemf.Save(path, m)
	}
	return stl.Save(path, m.ToModel(), format)
}

// WatchList returns the files whose change should reload the input: the
// file itself, plus its use/include dependencies for OpenSCAD sources.
func (l *Loader) WatchList(path string) ([]string, error) {
	if !IsOpenSCAD(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	}
	deps, err := l.compiler(path).Dependencies(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	return deps, nil
}
