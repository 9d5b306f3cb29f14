package job

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
name: bracket
input: parts/bracket.stl
transform:
  translate: [10, 0, 0]
  rotate: [0, 0, 90]
planes:
  - position: [50, 50, 50]
    normal: [1, 0, 0]
  - translate: [0, 0, 20]
    side: negative
output: out/bracket-cut.stl
format: ascii
preview: out/bracket.webp
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bracket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	j, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bracket", j.Name)
	assert.Equal(t, filepath.Join(dir, "parts", "bracket.stl"), j.InputPath())
	assert.Equal(t, filepath.Join(dir, "out", "bracket-cut.stl"), j.OutputPath())
	assert.Equal(t, filepath.Join(dir, "out", "bracket.webp"), j.PreviewPath())
	assert.Equal(t, stl.FormatASCII, j.OutputFormat())

	planes, err := j.CutPlanes()
	require.NoError(t, err)
	require.Len(t, planes, 2)
	assert.Equal(t, cutter.Plane{
		Position: geometry.Vector3{X: 50, Y: 50, Z: 50},
		Normal:   geometry.Vector3{X: 1},
		Side:     cutter.SidePositive,
	}, planes[0])

	// pose plane: identity rotation keeps the +Z normal
	assert.Equal(t, geometry.Vector3{Z: 20}, planes[1].Position)
	assert.InDelta(t, 1, planes[1].Normal.Z, 1e-12)
	assert.Equal(t, cutter.SideNegative, planes[1].Side)

	m, err := j.Matrix()
	require.NoError(t, err)
	require.NotNil(t, m)
	// +X rotated 90 degrees about Z then shifted by 10 along X
	p := m.MulPoint(geometry.Vector3{X: 1})
	assert.InDelta(t, 10, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)
}

func TestParseRecordJob(t *testing.T) {
	j, err := Parse([]byte(`
record: 6f1c
planes:
  - position: [0, 0, 0]
    normal: [0, 0, 1]
`))
	require.NoError(t, err)
	assert.Equal(t, "6f1c", j.Record)
	m, err := j.Matrix()
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, stl.FormatBinary, j.OutputFormat())
}

func TestParseMatrixTransform(t *testing.T) {
	j, err := Parse([]byte(`
input: a.stl
transform:
  matrix: [2, 0, 0, 1,  0, 2, 0, 0,  0, 0, 2, 0,  0, 0, 0, 1]
`))
	require.NoError(t, err)
	m, err := j.Matrix()
	require.NoError(t, err)
	assert.Equal(t, geometry.Vector3{X: 3, Y: 2, Z: 2}, m.MulPoint(geometry.Vector3{X: 1, Y: 1, Z: 1}))
}

func TestPoseRotation(t *testing.T) {
	p := Plane{Rotate: []float64{0, 90, 0}}
	plane, err := p.Plane()
	require.NoError(t, err)
	// +Z rotated 90 degrees about Y points along +X
	assert.InDelta(t, 1, plane.Normal.X, 1e-12)
	assert.InDelta(t, 0, plane.Normal.Z, 1e-12)
	assert.False(t, math.IsNaN(plane.Normal.Y))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no input", "planes: []\n", "exactly one of input or record"},
		{"input and record", "input: a.stl\nrecord: x\n", "exactly one of input or record"},
		{"unknown field", "input: a.stl\ncutters: []\n", "cutters"},
		{"short vector", "input: a.stl\nplanes:\n  - position: [1, 2]\n    normal: [0, 0, 1]\n", "position needs 3 values"},
		{"missing normal", "input: a.stl\nplanes:\n  - position: [1, 2, 3]\n", "normal is required"},
		{"mixed plane", "input: a.stl\nplanes:\n  - position: [1, 2, 3]\n    normal: [0, 0, 1]\n    translate: [0, 0, 0]\n", "either position/normal"},
		{"empty plane", "input: a.stl\nplanes:\n  - side: positive\n", "plane needs"},
		{"bad side", "input: a.stl\nplanes:\n  - position: [1, 2, 3]\n    normal: [0, 0, 1]\n    side: up\n", "unknown side"},
		{"bad matrix", "input: a.stl\ntransform:\n  matrix: [1, 2, 3]\n", "16 values"},
		{"matrix and gizmo", "input: a.stl\ntransform:\n  matrix: [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]\n  scale: [1, 1, 1]\n", "cannot be combined"},
		{"bad format", "input: a.stl\nformat: obj\n", "unknown STL format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDegenerateNormalIsAccepted(t *testing.T) {
	j, err := Parse([]byte("input: a.stl\nplanes:\n  - position: [0, 0, 0]\n    normal: [0, 0, 0]\n"))
	require.NoError(t, err)
	planes, err := j.CutPlanes()
	require.NoError(t, err)
	_, err = planes[0].Normalized()
	assert.Error(t, err)
}
