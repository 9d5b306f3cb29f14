package openscad

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.scad"), `use <lib/shapes.scad>
// include <ignored.scad>
include <./common.scad>
cube(10);
`)
	writeFile(t, filepath.Join(dir, "lib", "shapes.scad"), "include <../common.scad>\n")
	writeFile(t, filepath.Join(dir, "common.scad"), "use <main.scad>\n")

	c := NewCompiler(dir)
	deps, err := c.Dependencies("main.scad")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "main.scad"),
		filepath.Join(dir, "lib", "shapes.scad"),
		filepath.Join(dir, "common.scad"),
	}, deps)
}

func TestDependenciesMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.scad"), "use <missing.scad>\n")

	_, err := NewCompiler(dir).Dependencies("main.scad")
	assert.Error(t, err)
}

func TestCompileWithoutBinary(t *testing.T) {
	c := NewCompiler(t.TempDir())
	c.Binary = "openscad-does-not-exist"
	assert.False(t, c.Available())

	err := c.CompileToSTL(context.Background(), "main.scad", "out.stl")
	assert.True(t, errors.Is(err, ErrNotInstalled))

	_, err = c.Load(context.Background(), "main.scad")
	assert.True(t, errors.Is(err, ErrNotInstalled))
}
