// Package openscad compiles .scad sources to STL by shelling out to the
// openscad binary, and tracks the use/include files a source depends on.
package openscad

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/philipparndt/stlcut/pkg/stl"
)

// ErrNotInstalled is returned when the openscad binary cannot be found
var ErrNotInstalled = errors.New("openscad not found in PATH, install it from https://openscad.org/")

// Compiler runs openscad relative to a working directory
type Compiler struct {
	Binary  string
	WorkDir string
	Logger  *slog.Logger
}

// NewCompiler creates a compiler that uses the openscad binary from PATH
func NewCompiler(workDir string) *Compiler {
	return &Compiler{
		Binary:  "openscad",
		WorkDir: workDir,
		Logger:  slog.Default(),
	}
}

func (c *Compiler) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

// Available reports whether the binary can be executed
func (c *Compiler) Available() bool {
	_, err := exec.LookPath(c.Binary)
	return err == nil
}

// CompileToSTL renders scadFile into outputFile
func (c *Compiler) CompileToSTL(ctx context.Context, scadFile, outputFile string) error {
	if !c.Available() {
		return ErrNotInstalled
	}

	source := c.abs(scadFile)
	cmd := exec.CommandContext(ctx, c.Binary, "-o", outputFile, source)
	cmd.Dir = c.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.Logger.Debug("compiling openscad source", "source", source, "output", outputFile)
	if err := cmd.Run(); err != nil {
		var msg strings.Builder
		fmt.Fprintf(&msg, "failed to compile %s: %v", scadFile, err)
		if stderr.Len() > 0 {
			msg.WriteString("\nstderr: ")
			msg.WriteString(strings.TrimSpace(stderr.String()))
		}
		if stdout.Len() > 0 {
			msg.WriteString("\nstdout: ")
			msg.WriteString(strings.TrimSpace(stdout.String()))
		}
		return errors.New(msg.String())
	}
	return nil
}

// Load compiles scadFile into a temporary STL and parses it
func (c *Compiler) Load(ctx context.Context, scadFile string) (*stl.Model, error) {
	tmp, err := os.CreateTemp("", "stlcut-*.stl")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.CompileToSTL(ctx, scadFile, tmpPath); err != nil {
		return nil, err
	}
	model, err := stl.Parse(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compiled %s: %w", scadFile, err)
	}
	model.Name = strings.TrimSuffix(filepath.Base(scadFile), filepath.Ext(scadFile))
	return model, nil
}
