package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/internal/store"
	"github.com/philipparndt/stlcut/internal/workflow"
	"github.com/philipparndt/stlcut/pkg/analysis"
	"github.com/philipparndt/stlcut/pkg/cut"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/viewer"
)

// exitf prints an error and terminates the command
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLoader() *loader.Loader {
	return loader.New(cfg.WeldTolerance)
}

func newPipeline() *cut.Pipeline {
	opts := append(cfg.PipelineOptions(), cut.WithLogger(logger))
	return cut.New(opts...)
}

func newService() *workflow.Service {
	st, err := store.NewFSStore(cfg.StoreDir)
	if err != nil {
		exitf("%v", err)
	}
	return workflow.NewService(st, newPipeline(), workflow.WithLogger(logger), workflow.WithLoader(newLoader()))
}

// loadMesh loads an .stl, .3mf or .scad input or exits
func loadMesh(ctx context.Context, path string) *mesh.Mesh {
	m, err := newLoader().LoadMesh(ctx, path)
	if err != nil {
		exitf("%v", err)
	}
	if m.IsEmpty() {
		exitf("%s contains no triangles", path)
	}
	return m
}

// parsePlanes parses repeated --plane values
func parsePlanes(values []string) []cutter.Plane {
	planes := make([]cutter.Plane, 0, len(values))
	for _, v := range values {
		p, err := cutter.ParsePlane(v)
		if err != nil {
			exitf("%v", err)
		}
		planes = append(planes, p)
	}
	return planes
}

func writePreview(path string, m *mesh.Mesh, planes []cutter.Plane) error {
	opts := cfg.PreviewOptions()
	opts.Planes = planes
	opts.Caption = meshCaption(m)
	img := viewer.Render(m, opts)
	return viewer.Save(path, img, viewer.FormatFromPath(path, cfg.PreviewFormat()))
}

// meshCaption names the mesh and its bounding box size
func meshCaption(m *mesh.Mesh) string {
	size := m.Bounds.Size()
	name := m.Name
	if name == "" {
		name = "mesh"
	}
	return fmt.Sprintf("%s  %.2f x %.2f x %.2f", name, size.X, size.Y, size.Z)
}

func printMeshSummary(m *mesh.Mesh) {
	result := analysis.AnalyzeMesh(m)
	fmt.Printf("  Triangles: %d\n", result.TriangleCount)
	fmt.Printf("  Volume: %.6f cubic units\n", result.Volume)
	fmt.Printf("  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Printf("  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Printf("  Watertight: %s\n", yesNo(result.Watertight))
}

func printCutResult(result *cut.Result) {
	fmt.Println("Cut Result")
	fmt.Println("==========")
	fmt.Printf("State: %s\n", result.State)
	fmt.Printf("Planes: %d requested, %d applied, %d skipped\n", result.Requested, result.Applied, len(result.Skipped))
	if result.FailedIndex >= 0 {
		fmt.Printf("Failed at plane #%d\n", result.FailedIndex)
	}
	fmt.Println()

	if len(result.Steps) > 0 {
		fmt.Printf("%-4s %-8s %-40s %-10s %-18s %s\n", "#", "Status", "Plane", "Triangles", "Volume", "Time")
		fmt.Println(strings.Repeat("-", 96))
		for _, step := range result.Steps {
			fmt.Printf("%-4d %-8s %-40s %-10d %-18.6f %s\n",
				step.Index, step.Status, step.Plane.String(), step.Triangles, step.Volume, step.Duration.Round(time.Microsecond))
			if step.Err != nil {
				fmt.Printf("     %v\n", step.Err)
			}
		}
		fmt.Println()
	}

	if result.Mesh != nil {
		fmt.Println("Mesh:")
		printMeshSummary(result.Mesh)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
