package main

import (
	"context"
	"fmt"

	"github.com/philipparndt/stlcut/pkg/analysis"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/spf13/cobra"
)

var (
	measureFrom      string
	measureTo        string
	measureSection   string
	measureTolerance float64
)

var measureCmd = &cobra.Command{
	Use:   "measure [file]",
	Short: "Measure distances or the radius of a section",
	Long: `Measure the straight-line distance between two 3D points given as x,y,z
(--from, --to); the nearest mesh vertices of both points are reported as well.

With --section "px,py,pz:nx,ny,nz" the vertices lying on that plane (for
example the rim of a cut through a round part) are fitted with a circle.`,
	Args: cobra.ExactArgs(1),
	Run:  runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	measureCmd.Flags().StringVar(&measureFrom, "from", "", "First point as x,y,z")
	measureCmd.Flags().StringVar(&measureTo, "to", "", "Second point as x,y,z")
	measureCmd.Flags().StringVar(&measureSection, "section", "", "Plane whose section is fitted with a circle")
	measureCmd.Flags().Float64Var(&measureTolerance, "tolerance", 1e-4, "Distance from the section plane that still counts as on it")
	measureCmd.MarkFlagsRequiredTogether("from", "to")
	measureCmd.MarkFlagsOneRequired("from", "section")
}

func runMeasure(cmd *cobra.Command, args []string) {
	m := loadMesh(context.Background(), args[0])
	if measureSection != "" {
		measureCircle(m)
		return
	}

	p1, err := geometry.ParseVector3(measureFrom)
	if err != nil {
		exitf("--from: %v", err)
	}
	p2, err := geometry.ParseVector3(measureTo)
	if err != nil {
		exitf("--to: %v", err)
	}

	fmt.Println("Point-to-Point Measurement")
	fmt.Println("==========================")

	nearest1, dist1 := analysis.FindNearestVertex(m, p1)
	nearest2, dist2 := analysis.FindNearestVertex(m, p2)

	fmt.Printf("\nPoint 1: %s\n", analysis.FormatVector(p1))
	if dist1 > 0 {
		fmt.Printf("  Nearest vertex: %s (distance: %.6f)\n", analysis.FormatVector(nearest1), dist1)
	}

	fmt.Printf("\nPoint 2: %s\n", analysis.FormatVector(p2))
	if dist2 > 0 {
		fmt.Printf("  Nearest vertex: %s (distance: %.6f)\n", analysis.FormatVector(nearest2), dist2)
	}

	fmt.Printf("\nDirect distance: %s\n", analysis.FormatMeasurement(analysis.DistanceBetweenPoints(p1, p2), "units"))
	if dist1 > 0 || dist2 > 0 {
		fmt.Printf("Distance between nearest vertices: %s\n",
			analysis.FormatMeasurement(analysis.DistanceBetweenPoints(nearest1, nearest2), "units"))
	}
}

func measureCircle(m *mesh.Mesh) {
	plane, err := cutter.ParsePlane(measureSection)
	if err != nil {
		exitf("--section: %v", err)
	}
	if plane, err = plane.Normalized(); err != nil {
		exitf("--section: %v", err)
	}

	fit, n, err := analysis.FitSection(m, plane.Position, plane.Normal, measureTolerance)
	if err != nil {
		exitf("%v", err)
	}

	fmt.Println("Section Circle Fit")
	fmt.Println("==================")
	fmt.Printf("Plane: %s\n", plane)
	fmt.Printf("Points on section: %d\n\n", n)
	fmt.Printf("  Center: %s\n", analysis.FormatVector(fit.Center))
	fmt.Printf("  Radius: %s\n", analysis.FormatMeasurement(fit.Radius, "units"))
	fmt.Printf("  Diameter: %s\n", analysis.FormatMeasurement(2*fit.Radius, "units"))
	fmt.Printf("  Std deviation: %.6f\n", fit.StdDev)
}
