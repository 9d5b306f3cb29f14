package main

import (
	"context"
	"fmt"

	"github.com/philipparndt/stlcut/pkg/analysis"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/section"
	"github.com/spf13/cobra"
)

var (
	sectionPlane  string
	sectionOutput string
	sectionScale  float64
)

var sectionCmd = &cobra.Command{
	Use:   "section [file]",
	Short: "Report and export the cross-section of a mesh with a plane",
	Long: `Intersect the mesh with a plane given as "px,py,pz:nx,ny,nz" and report the
resulting outline. With --output the outline is written as SVG or DXF (chosen by
extension) in plane coordinates.`,
	Args: cobra.ExactArgs(1),
	Run:  runSection,
}

func init() {
	rootCmd.AddCommand(sectionCmd)

	sectionCmd.Flags().StringVarP(&sectionPlane, "plane", "p", "", "Section plane")
	sectionCmd.Flags().StringVarP(&sectionOutput, "output", "o", "", "Outline file (.svg or .dxf)")
	sectionCmd.Flags().Float64Var(&sectionScale, "scale", 10, "SVG pixels per unit")
	sectionCmd.MarkFlagRequired("plane")
}

func runSection(cmd *cobra.Command, args []string) {
	plane, err := cutter.ParsePlane(sectionPlane)
	if err != nil {
		exitf("--plane: %v", err)
	}
	m := loadMesh(context.Background(), args[0])

	outline, err := section.Slice(m, plane)
	if err != nil {
		exitf("%v", err)
	}

	fmt.Println("Cross-Section")
	fmt.Println("=============")
	fmt.Printf("Plane: %s\n", outline.Plane)
	if outline.IsEmpty() {
		fmt.Println("\nThe plane does not intersect the mesh.")
		return
	}

	lo, hi := outline.Bounds()
	fmt.Printf("\nPaths: %d (%d closed)\n", len(outline.Paths), outline.ClosedCount())
	fmt.Printf("  Area: %s\n", analysis.FormatMeasurement(outline.Area(), "square units"))
	fmt.Printf("  Perimeter: %s\n", analysis.FormatMeasurement(outline.Length(), "units"))
	fmt.Printf("  Extent: %.6f x %.6f\n", hi.X-lo.X, hi.Y-lo.Y)
	if open := len(outline.Paths) - outline.ClosedCount(); open > 0 {
		fmt.Printf("  Warning: %d open path(s), the mesh is not closed along the plane\n", open)
	}

	if sectionOutput != "" {
		if err := section.Save(sectionOutput, outline, sectionScale); err != nil {
			exitf("%v", err)
		}
		fmt.Printf("\nOutline written to %s (%s)\n", sectionOutput, section.FormatFromPath(sectionOutput))
	}
}
