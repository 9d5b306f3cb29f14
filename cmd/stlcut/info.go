package main

import (
	"context"
	"fmt"

	"github.com/philipparndt/stlcut/pkg/analysis"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about an STL, 3MF or OpenSCAD file",
	Long:  "Show dimensions, triangle count, volume, surface area, edge statistics and whether the mesh is watertight.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	filename := args[0]
	m := loadMesh(context.Background(), filename)
	result := analysis.AnalyzeMesh(m)

	fmt.Println("Mesh Information")
	fmt.Println("================")
	if m.Name != "" {
		fmt.Printf("Name: %s\n", m.Name)
	}
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Model Statistics:")
	fmt.Printf("  Vertices: %d\n", result.VertexCount)
	fmt.Printf("  Triangles: %d\n", result.TriangleCount)
	fmt.Printf("  Edges: %d\n", result.EdgeCount)
	fmt.Printf("  Surface Area: %.6f square units\n", result.SurfaceArea)
	fmt.Printf("  Volume: %.6f cubic units\n\n", result.Volume)

	fmt.Println("Topology:")
	fmt.Printf("  Watertight: %s\n", yesNo(result.Watertight))
	fmt.Printf("  Boundary edges: %d\n", result.BoundaryEdges)
	fmt.Printf("  Non-manifold edges: %d\n\n", result.NonManifoldEdges)

	fmt.Println("Bounding Box:")
	fmt.Printf("  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Printf("  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Printf("  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Println("Dimensions:")
	fmt.Printf("  Width (X): %.6f units\n", result.Dimensions.X)
	fmt.Printf("  Depth (Y): %.6f units\n", result.Dimensions.Y)
	fmt.Printf("  Height (Z): %.6f units\n", result.Dimensions.Z)
	fmt.Printf("  Diagonal: %.6f units\n\n", result.BoundingBox.Diagonal())

	fmt.Println("Edge Lengths:")
	fmt.Printf("  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Printf("  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Printf("  Average: %.6f units\n", result.AvgEdgeLength)
}
