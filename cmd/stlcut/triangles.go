package main

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/stlcut/pkg/analysis"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/spf13/cobra"
)

var (
	triCount       int
	triLargest     bool
	triSmallest    bool
	triSlivers     bool
	triSliverAngle float64
)

// triangleStats is one facet with the quality figures the listing sorts by
type triangleStats struct {
	Index     int
	Area      float64
	Perimeter float64
	MinAngle  float64 // degrees
}

var trianglesCmd = &cobra.Command{
	Use:   "triangles [file]",
	Short: "Analyze triangles of a mesh",
	Long: `Display triangle areas, perimeters and minimum angles. Triangles whose smallest
angle is below --sliver-angle are counted as slivers; --slivers lists the worst
ones first.`,
	Args: cobra.ExactArgs(1),
	Run:  runTriangles,
}

func init() {
	rootCmd.AddCommand(trianglesCmd)

	trianglesCmd.Flags().IntVarP(&triCount, "count", "n", 10, "Number of triangles to display")
	trianglesCmd.Flags().BoolVarP(&triLargest, "largest", "l", false, "Show largest triangles by area")
	trianglesCmd.Flags().BoolVarP(&triSmallest, "smallest", "s", false, "Show smallest triangles by area")
	trianglesCmd.Flags().BoolVar(&triSlivers, "slivers", false, "Show triangles with the smallest minimum angle")
	trianglesCmd.Flags().Float64Var(&triSliverAngle, "sliver-angle", 1, "Minimum angle in degrees below which a triangle is a sliver")
	trianglesCmd.MarkFlagsMutuallyExclusive("largest", "smallest", "slivers")
}

func collectTriangleStats(m *mesh.Mesh) []triangleStats {
	stats := make([]triangleStats, len(m.Triangles))
	for i := range m.Triangles {
		tri := m.Triangle(i)
		angles := tri.Angles()
		stats[i] = triangleStats{
			Index:     i,
			Area:      tri.Area(),
			Perimeter: tri.Perimeter(),
			MinAngle:  math.Min(angles[0], math.Min(angles[1], angles[2])) * 180 / math.Pi,
		}
	}
	return stats
}

func runTriangles(cmd *cobra.Command, args []string) {
	m := loadMesh(context.Background(), args[0])
	stats := collectTriangleStats(m)
	if len(stats) == 0 {
		exitf("mesh has no triangles")
	}

	totalArea, slivers := 0.0, 0
	minArea, maxArea := math.MaxFloat64, 0.0
	for _, s := range stats {
		totalArea += s.Area
		minArea = math.Min(minArea, s.Area)
		maxArea = math.Max(maxArea, s.Area)
		if s.MinAngle < triSliverAngle {
			slivers++
		}
	}

	title := fmt.Sprintf("First %d Triangles", triCount)
	switch {
	case triLargest:
		sort.SliceStable(stats, func(i, j int) bool { return stats[i].Area > stats[j].Area })
		title = fmt.Sprintf("Top %d Largest Triangles", triCount)
	case triSmallest:
		sort.SliceStable(stats, func(i, j int) bool { return stats[i].Area < stats[j].Area })
		title = fmt.Sprintf("Top %d Smallest Triangles", triCount)
	case triSlivers:
		sort.SliceStable(stats, func(i, j int) bool { return stats[i].MinAngle < stats[j].MinAngle })
		title = fmt.Sprintf("Top %d Slivers", triCount)
	}

	fmt.Println(title)
	fmt.Println("====================")
	fmt.Printf("Total triangles: %d\n", len(stats))
	fmt.Printf("Total surface area: %.6f square units\n", totalArea)
	fmt.Printf("Area range: %.6f .. %.6f square units (avg %.6f)\n", minArea, maxArea, totalArea/float64(len(stats)))
	fmt.Printf("Slivers (min angle < %.2f°): %d\n\n", triSliverAngle, slivers)

	fmt.Printf("%-8s %-16s %-16s %-10s %s\n", "Index", "Area", "Perimeter", "MinAngle", "Vertices")
	for i := 0; i < triCount && i < len(stats); i++ {
		s := stats[i]
		tri := m.Triangle(s.Index)
		fmt.Printf("%-8d %-16.6f %-16.6f %-10.3f %s  %s  %s\n",
			s.Index, s.Area, s.Perimeter, s.MinAngle,
			analysis.FormatVector(tri.V1),
			analysis.FormatVector(tri.V2),
			analysis.FormatVector(tri.V3))
	}
}
