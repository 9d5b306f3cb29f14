package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/philipparndt/stlcut/pkg/analysis"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/spf13/cobra"
)

var (
	edgesCount     int
	edgesLongest   bool
	edgesShortest  bool
	edgesMinLength float64
	edgesMaxLength float64
	edgesDefects   bool
)

var edgesCmd = &cobra.Command{
	Use:   "edges [file]",
	Short: "Analyze and measure edges of a mesh",
	Long: `Find and measure edges, including longest, shortest, or edges within a specific length range.
With --defects the edges that keep the mesh from being closed are listed instead;
a clean cut result has none.`,
	Args:  cobra.ExactArgs(1),
	Run:   runEdges,
}

func init() {
	rootCmd.AddCommand(edgesCmd)

	edgesCmd.Flags().IntVarP(&edgesCount, "count", "n", 10, "Number of edges to display")
	edgesCmd.Flags().BoolVarP(&edgesLongest, "longest", "l", false, "Show longest edges")
	edgesCmd.Flags().BoolVarP(&edgesShortest, "shortest", "s", false, "Show shortest edges")
	edgesCmd.Flags().Float64Var(&edgesMinLength, "min", 0.0, "Minimum edge length filter")
	edgesCmd.Flags().Float64Var(&edgesMaxLength, "max", 0.0, "Maximum edge length filter")
	edgesCmd.Flags().BoolVar(&edgesDefects, "defects", false, "List boundary, non-manifold and flipped edges")
}

func runEdges(cmd *cobra.Command, args []string) {
	m := loadMesh(context.Background(), args[0])
	if edgesDefects {
		printDefectEdges(m)
		return
	}
	result := analysis.AnalyzeMesh(m)

	var edges []analysis.EdgeInfo
	var title string

	switch {
	case edgesLongest:
		edges = analysis.FindLongestEdges(result, edgesCount)
		title = fmt.Sprintf("Top %d Longest Edges", len(edges))
	case edgesShortest:
		edges = analysis.FindShortestEdges(result, edgesCount)
		title = fmt.Sprintf("Top %d Shortest Edges", len(edges))
	case edgesMaxLength > 0:
		edges = analysis.FindEdgesByLength(result, edgesMinLength, edgesMaxLength)
		title = fmt.Sprintf("Edges between %.6f and %.6f units (found %d)", edgesMinLength, edgesMaxLength, len(edges))
		if len(edges) > edgesCount {
			edges = edges[:edgesCount]
		}
	default:
		edges = result.AllEdges
		title = fmt.Sprintf("All Edges (showing first %d of %d)", min(edgesCount, len(edges)), len(edges))
		if len(edges) > edgesCount {
			edges = edges[:edgesCount]
		}
	}

	fmt.Println(title)
	fmt.Println("====================")
	fmt.Printf("Total edges in mesh: %d\n", result.EdgeCount)
	fmt.Printf("Boundary edges: %d\n", result.BoundaryEdges)
	fmt.Printf("Min edge length: %.6f units\n", result.MinEdgeLength)
	fmt.Printf("Max edge length: %.6f units\n", result.MaxEdgeLength)
	fmt.Printf("Avg edge length: %.6f units\n\n", result.AvgEdgeLength)

	if len(edges) == 0 {
		fmt.Println("No edges found matching the criteria.")
		return
	}
	fmt.Printf("%-6s %-35s %-35s %-15s\n", "Index", "Start", "End", "Length")
	fmt.Println("-----------------------------------------------------------------------------------------------")
	for i, edge := range edges {
		fmt.Printf("%-6d %-35s %-35s %-15.6f\n",
			i+1,
			analysis.FormatVector(edge.Start),
			analysis.FormatVector(edge.End),
			edge.Length)
	}
}

func printDefectEdges(m *mesh.Mesh) {
	defects := m.DefectEdges()

	fmt.Println("Edge Defects")
	fmt.Println("============")
	fmt.Printf("Defective edges: %d\n\n", len(defects))
	if len(defects) == 0 {
		fmt.Println("The mesh is closed and consistently oriented.")
		return
	}

	counts := make(map[mesh.EdgeDefect]int)
	for _, d := range defects {
		counts[d.Defect]++
	}
	for _, kind := range []mesh.EdgeDefect{mesh.Boundary, mesh.NonManifold, mesh.Flipped} {
		if counts[kind] > 0 {
			fmt.Printf("  %-13s %d\n", kind.String()+":", counts[kind])
		}
	}
	fmt.Println()

	fmt.Printf("%-6s %-13s %-5s %-35s %-35s\n", "Index", "Defect", "Uses", "Start", "End")
	fmt.Println(strings.Repeat("-", 96))
	for i, d := range defects {
		if i == edgesCount {
			fmt.Printf("... %d more\n", len(defects)-edgesCount)
			break
		}
		fmt.Printf("%-6d %-13s %-5d %-35s %-35s\n",
			i+1, d.Defect, d.Uses,
			analysis.FormatVector(m.Vertices[d.A]),
			analysis.FormatVector(m.Vertices[d.B]))
	}
}
