package main

import (
	"fmt"

	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/spf13/cobra"
)

var (
	cutOutput  string
	cutFormat  string
	cutPlanes  []string
	cutPreview string
	cutMargin  float64
	cutFixed   float64
	cutStrict  bool
)

var cutCmd = &cobra.Command{
	Use:   "cut [file]",
	Short: "Cut a mesh with one or more planes",
	Long: `Cut a mesh with planes given as "px,py,pz:nx,ny,nz[:positive|negative]".
Each plane removes the material on the given side (positive: where the normal
points). Planes are applied in order; planes with a zero normal are skipped.
When a plane fails, the mesh after the last successful cut is still written
and the command exits with an error.`,
	Args: cobra.ExactArgs(1),
	Run:  runCut,
}

func init() {
	rootCmd.AddCommand(cutCmd)

	cutCmd.Flags().StringVarP(&cutOutput, "output", "o", "", "Output file (.stl or .3mf)")
	cutCmd.Flags().StringVar(&cutFormat, "format", "binary", "STL format: binary or ascii")
	cutCmd.Flags().StringArrayVarP(&cutPlanes, "plane", "p", nil, "Cut plane (repeatable)")
	cutCmd.Flags().StringVar(&cutPreview, "preview", "", "Also render a preview image (.webp or .png)")
	cutCmd.Flags().Float64Var(&cutMargin, "margin", 0, "Cutter box margin factor (default from config)")
	cutCmd.Flags().Float64Var(&cutFixed, "fixed-size", 0, "Use a fixed cutter box size instead of adaptive sizing")
	cutCmd.Flags().BoolVar(&cutStrict, "strict", false, "Exit with an error when any plane was skipped")
	cutCmd.MarkFlagRequired("output")
	cutCmd.MarkFlagRequired("plane")
}

func runCut(cmd *cobra.Command, args []string) {
	format, err := stl.ParseFormat(cutFormat)
	if err != nil {
		exitf("%v", err)
	}
	planes := parsePlanes(cutPlanes)
	if cutMargin > 0 {
		cfg.Cutter.Margin = cutMargin
	}
	if cutFixed > 0 {
		cfg.Cutter.FixedSize = cutFixed
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := loadMesh(ctx, args[0])
	result, cutErr := newPipeline().CutWithPlanes(ctx, m, planes)
	printCutResult(result)

	if result.Applied > 0 || cutErr == nil {
		if err := loader.Save(cutOutput, result.Mesh, format); err != nil {
			exitf("%v", err)
		}
		fmt.Printf("\nWritten: %s\n", cutOutput)
		if cutPreview != "" {
			if err := writePreview(cutPreview, result.Mesh, planes); err != nil {
				exitf("%v", err)
			}
			fmt.Printf("Preview: %s\n", cutPreview)
		}
	}

	if cutErr != nil {
		exitf("%v", cutErr)
	}
	if cutStrict && len(result.Skipped) > 0 {
		exitf("%d plane(s) skipped", len(result.Skipped))
	}
}
