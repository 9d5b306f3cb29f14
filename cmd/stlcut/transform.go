package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/philipparndt/stlcut/pkg/transform"
	"github.com/spf13/cobra"
)

var (
	transformOutput    string
	transformFormat    string
	transformTranslate string
	transformRotate    string
	transformScale     string
	transformMatrix    string
)

var transformCmd = &cobra.Command{
	Use:   "transform [file]",
	Short: "Bake a transform into a mesh",
	Long: `Apply translate/rotate/scale (rotation as XYZ Euler degrees, composed as
T * Rx * Ry * Rz * S) or a full row-major 4x4 matrix to every vertex and write
the result. Mirroring transforms keep the mesh outward facing.`,
	Args: cobra.ExactArgs(1),
	Run:  runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringVarP(&transformOutput, "output", "o", "", "Output file (.stl or .3mf)")
	transformCmd.Flags().StringVar(&transformFormat, "format", "binary", "STL format: binary or ascii")
	transformCmd.Flags().StringVar(&transformTranslate, "translate", "", "Translation as x,y,z")
	transformCmd.Flags().StringVar(&transformRotate, "rotate", "", "Rotation as x,y,z Euler degrees")
	transformCmd.Flags().StringVar(&transformScale, "scale", "", "Scale as x,y,z")
	transformCmd.Flags().StringVar(&transformMatrix, "matrix", "", "Row-major 4x4 matrix as 16 comma separated values")
	transformCmd.MarkFlagRequired("output")
	transformCmd.MarkFlagsMutuallyExclusive("matrix", "translate")
	transformCmd.MarkFlagsMutuallyExclusive("matrix", "rotate")
	transformCmd.MarkFlagsMutuallyExclusive("matrix", "scale")
}

func runTransform(cmd *cobra.Command, args []string) {
	format, err := stl.ParseFormat(transformFormat)
	if err != nil {
		exitf("%v", err)
	}
	mat, err := transformFromFlags()
	if err != nil {
		exitf("%v", err)
	}

	m := loadMesh(context.Background(), args[0])
	out, err := newPipeline().ApplyTransform(m, mat)
	if err != nil {
		exitf("%v", err)
	}
	if err := loader.Save(transformOutput, out, format); err != nil {
		exitf("%v", err)
	}

	fmt.Println("Transform Applied")
	fmt.Println("=================")
	fmt.Printf("Input: %s\n", args[0])
	fmt.Printf("Output: %s\n\n", transformOutput)
	fmt.Println("Mesh:")
	printMeshSummary(out)
}

func transformFromFlags() (geometry.Matrix4, error) {
	if transformMatrix != "" {
		return parseMatrix(transformMatrix)
	}
	g := transform.NewGizmo()
	var err error
	if transformTranslate != "" {
		if g.Translate, err = geometry.ParseVector3(transformTranslate); err != nil {
			return geometry.Matrix4{}, fmt.Errorf("--translate: %w", err)
		}
	}
	if transformRotate != "" {
		if g.Rotate, err = geometry.ParseVector3(transformRotate); err != nil {
			return geometry.Matrix4{}, fmt.Errorf("--rotate: %w", err)
		}
	}
	if transformScale != "" {
		if g.Scale, err = geometry.ParseVector3(transformScale); err != nil {
			return geometry.Matrix4{}, fmt.Errorf("--scale: %w", err)
		}
	}
	return g.Matrix(), nil
}

func parseMatrix(s string) (geometry.Matrix4, error) {
	var m geometry.Matrix4
	fields := strings.Split(s, ",")
	if len(fields) != 16 {
		return m, fmt.Errorf("--matrix needs 16 values, got %d", len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return m, fmt.Errorf("--matrix value %d: %w", i, err)
		}
		m[i] = v
	}
	return m, nil
}
