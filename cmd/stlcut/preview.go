package main

import (
	"context"
	"fmt"

	"github.com/philipparndt/stlcut/pkg/viewer"
	"github.com/spf13/cobra"
)

var (
	previewOutput    string
	previewFormat    string
	previewSize      int
	previewElevation float64
	previewAzimuth   float64
	previewPlanes    []string
	previewCaption   string
	previewNoCaption bool
)

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Render a preview image of a mesh",
	Long:  "Render a flat-shaded preview as WebP or PNG, optionally with cut planes drawn as outlines.",
	Args:  cobra.ExactArgs(1),
	Run:   runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Output image (.webp or .png)")
	previewCmd.Flags().StringVar(&previewFormat, "format", "", "Image format: webp or png (default from extension)")
	previewCmd.Flags().IntVar(&previewSize, "size", 0, "Image size in pixels (default from config)")
	previewCmd.Flags().Float64Var(&previewElevation, "elevation", 30, "Camera elevation in degrees")
	previewCmd.Flags().Float64Var(&previewAzimuth, "azimuth", -35, "Camera azimuth in degrees")
	previewCmd.Flags().StringArrayVarP(&previewPlanes, "plane", "p", nil, "Plane to outline (repeatable)")
	previewCmd.Flags().StringVar(&previewCaption, "caption", "", "Caption text (default: name and dimensions)")
	previewCmd.Flags().BoolVar(&previewNoCaption, "no-caption", false, "Do not draw a caption")
	previewCmd.MarkFlagRequired("output")
}

func runPreview(cmd *cobra.Command, args []string) {
	format := viewer.FormatFromPath(previewOutput, cfg.PreviewFormat())
	if previewFormat != "" {
		f, err := viewer.ParseImageFormat(previewFormat)
		if err != nil {
			exitf("%v", err)
		}
		format = f
	}

	m := loadMesh(context.Background(), args[0])

	opts := cfg.PreviewOptions()
	if previewSize > 0 {
		opts.Size = previewSize
	}
	opts.Elevation = previewElevation
	opts.Azimuth = previewAzimuth
	opts.Planes = parsePlanes(previewPlanes)
	switch {
	case previewNoCaption:
	case previewCaption != "":
		opts.Caption = previewCaption
	default:
		opts.Caption = meshCaption(m)
	}

	img := viewer.Render(m, opts)
	if err := viewer.Save(previewOutput, img, format); err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Preview written: %s (%dx%d %s)\n", previewOutput, opts.Size, opts.Size, format)
}
