package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/internal/store"
	"github.com/philipparndt/stlcut/pkg/stl"
	"github.com/spf13/cobra"
)

var (
	recordName     string
	recordAge      int
	recordPlanes   []string
	recordArtifact string
	recordOutput   string
	recordFormat   string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage stored records (origin, transformed and cut meshes)",
	Long: `A record is a named part with up to three stored meshes: the imported
origin, the placed (transformed) mesh and the cut result. Records live in the
store directory (--store or store_dir in the config).`,
}

var recordCreateCmd = &cobra.Command{
	Use:   "create [file]",
	Short: "Create a record from an STL, 3MF or OpenSCAD file",
	Args:  cobra.ExactArgs(1),
	Run:   runRecordCreate,
}

var recordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records",
	Args:  cobra.NoArgs,
	Run:   runRecordList,
}

var recordShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a record and its artifacts",
	Args:  cobra.ExactArgs(1),
	Run:   runRecordShow,
}

var recordPlaceCmd = &cobra.Command{
	Use:   "place [id]",
	Short: "Bake a transform into the origin mesh and store it as transformed",
	Args:  cobra.ExactArgs(1),
	Run:   runRecordPlace,
}

var recordCutCmd = &cobra.Command{
	Use:   "cut [id]",
	Short: "Cut the transformed mesh (or the origin) and store the result",
	Args:  cobra.ExactArgs(1),
	Run:   runRecordCut,
}

var recordExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Write an artifact of a record to a file",
	Args:  cobra.ExactArgs(1),
	Run:   runRecordExport,
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a record and all its artifacts",
	Args:  cobra.ExactArgs(1),
	Run:   runRecordDelete,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(recordCreateCmd, recordListCmd, recordShowCmd, recordPlaceCmd,
		recordCutCmd, recordExportCmd, recordDeleteCmd)

	recordCreateCmd.Flags().StringVar(&recordName, "name", "", "Record name (default: file name)")
	recordCreateCmd.Flags().IntVar(&recordAge, "age", 0, "Age attribute of the record")

	recordPlaceCmd.Flags().StringVar(&transformTranslate, "translate", "", "Translation as x,y,z")
	recordPlaceCmd.Flags().StringVar(&transformRotate, "rotate", "", "Rotation as x,y,z Euler degrees")
	recordPlaceCmd.Flags().StringVar(&transformScale, "scale", "", "Scale as x,y,z")
	recordPlaceCmd.Flags().StringVar(&transformMatrix, "matrix", "", "Row-major 4x4 matrix as 16 comma separated values")

	recordCutCmd.Flags().StringArrayVarP(&recordPlanes, "plane", "p", nil, "Cut plane (repeatable)")
	recordCutCmd.MarkFlagRequired("plane")

	recordExportCmd.Flags().StringVar(&recordArtifact, "artifact", "", "origin, transformed or cut (default: latest)")
	recordExportCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Output file (.stl or .3mf)")
	recordExportCmd.Flags().StringVar(&recordFormat, "format", "binary", "STL format: binary or ascii")
	recordExportCmd.MarkFlagRequired("output")
}

func runRecordCreate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	path := args[0]

	var data []byte
	var err error
	if loader.IsOpenSCAD(path) || loader.Is3MF(path) {
		model, lerr := newLoader().LoadModel(ctx, path)
		if lerr != nil {
			exitf("%v", lerr)
		}
		data, err = stl.Encode(model, stl.FormatBinary)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		exitf("%v", err)
	}

	name := recordName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	r, err := newService().Import(ctx, name, recordAge, data)
	if err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Record created: %s\n", r.ID)
}

func runRecordList(cmd *cobra.Command, args []string) {
	records, err := newService().Store().List(context.Background())
	if err != nil {
		exitf("%v", err)
	}

	fmt.Println("Records")
	fmt.Println("=======")
	if len(records) == 0 {
		fmt.Println("No records found.")
		return
	}
	fmt.Printf("%-36s  %-24s %-5s %-26s %s\n", "ID", "Name", "Age", "Artifacts", "Updated")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range records {
		var names []string
		for _, a := range store.Artifacts {
			if r.Has(a) {
				names = append(names, string(a))
			}
		}
		fmt.Printf("%-36s  %-24s %-5d %-26s %s\n", r.ID, r.Name, r.Age, strings.Join(names, ","), r.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func runRecordShow(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newService()
	r, err := svc.Store().Get(ctx, args[0])
	if err != nil {
		exitf("%v", err)
	}

	fmt.Println("Record")
	fmt.Println("======")
	fmt.Printf("ID: %s\n", r.ID)
	fmt.Printf("Name: %s\n", r.Name)
	fmt.Printf("Age: %d\n", r.Age)
	fmt.Printf("Created: %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n\n", r.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	for _, a := range store.Artifacts {
		info, ok := r.Artifacts[a]
		if !ok {
			continue
		}
		fmt.Printf("%s (%s, %d bytes):\n", a, info.File, info.Size)
		m, err := svc.Mesh(ctx, r.ID, a)
		if err != nil {
			fmt.Printf("  Error: %v\n\n", err)
			continue
		}
		printMeshSummary(m)
		fmt.Println()
	}
}

func runRecordPlace(cmd *cobra.Command, args []string) {
	mat, err := transformFromFlags()
	if err != nil {
		exitf("%v", err)
	}
	r, err := newService().PlaceOrigin(context.Background(), args[0], mat)
	if err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Record %s placed (%s stored)\n", r.ID, store.ArtifactTransformed)
}

func runRecordCut(cmd *cobra.Command, args []string) {
	planes := parsePlanes(recordPlanes)
	ctx, cancel := signalContext()
	defer cancel()

	_, result, err := newService().Cut(ctx, args[0], planes)
	if result != nil {
		printCutResult(result)
	}
	if err != nil {
		exitf("%v", err)
	}
}

func runRecordExport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newService()
	format, err := stl.ParseFormat(recordFormat)
	if err != nil {
		exitf("%v", err)
	}

	r, err := svc.Store().Get(ctx, args[0])
	if err != nil {
		exitf("%v", err)
	}
	artifact := latestArtifact(r)
	if recordArtifact != "" {
		if artifact, err = store.ParseArtifact(recordArtifact); err != nil {
			exitf("%v", err)
		}
	}

	m, err := svc.Mesh(ctx, r.ID, artifact)
	if err != nil {
		exitf("%v", err)
	}
	if err := loader.Save(recordOutput, m, format); err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Exported %s of %s to %s\n", artifact, r.ID, recordOutput)
}

func runRecordDelete(cmd *cobra.Command, args []string) {
	if err := newService().Store().Delete(context.Background(), args[0]); err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Record deleted: %s\n", args[0])
}
