package main

import (
	"fmt"

	"github.com/philipparndt/stlcut/internal/job"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [job.yaml]",
	Short: "Run a cut job",
	Long: `Run a YAML cut job: load the input file (or a stored record), apply the
transform, cut with the planes in order and write the output mesh and preview.`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) {
	j, err := job.Load(args[0])
	if err != nil {
		exitf("%v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := runJob(ctx, j)
	if result != nil {
		printCutResult(result)
	}
	if err != nil {
		exitf("%v", err)
	}
	if out := j.OutputPath(); out != "" {
		fmt.Printf("\nWritten: %s\n", out)
	}
}
