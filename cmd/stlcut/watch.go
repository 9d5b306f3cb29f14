package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/philipparndt/stlcut/internal/job"
	"github.com/philipparndt/stlcut/pkg/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [job.yaml]",
	Short: "Re-run a cut job whenever its files change",
	Long: `Run a cut job, then watch the job file and its input (including use/include
dependencies of OpenSCAD sources) and run it again after every change.
Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	jobPath, err := filepath.Abs(args[0])
	if err != nil {
		exitf("%v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fw, err := watcher.New(500*time.Millisecond, logger)
	if err != nil {
		exitf("%v", err)
	}
	defer fw.Close()

	var mu sync.Mutex
	var rerun func(string)
	rerun = func(changed string) {
		mu.Lock()
		defer mu.Unlock()
		if changed != "" {
			fmt.Printf("\nFile changed: %s\n", changed)
		}

		files := []string{jobPath}
		if j, err := job.Load(jobPath); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			runWatchedJob(ctx, j)
			if j.Input != "" {
				deps, err := newLoader().WatchList(j.InputPath())
				if err != nil {
					fmt.Printf("Error: %v\n", err)
				}
				files = append(files, deps...)
			}
		}

		if err := fw.RemoveAll(); err != nil {
			logger.Warn("failed to reset watch list", "error", err)
		}
		if err := fw.Watch(files, rerun); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("Watching %d file(s) for changes:\n", len(files))
		for _, f := range files {
			fmt.Printf("  - %s\n", f)
		}
	}

	rerun("")
	if err := fw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		exitf("%v", err)
	}
}

func runWatchedJob(ctx context.Context, j *job.Job) {
	start := time.Now()
	result, err := runJob(ctx, j)
	if result != nil {
		printCutResult(result)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("\nJob finished in %s\n", time.Since(start).Round(time.Millisecond))
}
