package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/philipparndt/stlcut/internal/job"
	"github.com/philipparndt/stlcut/pkg/cut"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [job.yaml...]",
	Short: "Run several cut jobs in parallel",
	Long: `Run independent cut jobs on a worker pool (--workers, default one per CPU).
Jobs that reference stored records run one after another after the file jobs.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

type batchRow struct {
	name     string
	result   *cut.Result
	err      error
	duration time.Duration
}

func runBatch(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	rows := make([]batchRow, len(args))

	var fileJobs []*job.Job
	var fileRows []int
	var requests []cut.Request
	var recordRows []int
	jobs := make([]*job.Job, len(args))

	for i, path := range args {
		rows[i].name = path
		j, err := job.Load(path)
		if err != nil {
			rows[i].err = err
			continue
		}
		jobs[i] = j
		if j.Record != "" {
			recordRows = append(recordRows, i)
			continue
		}
		req, err := jobRequest(ctx, j)
		if err != nil {
			rows[i].err = err
			continue
		}
		req.Name = path
		fileJobs = append(fileJobs, j)
		fileRows = append(fileRows, i)
		requests = append(requests, req)
	}

	logger.Info("batch started", "jobs", len(args), "workers", cfg.Workers)
	for k, br := range cut.RunBatch(ctx, newPipeline(), requests, cfg.Workers) {
		i := fileRows[k]
		rows[i].result, rows[i].err, rows[i].duration = br.Result, br.Err, br.Duration
		if br.Err == nil || (br.Result != nil && br.Result.Applied > 0) {
			if err := writeJobOutputs(fileJobs[k], br.Result.Mesh, requests[k].Planes); err != nil && rows[i].err == nil {
				rows[i].err = err
			}
		}
	}

	for _, i := range recordRows {
		t := time.Now()
		rows[i].result, rows[i].err = runJob(ctx, jobs[i])
		rows[i].duration = time.Since(t)
	}

	fmt.Println("Batch Result")
	fmt.Println("============")
	fmt.Printf("%-40s %-10s %-8s %-8s %-12s %s\n", "Job", "State", "Applied", "Skipped", "Time", "Error")
	fmt.Println(strings.Repeat("-", 100))
	failed := 0
	for _, row := range rows {
		state, applied, skipped := "failed", "-", "-"
		if row.result != nil {
			state = row.result.State.String()
			applied = fmt.Sprint(row.result.Applied)
			skipped = fmt.Sprint(len(row.result.Skipped))
		} else if row.err == nil {
			state = "done"
		}
		msg := ""
		if row.err != nil {
			failed++
			msg = row.err.Error()
		}
		fmt.Printf("%-40s %-10s %-8s %-8s %-12s %s\n", row.name, state, applied, skipped, row.duration.Round(time.Millisecond), msg)
	}
	fmt.Printf("\n%d job(s), %d failed, %s total\n", len(rows), failed, time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		os.Exit(1)
	}
}
