package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/philipparndt/stlcut/internal/config"
	"github.com/philipparndt/stlcut/version"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	storeDir   string
	workers    int

	cfg    = config.Default()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "stlcut",
	Short: "Place and cut STL meshes with planes",
	Long: `stlcut bakes transforms into triangle meshes and cuts them with planes.
Each plane removes the material on one of its sides; cuts are exact boolean
subtractions and a cut that would open a closed input is not applied (see
boolean.require_closed). Jobs can be described in YAML,
run in batches, re-run on file changes and tracked as stored records.`,
	Version:           version.GetFullVersion(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "Record store directory")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Parallel workers for batch jobs (default: NumCPU)")
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	c, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	c.Resolve(config.Flags{StoreDir: storeDir, Workers: workers})
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
