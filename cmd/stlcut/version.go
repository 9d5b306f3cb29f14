package main

import (
	"fmt"
	"runtime"

	"github.com/philipparndt/stlcut/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stlcut %s\n", version.GetFullVersion())
		fmt.Printf("  Commit: %s\n", version.GitCommit)
		fmt.Printf("  Built: %s\n", version.BuildDate)
		fmt.Printf("  Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
