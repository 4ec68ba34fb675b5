package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "scoutd %s by Fastbreak Labs\n", version)
	fmt.Fprintf(w, "  commit: %s\n", gitCommit)
	fmt.Fprintf(w, "  built:  %s\n", buildDate)
	fmt.Fprintf(w, "  go:     %s\n", runtime.Version())
}
