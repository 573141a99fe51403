// Command graphbench drives the aging benchmark: generate an update log,
// replay it against a registered graph library, and record the results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped by the build.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "graphbench",
	Short: "Benchmark harness for graph update libraries",
	Long: `graphbench replays a pre-recorded insert/delete update log against a
pluggable graph library from a pool of writer threads, optionally
interleaving background snapshot builds, and reports throughput, latency
and final-graph correctness.

QUICK START:
  graphbench generate --output aging.graphlog --max-vertex-id 1024
  graphbench run --log aging.graphlog --library adjlist --threads 8`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the graphbench version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	})
}
