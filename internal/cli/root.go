// Package cli provides the Cobra commands for the testforge pipeline tool:
// run (execute the full gate pipeline for a request), status, clean, config
// management, and version.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "testforge",
	Short: "testforge test-generation pipeline",
	Long: `testforge test-generation pipeline

Coordinates external workers through a fixed sequence of quality gates to
turn a feature request into designed, generated, and executed UI tests,
with a bounded self-healing retry loop around test execution.`,
	Example: `  # Run the pipeline for a request
  testforge run request.json

  # Inspect recorded runs
  testforge status

  # Remove durable state for one run
  testforge clean checkout-login`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a local config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}
