// Package main implements the sdslbind CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"sdslbind/internal/logging"
	"sdslbind/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "sdslbind",
	Short:        "Generate and build sdsl-lite bindings for a crate",
	Long:         `sdslbind scans compiler IR for sdsl instantiations and builds the C shim library that exposes them`,
	SilenceUsage: true,

	PersistentPreRunE:  startProfiling,
	PersistentPostRunE: stopProfiling,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to file")
}

func main() {
	rootCmd.Version = version.Plain()

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(analyseCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRunE does not run when the command fails
		_ = profiling.Stop()
		os.Exit(1)
	}
}

// commandLogger builds the logger selected by the global flags. forceQuiet
// keeps log lines from tearing through the progress view.
func commandLogger(cmd *cobra.Command, forceQuiet bool) (*zap.Logger, error) {
	level, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, err
	}
	return logging.New(level, quiet || forceQuiet)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
