package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sdslbind/internal/prof"
)

var profiling *prof.Session

func profileOptions(cmd *cobra.Command) (prof.Options, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return opts, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return opts, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return opts, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return opts, nil
}

func startProfiling(cmd *cobra.Command, _ []string) error {
	opts, err := profileOptions(cmd)
	if err != nil || !opts.Enabled() {
		return err
	}
	profiling, err = prof.Start(opts)
	return err
}

func stopProfiling(_ *cobra.Command, _ []string) error {
	err := profiling.Stop()
	profiling = nil
	return err
}
