package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [crate-dir]",
	Short: "Remove the generated sources and the shim library",
	Long:  "Remove the output directory holding generated native sources, the build manifest and the compiled library.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	outFlag, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	baseDir, err = resolveCleanBase(baseDir)
	if err != nil {
		return err
	}
	manifest, _, err := loadProjectManifest(baseDir)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(baseDir, manifest)
	if err != nil {
		return err
	}
	targetDir := settings.OutDir
	if outFlag != "" {
		targetDir = outFlag
	}

	out := cmd.OutOrStdout()
	info, err := os.Stat(targetDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintf(out, "output directory not found\n")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", targetDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", targetDir)
	}
	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", targetDir, err)
	}
	_, _ = fmt.Fprintf(out, "removed %s\n", formatPathForOutput(baseDir, targetDir))
	return nil
}

func resolveCleanBase(base string) (string, error) {
	info, err := os.Stat(base)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", base, err)
	}
	if !info.IsDir() {
		base = filepath.Dir(base)
	}
	manifest, ok, err := loadProjectManifest(base)
	if err != nil {
		return "", err
	}
	if ok {
		return manifest.Root, nil
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return base, nil
	}
	return abs, nil
}

func init() {
	cleanCmd.Flags().String("out", "", "output directory to remove")
}
