package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sdslbind/internal/buildcache"
	"sdslbind/internal/buildpipeline"
	"sdslbind/internal/meta"
	"sdslbind/sharedlib"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [crate-dir]",
	Short: "Check that the built library exports every recorded instantiation",
	Long:  "Load the built shim library and resolve every function of every instantiation recorded in the build manifest.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

// missingSymbols collects the names verify could not resolve.
type missingSymbols struct {
	Names []string
}

func (e *missingSymbols) Error() string {
	return fmt.Sprintf("%d symbols missing, first: %s", len(e.Names), e.Names[0])
}

func runVerify(cmd *cobra.Command, args []string) error {
	outFlag, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	crateDir := "."
	if len(args) > 0 && args[0] != "" {
		crateDir = args[0]
	}
	manifest, _, err := loadProjectManifest(crateDir)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(crateDir, manifest)
	if err != nil {
		return err
	}
	if outFlag != "" {
		settings.OutDir = outFlag
	}
	outDir, err := filepath.Abs(settings.OutDir)
	if err != nil {
		return err
	}

	logger, err := commandLogger(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m, ok, err := buildcache.Open(buildpipeline.ManifestPath(outDir)).Load()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no build manifest under %s, run build first", outDir)
	}

	loader := &sharedlib.Loader{Path: buildpipeline.LibraryPath(outDir)}
	lib, err := loader.Load()
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	names, err := verifyExports(lib, m.Entries, logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "verified %d symbols across %d instantiations\n", names, len(m.Entries))
	return err
}

// verifyExports resolves every export of every entry, one goroutine per entry.
func verifyExports(lib *sharedlib.Library, entries []buildcache.Entry, logger *zap.Logger) (int, error) {
	missing := make([][]string, len(entries))
	counts := make([]int, len(entries))
	var g errgroup.Group
	for i, entry := range entries {
		g.Go(func() error {
			d, ok := meta.ByPath(entry.Path)
			if !ok {
				return fmt.Errorf("manifest entry %s: unknown structure %q", entry.ID, entry.Path)
			}
			for _, exp := range d.Exports() {
				counts[i]++
				if _, err := lib.Resolve(exp.Component, exp.Function, entry.ID); err != nil {
					if !errors.Is(err, sharedlib.ErrSymbolNotFound) {
						return err
					}
					name := sharedlib.SymbolName(exp.Component, exp.Function, entry.ID)
					logger.Warn("missing symbol", zap.String("spec", entry.ID), zap.String("symbol", name))
					missing[i] = append(missing[i], name)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var all []string
	total := 0
	for i := range entries {
		total += counts[i]
		all = append(all, missing[i]...)
	}
	if len(all) > 0 {
		sort.Strings(all)
		return total, &missingSymbols{Names: all}
	}
	return total, nil
}

func init() {
	verifyCmd.Flags().String("out", "", "output directory of the build")
}
