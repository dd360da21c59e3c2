package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sdslbind/internal/buildpipeline"
	"sdslbind/templates"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [crate-dir]",
	Short: "Build the sdsl shim library for a crate",
	Long:  "Emit the crate's IR, generate native sources for every sdsl instantiation found in it and compile them into one shared library.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func buildExecution(cmd *cobra.Command, args []string) error {
	outFlag, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	irFlag, err := cmd.Flags().GetString("ir")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	printCommands, err := cmd.Flags().GetBool("print-commands")
	if err != nil {
		return err
	}
	buildType, err := cmd.Flags().GetString("build-type")
	if err != nil {
		return err
	}
	templatesFlag, err := cmd.Flags().GetString("templates")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	useTUI := uiModeValue.progressView(os.Stdout)

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
	if templatesFlag != "" {
		settings.Templates = templatesFlag
	}
	if buildType != "" {
		settings.Native.BuildType = buildType
	}
	if jobs > 0 {
		settings.Native.Jobs = jobs
	}
	settings.Native.PrintCommands = printCommands

	logger, err := commandLogger(cmd, useTUI)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var tmpl fs.FS
	if settings.Templates != "" {
		archive, archiveErr := templates.OpenArchive(settings.Templates)
		if archiveErr != nil {
			return archiveErr
		}
		defer func() { _ = archive.Close() }()
		tmpl = archive
		logger.Debug("using template archive", zap.String("path", settings.Templates))
	}

	req := buildpipeline.Request{
		CrateDir:  settings.CrateDir,
		OutDir:    settings.OutDir,
		IR:        irFlag,
		IRCommand: settings.IRCommand,
		Native:    settings.Native,
		Templates: tmpl,
		Logger:    logger,
		MaxDepth:  maxDepth,
	}

	var res buildpipeline.Result
	if useTUI {
		res, err = runBuildWithUI(cmd.Context(), "sdslbind build", &req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), &req)
	}
	out := cmd.OutOrStdout()
	if showTimings {
		logger.Debug("build phases", zap.String("summary", res.Timer.Summary()))
		if printErr := printStageTimings(out, res.Timings); printErr != nil && err == nil {
			err = printErr
		}
	}
	if err != nil {
		return err
	}
	return reportBuild(out, settings.CrateDir, res)
}

func reportBuild(out io.Writer, root string, res buildpipeline.Result) error {
	var err error
	switch {
	case res.Skipped:
		_, err = fmt.Fprintf(out, "skipped (%s=1)\n", buildpipeline.SkipEnv)
	case res.NoIR:
		_, err = fmt.Fprintln(out, "no IR emitted, nothing to build")
	case res.Compiled:
		_, err = fmt.Fprintf(out, "built %s (%d specs, +%d -%d)\n",
			formatPathForOutput(root, res.LibraryPath), len(res.Specs), len(res.Added), len(res.Removed))
	default:
		_, err = fmt.Fprintf(out, "up to date %s (%d specs)\n",
			formatPathForOutput(root, res.LibraryPath), len(res.Specs))
	}
	return err
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func init() {
	buildCmd.Flags().String("out", "", "output directory (default target/sdsl, or [build].out_dir)")
	buildCmd.Flags().String("ir", "", "use a pre-emitted IR file instead of running the IR command")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	buildCmd.Flags().Bool("print-commands", false, "print cmake output")
	buildCmd.Flags().String("build-type", "", "CMake build type (default Release)")
	buildCmd.Flags().String("templates", "", "zip archive overriding the embedded templates")
	buildCmd.Flags().Int("jobs", 0, "parallel native build jobs")
	buildCmd.Flags().Int("max-depth", 0, "nested parameter resolution limit")
}
