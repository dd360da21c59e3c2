// Package buildpipeline orchestrates discovery, analysis, materialization and
// compilation of the shim library.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"sdslbind/internal/analyse"
	"sdslbind/internal/buildcache"
	"sdslbind/internal/irsource"
	"sdslbind/internal/observ"
	"sdslbind/internal/specification"
	"sdslbind/internal/workspace"
	"sdslbind/templates"
)

// SkipEnv disables the build when set to "1".
const SkipEnv = irsource.SkipEnv

// Request configures one build.
type Request struct {
	CrateDir string
	OutDir   string
	// IR is a pre-emitted IR file; discovery runs only when it is empty.
	IR        string
	IRCommand []string
	Native    NativeOptions
	// Templates overrides the embedded template tree.
	Templates fs.FS
	Progress  ProgressSink
	Logger    *zap.Logger
	Compiler  Compiler
	// MaxDepth bounds nested parameter resolution.
	MaxDepth int
}

// Result captures what a build did.
type Result struct {
	// Skipped is set when SkipEnv disabled the build.
	Skipped bool
	// NoIR is set when discovery produced no IR; nothing else ran.
	NoIR        bool
	IRPath      string
	Specs       []*specification.Specification
	Report      workspace.Report
	Added       []string
	Removed     []string
	LibraryPath string
	Compiled    bool
	Timings     Timings
	Timer       observ.Report
}

// Build runs the whole pipeline.
func Build(ctx context.Context, req *Request) (result Result, err error) {
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy

	if os.Getenv(SkipEnv) == "1" {
		result.Skipped = true
		return result, nil
	}
	if req.OutDir == "" {
		return result, fmt.Errorf("missing output directory")
	}
	if req.Logger == nil {
		req.Logger = zap.NewNop()
	}
	if req.Templates == nil {
		req.Templates = templates.FS()
	}
	if req.Compiler == nil {
		req.Compiler = &CMake{Options: req.Native, Logger: req.Logger}
	}
	progress := multiSink{req.Progress, LogSink{Logger: req.Logger}}
	timer := observ.NewTimer()
	defer func() { result.Timer = timer.Report() }()

	outDir, err := filepath.Abs(req.OutDir)
	if err != nil {
		return result, fmt.Errorf("failed to resolve output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output dir: %w", err)
	}
	result.LibraryPath = LibraryPath(outDir)

	// discover
	result.IRPath = req.IR
	if result.IRPath == "" {
		idx := timer.Begin(string(StageDiscover))
		emitStage(progress, nil, StageDiscover, StatusWorking, nil, 0)
		path, ok, err := irsource.Emit(ctx, irsource.Request{
			CrateDir: req.CrateDir,
			OutDir:   outDir,
			Command:  req.IRCommand,
		})
		dur := timer.End(idx, "")
		result.Timings.Set(StageDiscover, dur)
		if err != nil {
			emitStage(progress, nil, StageDiscover, StatusError, err, dur)
			return result, err
		}
		if !ok {
			req.Logger.Info("no IR emitted, nothing to build", zap.String("crate", req.CrateDir))
			emitStage(progress, nil, StageDiscover, StatusSkipped, nil, dur)
			result.NoIR = true
			return result, nil
		}
		emitStage(progress, nil, StageDiscover, StatusDone, nil, dur)
		result.IRPath = path
	}

	// analyse
	idx := timer.Begin(string(StageAnalyse))
	emitStage(progress, nil, StageAnalyse, StatusWorking, nil, 0)
	ir, err := irsource.Read(result.IRPath)
	if err != nil {
		emitStage(progress, nil, StageAnalyse, StatusError, err, 0)
		return result, err
	}
	analyzer := &analyse.Analyzer{MaxDepth: req.MaxDepth, Logger: req.Logger}
	specs, err := analyzer.Analyse(ctx, ir)
	dur := timer.End(idx, fmt.Sprintf("%d specs", len(specs)))
	result.Timings.Set(StageAnalyse, dur)
	if err != nil {
		emitStage(progress, nil, StageAnalyse, StatusError, err, dur)
		return result, fmt.Errorf("analyse: %w", err)
	}
	result.Specs = specs
	files := specLabels(specs)
	emitQueued(req.Progress, files)
	emitStage(progress, files, StageAnalyse, StatusDone, nil, dur)

	// materialize
	idx = timer.Begin(string(StageMaterialize))
	emitStage(progress, files, StageMaterialize, StatusWorking, nil, 0)
	mgr := &workspace.Manager{
		FS:        osfs.New(outDir),
		Templates: req.Templates,
		Logger:    req.Logger,
	}
	report, err := mgr.Materialize(specs)
	if err != nil {
		dur = timer.End(idx, "")
		emitStage(progress, files, StageMaterialize, StatusError, err, dur)
		return result, fmt.Errorf("materialize: %w", err)
	}
	result.Report = report

	store := buildcache.Open(ManifestPath(outDir))
	next, current, err := planManifest(store, specs, &result, req.Logger)
	dur = timer.End(idx, fmt.Sprintf("%d fresh, %d removed", len(report.Fresh), len(report.Removed)))
	result.Timings.Set(StageMaterialize, dur)
	if err != nil {
		emitStage(progress, files, StageMaterialize, StatusError, err, dur)
		return result, err
	}
	emitStage(progress, files, StageMaterialize, StatusDone, nil, dur)

	// compile
	_, statErr := os.Stat(result.LibraryPath)
	libMissing := errors.Is(statErr, fs.ErrNotExist)
	if !report.Changed() && current && !libMissing {
		req.Logger.Info("shim library up to date", zap.String("lib", result.LibraryPath))
		emitStage(progress, files, StageCompile, StatusSkipped, nil, 0)
		return result, nil
	}
	// a manifest only exists next to a library built from it
	if err := store.Remove(); err != nil {
		return result, fmt.Errorf("failed to invalidate build manifest: %w", err)
	}
	idx = timer.Begin(string(StageCompile))
	emitStage(progress, files, StageCompile, StatusWorking, nil, 0)
	err = req.Compiler.Compile(ctx, CompileTarget{
		InterfaceDir: filepath.Join(outDir, workspace.InterfaceDir),
		LibDir:       filepath.Dir(result.LibraryPath),
	})
	dur = timer.End(idx, "")
	result.Timings.Set(StageCompile, dur)
	if err != nil {
		emitStage(progress, files, StageCompile, StatusError, err, dur)
		return result, fmt.Errorf("compile: %w", err)
	}
	if _, err := store.Save(next); err != nil {
		emitStage(progress, files, StageCompile, StatusError, err, dur)
		return result, fmt.Errorf("failed to write build manifest: %w", err)
	}
	result.Compiled = true
	emitStage(progress, files, StageCompile, StatusDone, nil, dur)
	return result, nil
}

// ManifestPath is where a build under outDir records its instantiations.
func ManifestPath(outDir string) string {
	return filepath.Join(outDir, workspace.InterfaceDir, buildcache.FileName)
}

// planManifest builds the manifest for specs, records the instantiations added
// and removed since the last successful build, and reports whether the stored
// manifest already matches.
func planManifest(store *buildcache.Store, specs []*specification.Specification, result *Result, logger *zap.Logger) (*buildcache.Manifest, bool, error) {
	prev, _, err := store.Load()
	if err != nil {
		// unreadable manifests are replaced
		logger.Warn("ignoring build manifest", zap.Error(err))
	}
	next, err := buildcache.FromSpecifications(specs)
	if err != nil {
		return nil, false, err
	}
	result.Added, result.Removed = buildcache.Diff(prev, next)
	for _, id := range result.Added {
		logger.Debug("new instantiation", zap.String("spec", id))
	}
	for _, id := range result.Removed {
		logger.Debug("dropped instantiation", zap.String("spec", id))
	}
	current, err := store.Current(next)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read build manifest: %w", err)
	}
	return next, current, nil
}

func specLabels(specs []*specification.Specification) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.NativeCode
	}
	return out
}
