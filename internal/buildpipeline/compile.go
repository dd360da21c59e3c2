package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NativeOptions configures the native build of the shim library.
type NativeOptions struct {
	// CMake is the cmake executable, "cmake" when empty.
	CMake     string
	BuildType string
	Generator string
	Jobs      int
	// PrintCommands echoes every command before it runs.
	PrintCommands bool
}

// CompileTarget locates the project a Compiler builds.
type CompileTarget struct {
	// InterfaceDir holds CMakeLists.txt and the generated sources.
	InterfaceDir string
	// LibDir receives the shared library.
	LibDir string
}

// Compiler builds the shared library from a materialized workspace.
type Compiler interface {
	Compile(ctx context.Context, target CompileTarget) error
}

// CompileError reports a native build tool that exited unsuccessfully.
// Stderr is captured but never printed.
type CompileError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

// CMake compiles the workspace with a configure and a build step.
type CMake struct {
	Options NativeOptions
	Logger  *zap.Logger
}

func (c *CMake) binary() string {
	if c.Options.CMake == "" {
		return "cmake"
	}
	return c.Options.CMake
}

func (c *CMake) buildType() string {
	if c.Options.BuildType == "" {
		return "Release"
	}
	return c.Options.BuildType
}

func (c *CMake) configureArgs(target CompileTarget) []string {
	args := []string{
		"-S", target.InterfaceDir,
		"-B", filepath.Join(target.InterfaceDir, "build"),
		"-DCMAKE_BUILD_TYPE=" + c.buildType(),
		"-DSDSL_C_OUTPUT_DIR=" + target.LibDir,
	}
	if c.Options.Generator != "" {
		args = append(args, "-G", c.Options.Generator)
	}
	return args
}

func (c *CMake) buildArgs(target CompileTarget) []string {
	args := []string{"--build", filepath.Join(target.InterfaceDir, "build"), "--config", c.buildType()}
	if c.Options.Jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(c.Options.Jobs))
	}
	return args
}

// Compile configures and builds the project.
func (c *CMake) Compile(ctx context.Context, target CompileTarget) error {
	if _, err := exec.LookPath(c.binary()); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", c.binary(), err)
	}
	if err := os.MkdirAll(target.LibDir, 0o750); err != nil {
		return fmt.Errorf("failed to create library dir: %w", err)
	}
	for _, args := range [][]string{c.configureArgs(target), c.buildArgs(target)} {
		if c.Logger != nil {
			c.Logger.Debug("running", zap.String("cmd", c.binary()), zap.Strings("args", args))
		}
		if err := runCommand(ctx, c.Options.PrintCommands, c.binary(), args...); err != nil {
			return err
		}
	}
	return nil
}

// LibraryName is the platform file name of the shim library.
func LibraryName() string {
	if runtime.GOOS == "darwin" {
		return "libsdsl_c.dylib"
	}
	return "libsdsl_c.so"
}

// LibraryPath is where a build under outDir leaves the shim library.
func LibraryPath(outDir string) string {
	return filepath.Join(outDir, "lib", LibraryName())
}

func runCommand(ctx context.Context, printCommands bool, name string, args ...string) error {
	if printCommands {
		_, printErr := fmt.Fprintf(os.Stdout, "%s %s\n", name, strings.Join(args, " "))
		if printErr != nil {
			return fmt.Errorf("failed to print command: %w", printErr)
		}
	}
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool and args come from build configuration
	cmd.Stdout = io.Discard
	if printCommands {
		cmd.Stdout = os.Stdout
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CompileError{Tool: name, ExitCode: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageAnalyse, Status: StatusQueued})
	}
}
