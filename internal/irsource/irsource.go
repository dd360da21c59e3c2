// Package irsource produces the textual IR the analyser scans.
package irsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultCommand asks cargo for the crate's MIR.
var DefaultCommand = []string{"cargo", "rustc", "--", "--emit=mir"}

// SkipEnv disables the shim build when set to "1". Emit sets it so the nested
// compiler invocation does not recurse into the build.
const SkipEnv = "SKIP_SDSL_BUILD"

const (
	buildDirName = "mir_build"
	irFileName   = "mir"
)

// Request describes one IR emission.
type Request struct {
	CrateDir string
	OutDir   string
	Command  []string
	// Env is appended to the inherited environment.
	Env []string
}

// Emit runs the IR command and copies the emitted file to OutDir/mir.
//
// A command that exits non-zero, or that leaves no IR file behind, is not an
// error: ok is false and the caller is expected to stop quietly.
func Emit(ctx context.Context, req Request) (path string, ok bool, err error) {
	command := req.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	targetDir := filepath.Join(req.OutDir, buildDirName)

	cmd := exec.CommandContext(ctx, command[0], command[1:]...) // #nosec G204 -- command comes from project config
	cmd.Dir = req.CrateDir
	cmd.Env = append(os.Environ(),
		"CARGO_TARGET_DIR="+targetDir,
		SkipEnv+"=1",
	)
	cmd.Env = append(cmd.Env, req.Env...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: %w", strings.Join(command, " "), err)
	}

	found, err := findIR(filepath.Join(targetDir, "debug", "deps"))
	if err != nil || found == "" {
		return "", false, err
	}
	dst := filepath.Join(req.OutDir, irFileName)
	if err := copyFile(found, dst); err != nil {
		return "", false, fmt.Errorf("failed to copy IR: %w", err)
	}
	return dst, true, nil
}

// Read loads IR text.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is the emitted IR or a user-supplied file
	if err != nil {
		return "", fmt.Errorf("failed to read IR: %w", err)
	}
	return string(data), nil
}

// findIR returns the first .mir file below dir in lexical order.
func findIR(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".mir" {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search for IR: %w", err)
	}
	return found, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) // #nosec G304
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
