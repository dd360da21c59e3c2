package buildpipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCMakeArgs(t *testing.T) {
	c := &CMake{Options: NativeOptions{Generator: "Ninja", Jobs: 4}}
	target := CompileTarget{InterfaceDir: "/out/sdsl-c", LibDir: "/out/lib"}

	assert.Equal(t, []string{
		"-S", "/out/sdsl-c",
		"-B", filepath.Join("/out/sdsl-c", "build"),
		"-DCMAKE_BUILD_TYPE=Release",
		"-DSDSL_C_OUTPUT_DIR=/out/lib",
		"-G", "Ninja",
	}, c.configureArgs(target))
	assert.Equal(t, []string{
		"--build", filepath.Join("/out/sdsl-c", "build"),
		"--config", "Release",
		"--parallel", "4",
	}, c.buildArgs(target))
}

func TestCMakeFailureCarriesExitCode(t *testing.T) {
	c := &CMake{Options: NativeOptions{CMake: "false", BuildType: "Debug"}}
	err := c.Compile(context.Background(), CompileTarget{
		InterfaceDir: t.TempDir(),
		LibDir:       filepath.Join(t.TempDir(), "lib"),
	})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "false", ce.Tool)
	assert.Equal(t, 1, ce.ExitCode)
}

func TestCMakeMissingBinary(t *testing.T) {
	c := &CMake{Options: NativeOptions{CMake: "definitely-not-a-cmake-binary"}}
	err := c.Compile(context.Background(), CompileTarget{InterfaceDir: t.TempDir(), LibDir: t.TempDir()})
	require.Error(t, err)
	var ce *CompileError
	assert.NotErrorAs(t, err, &ce)
}

func TestTimings(t *testing.T) {
	var tm Timings
	assert.False(t, tm.Has(StageCompile))
	tm.Set(StageAnalyse, 2)
	tm.Set(StageCompile, 3)
	assert.True(t, tm.Has(StageCompile))
	assert.EqualValues(t, 5, tm.Sum(StageAnalyse, StageCompile, StageDiscover))
}
