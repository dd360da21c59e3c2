package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"sdslbind/internal/buildpipeline"
	"sdslbind/sharedlib"
)

const manifestName = "sdsl.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Build   buildConfig   `toml:"build"`
	Native  nativeConfig  `toml:"native"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type buildConfig struct {
	OutDir    string   `toml:"out_dir"`
	IRCommand []string `toml:"ir_command"`
	Templates string   `toml:"templates"`
}

type nativeConfig struct {
	CMake     string `toml:"cmake"`
	BuildType string `toml:"build_type"`
	Generator string `toml:"generator"`
	Jobs      int    `toml:"jobs"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if cfg.Native.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [native].jobs must not be negative", path)
	}
	return cfg, nil
}

// projectSettings is the effective configuration after applying the manifest,
// the environment and flags, in that order.
type projectSettings struct {
	CrateDir  string
	OutDir    string
	IRCommand []string
	Templates string
	Native    buildpipeline.NativeOptions
}

func resolveSettings(crateDir string, manifest *projectManifest) (projectSettings, error) {
	if crateDir == "" {
		crateDir = "."
	}
	abs, err := filepath.Abs(crateDir)
	if err != nil {
		return projectSettings{}, fmt.Errorf("failed to resolve crate directory: %w", err)
	}
	s := projectSettings{
		CrateDir: abs,
		OutDir:   filepath.Join(abs, "target", "sdsl"),
	}
	if env := os.Getenv(sharedlib.OutDirEnv); env != "" {
		s.OutDir = env
	}
	if manifest == nil {
		return s, nil
	}
	cfg := manifest.Config
	if cfg.Build.OutDir != "" {
		s.OutDir = manifestRelative(manifest, cfg.Build.OutDir)
	}
	if cfg.Build.Templates != "" {
		s.Templates = manifestRelative(manifest, cfg.Build.Templates)
	}
	s.IRCommand = cfg.Build.IRCommand
	s.Native = buildpipeline.NativeOptions{
		CMake:     cfg.Native.CMake,
		BuildType: cfg.Native.BuildType,
		Generator: cfg.Native.Generator,
		Jobs:      cfg.Native.Jobs,
	}
	return s, nil
}

func manifestRelative(manifest *projectManifest, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(manifest.Root, p)
}
