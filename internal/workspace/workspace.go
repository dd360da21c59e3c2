// Package workspace materializes native sources for a set of specifications
// into the output directory and keeps that directory free of stale files.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"sdslbind/internal/meta"
	"sdslbind/internal/specification"
)

const (
	// TemplateDir holds the unpacked template tree.
	TemplateDir = "templates"
	// InterfaceDir is the CMake project the shims are compiled from.
	InterfaceDir = "sdsl-c"
	// ProtectedHeader is shared by every instantiation and never cleaned.
	ProtectedHeader = "include/common.hpp"

	cmakeTemplate = "miscellaneous/template_CMakeLists.txt"
	libDir        = "lib"

	dirPerm  = 0o750
	filePerm = 0o600
)

// State is the lifecycle position of a Manager.
type State uint8

const (
	Uninitialized State = iota
	StaticFilesReady
	SourceFilesPlaced
	Substituted
	Cleaned
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case StaticFilesReady:
		return "static-files-ready"
	case SourceFilesPlaced:
		return "source-files-placed"
	case Substituted:
		return "substituted"
	case Cleaned:
		return "cleaned"
	default:
		return "unknown"
	}
}

// ErrOutOfOrder is returned when a step runs before its predecessor.
var ErrOutOfOrder = errors.New("workspace step out of order")

// AssetError reports a template file missing from the template tree.
type AssetError struct {
	Path string
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("template %s not found", e.Path)
}

// Report summarizes one materialization, paths relative to the output directory.
type Report struct {
	Fresh   []string
	Kept    []string
	Removed []string
}

// Changed reports whether any file was written or removed.
func (r Report) Changed() bool {
	return len(r.Fresh) > 0 || len(r.Removed) > 0
}

// Manager owns the output directory layout.
//
// FS is rooted at the output directory. Templates is read once, on the first
// SetupStatic, and unpacked under TemplateDir.
type Manager struct {
	FS        billy.Filesystem
	Templates fs.FS
	Logger    *zap.Logger

	state  State
	keep   map[string]struct{}
	fresh  map[string]meta.FileSpecification
	order  []string
	report Report
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

func (m *Manager) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

// Materialize runs every step for specs and reports what changed.
func (m *Manager) Materialize(specs []*specification.Specification) (Report, error) {
	if err := m.SetupStatic(); err != nil {
		return Report{}, err
	}
	if err := m.Place(specs); err != nil {
		return Report{}, err
	}
	if err := m.Substitute(); err != nil {
		return Report{}, err
	}
	if err := m.Clean(); err != nil {
		return Report{}, err
	}
	m.logger().Info("materialized workspace",
		zap.Int("fresh", len(m.report.Fresh)),
		zap.Int("kept", len(m.report.Kept)),
		zap.Int("removed", len(m.report.Removed)),
	)
	return m.report, nil
}

// SetupStatic prepares the files every build shares. Existing files are left
// untouched.
func (m *Manager) SetupStatic() error {
	if !m.exists(TemplateDir) {
		if m.Templates == nil {
			return &AssetError{Path: TemplateDir}
		}
		if err := m.unpack(); err != nil {
			return fmt.Errorf("failed to unpack templates: %w", err)
		}
	}
	for _, dir := range []string{"include", "src"} {
		if err := m.ensureDir(path.Join(InterfaceDir, dir)); err != nil {
			return err
		}
	}
	if !m.exists(path.Join(InterfaceDir, libDir)) {
		if err := m.copyTree(path.Join(TemplateDir, libDir), path.Join(InterfaceDir, libDir)); err != nil {
			return fmt.Errorf("failed to copy native support sources: %w", err)
		}
	}
	statics := map[string]string{
		path.Join(InterfaceDir, "CMakeLists.txt"): path.Join(TemplateDir, cmakeTemplate),
		path.Join(InterfaceDir, ProtectedHeader):  path.Join(TemplateDir, ProtectedHeader),
	}
	for dst, src := range statics {
		if m.exists(dst) {
			continue
		}
		if err := m.copyFile(src, dst); err != nil {
			return err
		}
	}

	m.state = StaticFilesReady
	m.keep = make(map[string]struct{})
	m.fresh = make(map[string]meta.FileSpecification)
	m.order = nil
	m.report = Report{}
	return nil
}

// Place copies the template of every file spec whose destination does not
// exist yet and records the full keep-set. Every template is checked before
// anything is copied; on a failed copy the files placed so far are removed.
func (m *Manager) Place(specs []*specification.Specification) error {
	if m.state != StaticFilesReady {
		return fmt.Errorf("%w: place in state %s", ErrOutOfOrder, m.state)
	}
	type placement struct {
		spec string
		dst  string
		file meta.FileSpecification
	}
	var pending []placement
	for _, s := range specs {
		for _, f := range s.Files {
			dst := path.Join(InterfaceDir, f.TargetPath())
			if _, seen := m.keep[dst]; seen {
				continue
			}
			m.keep[dst] = struct{}{}
			if m.exists(dst) {
				m.report.Kept = append(m.report.Kept, dst)
				continue
			}
			if !m.exists(path.Join(TemplateDir, f.TemplatePath())) {
				return &AssetError{Path: f.TemplatePath()}
			}
			pending = append(pending, placement{spec: s.ID, dst: dst, file: f})
		}
	}
	for _, p := range pending {
		if err := m.copyFile(path.Join(TemplateDir, p.file.TemplatePath()), p.dst); err != nil {
			m.discardFresh()
			return err
		}
		m.fresh[p.dst] = p.file
		m.order = append(m.order, p.dst)
		m.report.Fresh = append(m.report.Fresh, p.dst)
		m.logger().Debug("placed template",
			zap.String("spec", p.spec),
			zap.String("file", p.dst),
		)
	}
	m.state = SourceFilesPlaced
	return nil
}

// discardFresh removes the files placed by this run, which would otherwise be
// kept unsubstituted by the next one.
func (m *Manager) discardFresh() {
	for _, dst := range m.order {
		if err := m.FS.Remove(dst); err != nil && !os.IsNotExist(err) {
			m.logger().Warn("failed to remove partially placed file", zap.String("file", dst), zap.Error(err))
		}
	}
	m.fresh = make(map[string]meta.FileSpecification)
	m.order = nil
	m.report.Fresh = nil
}

// Substitute rewrites the freshly placed files, headers before sources.
// Kept files are never touched, so a replacement is applied at most once. On
// failure every fresh file is removed.
func (m *Manager) Substitute() error {
	if m.state != SourceFilesPlaced {
		return fmt.Errorf("%w: substitute in state %s", ErrOutOfOrder, m.state)
	}
	for _, kind := range []meta.FileKind{meta.FileHeader, meta.FileSource} {
		for _, dst := range m.order {
			f := m.fresh[dst]
			if f.Kind != kind {
				continue
			}
			if err := m.substituteFile(dst, f.ReplacementPairs()); err != nil {
				m.discardFresh()
				return err
			}
		}
	}
	m.state = Substituted
	return nil
}

func (m *Manager) substituteFile(name string, pairs []meta.ReplacementPair) error {
	data, err := m.readFile(name)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		for _, p := range pairs {
			line = strings.ReplaceAll(line, p.From, p.To)
		}
		lines[i] = line
	}
	out := strings.Join(lines, "\n")
	if out == string(data) {
		return nil
	}
	if err := util.WriteFile(m.FS, name, []byte(out), filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Clean removes generated files no current specification needs and prunes
// the directories they leave empty.
func (m *Manager) Clean() error {
	if m.state != Substituted {
		return fmt.Errorf("%w: clean in state %s", ErrOutOfOrder, m.state)
	}
	protected := path.Join(InterfaceDir, ProtectedHeader)
	for _, root := range []string{"include", "src"} {
		dir := path.Join(InterfaceDir, root)
		files, dirs, err := m.list(dir)
		if err != nil {
			return err
		}
		for _, name := range files {
			if _, ok := m.keep[name]; ok || name == protected {
				continue
			}
			if err := m.FS.Remove(name); err != nil {
				return fmt.Errorf("failed to remove stale %s: %w", name, err)
			}
			m.report.Removed = append(m.report.Removed, name)
			m.logger().Debug("removed stale file", zap.String("file", name))
		}
		// deepest first so parents empty out after their children
		sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
		for _, d := range dirs {
			entries, err := m.FS.ReadDir(d)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", d, err)
			}
			if len(entries) == 0 {
				if err := m.FS.Remove(d); err != nil {
					return fmt.Errorf("failed to remove empty %s: %w", d, err)
				}
			}
		}
	}
	sort.Strings(m.report.Removed)
	m.state = Cleaned
	return nil
}

// list returns every file and subdirectory below dir.
func (m *Manager) list(dir string) (files, dirs []string, err error) {
	entries, err := m.FS.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		name := path.Join(dir, e.Name())
		if !e.IsDir() {
			files = append(files, name)
			continue
		}
		dirs = append(dirs, name)
		subFiles, subDirs, err := m.list(name)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, subFiles...)
		dirs = append(dirs, subDirs...)
	}
	return files, dirs, nil
}

func (m *Manager) unpack() error {
	return fs.WalkDir(m.Templates, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := path.Join(TemplateDir, p)
		if d.IsDir() {
			return m.ensureDir(dst)
		}
		data, err := fs.ReadFile(m.Templates, p)
		if err != nil {
			return err
		}
		return util.WriteFile(m.FS, dst, data, filePerm)
	})
}

func (m *Manager) copyTree(src, dst string) error {
	files, _, err := m.list(src)
	if err != nil {
		return err
	}
	if files == nil {
		return &AssetError{Path: src}
	}
	for _, name := range files {
		rel := strings.TrimPrefix(name, src+"/")
		if err := m.copyFile(name, path.Join(dst, rel)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) copyFile(src, dst string) error {
	data, err := m.readFile(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &AssetError{Path: strings.TrimPrefix(src, TemplateDir+"/")}
		}
		return err
	}
	if err := m.ensureDir(path.Dir(dst)); err != nil {
		return err
	}
	if err := util.WriteFile(m.FS, dst, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

func (m *Manager) readFile(name string) ([]byte, error) {
	f, err := m.FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (m *Manager) ensureDir(dir string) error {
	if m.exists(dir) {
		return nil
	}
	if err := m.FS.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

func (m *Manager) exists(name string) bool {
	_, err := m.FS.Stat(name)
	return err == nil
}
