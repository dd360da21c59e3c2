// Package buildcache records which instantiations the last build produced.
package buildcache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"sdslbind/internal/meta"
	"sdslbind/internal/specification"
)

// Current schema version - increment when Manifest format changes
const manifestSchemaVersion uint16 = 2

// FileName is the manifest location relative to the interface directory.
const FileName = "specs.mp"

// Entry describes one built instantiation.
type Entry struct {
	ID          string
	NativeCode  string
	Path        string
	Component   string
	Kind        uint8
	// NativeOrder maps each parameter, in declaration order, to its position
	// in the native template argument list.
	NativeOrder []uint8
	Files       []string
}

// Manifest is the msgpack document stored next to the generated sources.
type Manifest struct {
	Schema  uint16
	Count   uint32
	Entries []Entry
}

// Store reads and writes the manifest of one output directory.
// Thread-safe for concurrent access.
type Store struct {
	mu   sync.RWMutex
	path string
}

// Open returns the store for a manifest path.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the manifest location.
func (s *Store) Path() string {
	return s.path
}

// FromSpecifications builds a manifest, entries sorted by id.
func FromSpecifications(specs []*specification.Specification) (*Manifest, error) {
	count, err := safecast.Conv[uint32](len(specs))
	if err != nil {
		return nil, fmt.Errorf("too many specifications: %w", err)
	}
	m := &Manifest{Schema: manifestSchemaVersion, Count: count, Entries: make([]Entry, 0, len(specs))}
	for _, s := range specs {
		order, err := meta.NativeOrder(s.Descriptor.Parameters())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.ID, err)
		}
		e := Entry{
			ID:          s.ID,
			NativeCode:  s.NativeCode,
			Path:        s.Descriptor.Path(),
			Component:   s.Descriptor.Component(),
			Kind:        uint8(s.Descriptor.Kind),
			NativeOrder: order,
			Files:       make([]string, 0, len(s.Files)),
		}
		for _, f := range s.Files {
			e.Files = append(e.Files, f.TargetPath())
		}
		m.Entries = append(m.Entries, e)
	}
	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].ID < m.Entries[j].ID })
	return m, nil
}

// Save writes the manifest unless the stored bytes are already identical.
// It reports whether the file was written.
func (s *Store) Save(m *Manifest) (bool, error) {
	if s == nil || m == nil {
		return false, nil
	}
	data, err := msgpack.Marshal(m)
	if err != nil {
		return false, fmt.Errorf("failed to encode manifest: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := os.ReadFile(s.path)
	if err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return false, err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), "tmp-*")
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	defer func() {
		if _, statErr := os.Stat(tmp); statErr == nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	// atomic replace
	if err := os.Rename(tmp, s.path); err != nil {
		return false, err
	}
	return true, nil
}

// Current reports whether the stored manifest is byte-identical to m, that is
// whether Save(m) would write nothing.
func (s *Store) Current(m *Manifest) (bool, error) {
	if s == nil || m == nil {
		return false, nil
	}
	data, err := msgpack.Marshal(m)
	if err != nil {
		return false, fmt.Errorf("failed to encode manifest: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	old, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(old, data), nil
}

// Remove deletes the stored manifest. A missing manifest is not an error.
func (s *Store) Remove() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads the manifest. It returns false when there is none or when it was
// written by a different schema.
func (s *Store) Load() (*Manifest, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("failed to decode manifest %s: %w", s.path, err)
	}
	if m.Schema != manifestSchemaVersion {
		return nil, false, nil
	}
	return &m, true, nil
}

// Diff lists the ids present only in next and only in prev.
func Diff(prev, next *Manifest) (added, removed []string) {
	ids := func(m *Manifest) map[string]struct{} {
		out := make(map[string]struct{})
		if m != nil {
			for _, e := range m.Entries {
				out[e.ID] = struct{}{}
			}
		}
		return out
	}
	p, n := ids(prev), ids(next)
	for id := range n {
		if _, ok := p[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range p {
		if _, ok := n[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
