// Package sharedlib loads the generated shim library and resolves the C-ABI
// functions of individual instantiations.
//
// The library is opened at most once per Loader. Symbols follow the naming
// `{component}_{function}_{id}`, or `{function}_{id}` for helpers shared by every
// component such as store_to_file.
package sharedlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// OutDirEnv names the build output directory at run time.
const OutDirEnv = "SDSL_OUT_DIR"

// ErrSymbolNotFound is wrapped by every failed symbol lookup.
var ErrSymbolNotFound = errors.New("symbol not found")

// SymbolError reports a symbol missing from the loaded library.
type SymbolError struct {
	Name string
	Path string
	Err  error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Name, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// SymbolName renders the exported name of an instantiation's function.
func SymbolName(component, function, id string) string {
	if component == "" {
		return function + "_" + id
	}
	return component + "_" + function + "_" + id
}

// Loader opens one shared library lazily.
type Loader struct {
	Path string

	once sync.Once
	lib  *Library
	err  error
}

// Load opens the library on first use; later and concurrent callers get the
// same result.
func (l *Loader) Load() (*Library, error) {
	l.once.Do(func() {
		l.lib, l.err = open(l.Path)
	})
	return l.lib, l.err
}

var (
	defaultOnce   sync.Once
	defaultLoader *Loader
)

// Default returns the process-wide loader for $SDSL_OUT_DIR/lib.
func Default() *Loader {
	defaultOnce.Do(func() {
		defaultLoader = &Loader{Path: DefaultPath()}
	})
	return defaultLoader
}

// DefaultPath is the library location derived from the environment, empty
// when SDSL_OUT_DIR is unset.
func DefaultPath() string {
	dir := os.Getenv(OutDirEnv)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "lib", libraryName())
}

func libraryName() string {
	if runtime.GOOS == "darwin" {
		return "libsdsl_c.dylib"
	}
	return "libsdsl_c.so"
}

// Library is an opened shim library.
type Library struct {
	path   string
	handle uintptr

	mu      sync.Mutex
	symbols map[string]uintptr
}

func open(path string) (*Library, error) {
	if path == "" {
		return nil, fmt.Errorf("shim library location unknown: %s is not set", OutDirEnv)
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return &Library{path: path, handle: handle, symbols: make(map[string]uintptr)}, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Resolve returns the address of an instantiation's function.
func (l *Library) Resolve(component, function, id string) (uintptr, error) {
	return l.Lookup(SymbolName(component, function, id))
}

// Lookup returns the address of an exported symbol.
func (l *Library) Lookup(name string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if addr, ok := l.symbols[name]; ok {
		return addr, nil
	}
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil || addr == 0 {
		return 0, &SymbolError{Name: name, Path: l.path, Err: ErrSymbolNotFound}
	}
	l.symbols[name] = addr
	return addr, nil
}

// Close releases the library. Function values bound from it must not be
// called afterwards.
func (l *Library) Close() error {
	return purego.Dlclose(l.handle)
}

// FunctionBuilder binds the functions of one instantiation.
type FunctionBuilder struct {
	Lib       *Library
	Component string
	ID        string
}

// NewFunctionBuilder returns a builder for one instantiation.
func NewFunctionBuilder(lib *Library, component, id string) *FunctionBuilder {
	return &FunctionBuilder{Lib: lib, Component: component, ID: id}
}

// Name returns the symbol name of function.
func (b *FunctionBuilder) Name(function string) string {
	return SymbolName(b.Component, function, b.ID)
}

// Bind points fptr, a pointer to a func variable, at the named function.
func (b *FunctionBuilder) Bind(fptr any, function string) error {
	return b.Lib.Bind(fptr, b.Name(function))
}

// Bind points fptr, a pointer to a func variable, at an exported symbol.
func (l *Library) Bind(fptr any, name string) error {
	addr, err := l.Lookup(name)
	if err != nil {
		return err
	}
	purego.RegisterFunc(fptr, addr)
	return nil
}
