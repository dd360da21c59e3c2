package sharedlib

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSymbolName(t *testing.T) {
	assert.Equal(t, "int_vector_create_abc", SymbolName("int_vector", "create", "abc"))
	assert.Equal(t, "store_to_file_abc", SymbolName("", "store_to_file", "abc"))

	b := &FunctionBuilder{Component: "rrr_vector", ID: "ff"}
	assert.Equal(t, "rrr_vector_get_int_ff", b.Name("get_int"))
}

func TestLoadMissingLibraryOnce(t *testing.T) {
	l := &Loader{Path: filepath.Join(t.TempDir(), "libsdsl_c.so")}

	var g errgroup.Group
	errs := make([]error, 16)
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = l.Load()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, err := range errs {
		require.Error(t, err)
		assert.Same(t, errs[0], err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(OutDirEnv, "/tmp/out")
	assert.Equal(t, filepath.Join("/tmp/out", "lib", libraryName()), DefaultPath())

	t.Setenv(OutDirEnv, "")
	assert.Empty(t, DefaultPath())
	_, err := (&Loader{}).Load()
	require.Error(t, err)
}

func loadLibc(t *testing.T) *Library {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("libc name is linux specific")
	}
	lib, err := (&Loader{Path: "libc.so.6"}).Load()
	if err != nil {
		t.Skipf("libc not loadable: %v", err)
	}
	return lib
}

func TestResolveMissingSymbol(t *testing.T) {
	lib := loadLibc(t)
	_, err := lib.Resolve("int_vector", "create", "0123")
	var se *SymbolError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "int_vector_create_0123", se.Name)
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}

func TestBindSymbol(t *testing.T) {
	lib := loadLibc(t)
	var strlen func(string) int
	require.NoError(t, lib.Bind(&strlen, "strlen"))
	assert.Equal(t, 5, strlen("hello"))

	first, err := lib.Lookup("strlen")
	require.NoError(t, err)
	second, err := lib.Lookup("strlen")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
