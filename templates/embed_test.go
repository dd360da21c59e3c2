package templates

import (
	"archive/zip"
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdslbind/internal/meta"
)

func TestEmbeddedTreeHasSupportFiles(t *testing.T) {
	for _, name := range []string{
		"include/common.hpp",
		"lib/sdsl-lite.cmake",
		"miscellaneous/template_CMakeLists.txt",
	} {
		_, err := fs.Stat(FS(), name)
		assert.NoError(t, err, name)
	}
}

// Every replacement key must exist verbatim as a line of its template,
// otherwise substitution silently does nothing.
func TestReplacementKeysExistInTemplates(t *testing.T) {
	files := defaultFiles(t)
	require.NotEmpty(t, files)
	for _, f := range files {
		lines := readLines(t, f.TemplatePath())
		for from := range f.Replacements {
			assert.Contains(t, lines, from, "%s", f.TemplatePath())
		}
	}
}

func TestOpenArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("include/common.hpp")
	require.NoError(t, err)
	_, err = w.Write([]byte("#pragma once\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	a, err := OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()
	data, err := fs.ReadFile(a, "include/common.hpp")
	require.NoError(t, err)
	assert.Equal(t, "#pragma once\n", string(data))
}

func TestOpenArchiveRejectsForeignLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	_, err = zw.Create("README")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	_, err = OpenArchive(path)
	require.Error(t, err)
}

// defaultFiles collects file specifications covering every template.
func defaultFiles(t *testing.T) []meta.FileSpecification {
	t.Helper()
	var out []meta.FileSpecification
	add := func(d meta.Descriptor, values []string) {
		nested := make([][]meta.FileSpecification, len(values))
		files, err := d.FileSpecifications(values, nested, "test")
		require.NoError(t, err, d.Kind.String())
		out = append(out, files...)
	}
	add(meta.ByKind(meta.IntVector), []string{"8"})
	add(meta.ByKind(meta.BitVector), nil)
	add(meta.ByKind(meta.RrrVector), []string{"sdsl::int_vector<8>", "15", "32"})
	add(meta.ByKind(meta.RankSupportV), []string{"1, 1"})
	add(meta.ByKind(meta.SelectSupportMcl), []string{"0, 1"})
	add(meta.ByKind(meta.WtHuff), meta.ByKind(meta.WtHuff).DefaultNativeCode())
	add(meta.ByKind(meta.WtInt), meta.ByKind(meta.WtInt).DefaultNativeCode())
	add(meta.ByKind(meta.ByteTree), []string{"false"})
	return out
}

func readLines(t *testing.T, name string) []string {
	t.Helper()
	f, err := FS().Open(name)
	require.NoError(t, err, name)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	require.NoError(t, sc.Err())
	return lines
}
