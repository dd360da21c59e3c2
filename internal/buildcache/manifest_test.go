package buildcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"sdslbind/internal/meta"
	"sdslbind/internal/specification"
)

func spec(t *testing.T, width string) *specification.Specification {
	t.Helper()
	s, err := specification.Build(meta.ByKind(meta.IntVector), []string{width}, nil)
	require.NoError(t, err)
	return s
}

func TestSaveLoad(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "sdsl-c", FileName))
	m, err := FromSpecifications([]*specification.Specification{spec(t, "28"), spec(t, "8")})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), m.Count)
	assert.Less(t, m.Entries[0].ID, m.Entries[1].ID)

	written, err := store.Save(m)
	require.NoError(t, err)
	assert.True(t, written)

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m.Entries, got.Entries)
	assert.Equal(t, "int_vector", got.Entries[0].Component)
	assert.Contains(t, got.Entries[0].Files, "include/int_vector_"+got.Entries[0].ID+".hpp")
}

func TestSaveSkipsIdenticalManifest(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), FileName))
	m, err := FromSpecifications([]*specification.Specification{spec(t, "28")})
	require.NoError(t, err)

	written, err := store.Save(m)
	require.NoError(t, err)
	require.True(t, written)
	info, err := os.Stat(store.Path())
	require.NoError(t, err)

	written, err = store.Save(m)
	require.NoError(t, err)
	assert.False(t, written)
	again, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestLoadMissing(t *testing.T) {
	_, ok, err := Open(filepath.Join(t.TempDir(), FileName)).Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadIgnoresOtherSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data, err := msgpack.Marshal(&Manifest{Schema: manifestSchemaVersion + 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, ok, err := Open(path).Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	a, err := FromSpecifications([]*specification.Specification{spec(t, "1"), spec(t, "2")})
	require.NoError(t, err)
	b, err := FromSpecifications([]*specification.Specification{spec(t, "2"), spec(t, "3")})
	require.NoError(t, err)

	added, removed := Diff(a, b)
	assert.Equal(t, []string{spec(t, "3").ID}, added)
	assert.Equal(t, []string{spec(t, "1").ID}, removed)

	added, removed = Diff(nil, a)
	assert.Len(t, added, 2)
	assert.Empty(t, removed)
}

func TestCurrentAndRemove(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), FileName))
	m, err := FromSpecifications([]*specification.Specification{spec(t, "28")})
	require.NoError(t, err)

	current, err := store.Current(m)
	require.NoError(t, err)
	assert.False(t, current, "no manifest stored yet")

	_, err = store.Save(m)
	require.NoError(t, err)
	current, err = store.Current(m)
	require.NoError(t, err)
	assert.True(t, current)

	other, err := FromSpecifications([]*specification.Specification{spec(t, "28"), spec(t, "3")})
	require.NoError(t, err)
	current, err = store.Current(other)
	require.NoError(t, err)
	assert.False(t, current)

	require.NoError(t, store.Remove())
	require.NoError(t, store.Remove())
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntryRecordsNativeOrder(t *testing.T) {
	inner := spec(t, "28")
	rrr, err := specification.Build(meta.ByKind(meta.RrrVector),
		[]string{"sdsl::int_vector::IntVector<28_u8>", "10", "2"},
		map[int]*specification.Specification{0: inner})
	require.NoError(t, err)

	m, err := FromSpecifications([]*specification.Specification{rrr})
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, []uint8{1, 0, 2}, m.Entries[0].NativeOrder)
	assert.Equal(t, "sdsl::rrr_vector<10, sdsl::int_vector<28>, 2>", m.Entries[0].NativeCode)
}
