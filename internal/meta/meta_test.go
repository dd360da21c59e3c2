package meta

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeIndexIsPermutation(t *testing.T) {
	for _, d := range Descriptors() {
		params := d.Parameters()
		seen := make([]bool, len(params))
		for i, p := range params {
			assert.Equal(t, i, p.Index, "%s: parameters must be in declaration order", d.Kind)
			require.GreaterOrEqual(t, p.NativeIndex, 0)
			require.Less(t, p.NativeIndex, len(params), "%s", d.Kind)
			assert.False(t, seen[p.NativeIndex], "%s: native index %d used twice", d.Kind, p.NativeIndex)
			seen[p.NativeIndex] = true
		}
		order, err := NativeOrder(params)
		require.NoError(t, err)
		assert.Len(t, order, len(params))
	}
}

func TestNativeCodeReordersParameters(t *testing.T) {
	got, err := ByKind(RrrVector).NativeCode([]string{"sdsl::int_vector<28>", "10", "2"})
	require.NoError(t, err)
	assert.Equal(t, "sdsl::rrr_vector<10, sdsl::int_vector<28>, 2>", got)

	got, err = ByKind(IntVector).NativeCode([]string{"28"})
	require.NoError(t, err)
	assert.Equal(t, "sdsl::int_vector<28>", got)
}

func TestNativeCodeMarkers(t *testing.T) {
	cases := map[Kind]string{
		P0:                 "0, 1",
		P1:                 "1, 1",
		P10:                "10, 2",
		P01:                "1, 2",
		BreadthFirstSearch: "false",
		BitVector:          "sdsl::bit_vector",
	}
	for kind, want := range cases {
		got, err := ByKind(kind).NativeCode(nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, kind.String())
	}
}

func TestNativeCodeArityMismatch(t *testing.T) {
	_, err := ByKind(RrrVector).NativeCode([]string{"10"})
	require.Error(t, err)
	_, err = ByKind(P1).NativeCode([]string{"1"})
	require.Error(t, err)
}

func TestTargetFileName(t *testing.T) {
	got, err := TargetFileName("bit_vectors/rrr_vector.hpp", "abc")
	require.NoError(t, err)
	assert.Equal(t, "bit_vectors/rrr_vector_abc.hpp", got)

	got, err = TargetFileName("io.cpp", "0f")
	require.NoError(t, err)
	assert.Equal(t, "io_0f.cpp", got)

	_, err = TargetFileName("Makefile", "abc")
	require.Error(t, err)
}

func TestContentID(t *testing.T) {
	a := ContentID("sdsl::int_vector<28>")
	assert.Len(t, a, IDLength)
	assert.Equal(t, a, ContentID("sdsl::int_vector<28>"))
	assert.NotEqual(t, a, ContentID("sdsl::int_vector<29>"))
}

func TestIntVectorFiles(t *testing.T) {
	files, err := ByKind(IntVector).FileSpecifications([]string{"28"}, [][]FileSpecification{nil}, "x")
	require.NoError(t, err)
	require.Len(t, files, 6)

	hdr := files[0]
	assert.Equal(t, FileHeader, hdr.Kind)
	assert.Equal(t, "int_vector_x.hpp", hdr.TargetFileName)
	assert.Equal(t, "#define INT_VECTOR_TEMPLATE 28", hdr.Replacements["#define INT_VECTOR_TEMPLATE 0"])
	assert.Equal(t, "#define INT_VECTOR_ID _x", hdr.Replacements["#define INT_VECTOR_ID _id"])

	src := files[1]
	assert.Equal(t, FileSource, src.Kind)
	assert.Equal(t, "src/int_vector_x.cpp", src.TargetPath())
	assert.Equal(t, `#include "int_vector_x.hpp"`, src.Replacements[`#include "int_vector.hpp"`])

	var io FileSpecification
	for _, f := range files {
		if f.TemplateFileName == "io.hpp" {
			io = f
		}
	}
	assert.Equal(t, "#define STRUCTURE sdsl::int_vector<28>", io.Replacements[structureSentinel])
}

func TestMarkersHaveNoFiles(t *testing.T) {
	for _, kind := range []Kind{P0, P1, P10, P01, BreadthFirstSearch} {
		files, err := ByKind(kind).FileSpecifications(nil, nil, "x")
		require.NoError(t, err)
		assert.Empty(t, files, kind.String())
		assert.Empty(t, ByKind(kind).Component())
		assert.Nil(t, ByKind(kind).Exports())
	}
}

func TestRrrVectorSplicesNestedFiles(t *testing.T) {
	inner, err := ByKind(IntVector).FileSpecifications([]string{"28"}, [][]FileSpecification{nil}, "inner")
	require.NoError(t, err)

	files, err := ByKind(RrrVector).FileSpecifications(
		[]string{"sdsl::int_vector<28>", "10", "2"},
		[][]FileSpecification{inner, nil, nil},
		"outer",
	)
	require.NoError(t, err)
	assert.Equal(t, "bit_vectors/rrr_vector_outer.hpp", files[0].TargetFileName)
	assert.Equal(t,
		"#define RRR_VECTOR_TEMPLATE 10, sdsl::int_vector<28>, 2",
		files[0].Replacements["#define RRR_VECTOR_TEMPLATE 63, sdsl::int_vector<>, 32"])
	for _, f := range inner {
		assert.Contains(t, files, f)
	}
	bv := ContentID("sdsl::bit_vector")
	assert.True(t, hasTarget(files, "bit_vector_"+bv+".hpp"))
}

func TestHeadersPrecedeTheirSources(t *testing.T) {
	inner, err := ByKind(IntVector).FileSpecifications([]string{"4"}, [][]FileSpecification{nil}, "i")
	require.NoError(t, err)
	files, err := ByKind(RrrVector).FileSpecifications(
		[]string{"sdsl::int_vector<4>", "15", "32"},
		[][]FileSpecification{inner, nil, nil},
		"o",
	)
	require.NoError(t, err)

	index := make(map[string]int, len(files))
	for i, f := range files {
		if _, dup := index[f.TargetFileName]; !dup {
			index[f.TargetFileName] = i
		}
	}
	for i, f := range files {
		if f.Kind != FileSource {
			continue
		}
		for _, to := range f.Replacements {
			hdr := strings.TrimSuffix(strings.TrimPrefix(to, `#include "`), `"`)
			pos, ok := index[hdr]
			require.True(t, ok, "source %s includes unknown header %s", f.TargetFileName, hdr)
			assert.Less(t, pos, i)
		}
	}
}

func TestReplacementPairsSorted(t *testing.T) {
	files, err := ByKind(WtHuff).FileSpecifications(
		ByKind(WtHuff).DefaultNativeCode(),
		make([][]FileSpecification, 5),
		"w",
	)
	require.NoError(t, err)
	pairs := files[0].ReplacementPairs()
	require.NotEmpty(t, pairs)
	assert.True(t, sort.SliceIsSorted(pairs, func(i, j int) bool { return pairs[i].From < pairs[j].From }))
}

func TestWtHuffSharesByteTreeHeader(t *testing.T) {
	tree, err := ByKind(ByteTree).FileSpecifications([]string{"false"}, [][]FileSpecification{nil}, "b")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, tree[0].TemplateFileName, tree[0].TargetFileName)

	nested := make([][]FileSpecification, 5)
	nested[4] = tree
	files, err := ByKind(WtHuff).FileSpecifications(ByKind(WtHuff).DefaultNativeCode(), nested, "w")
	require.NoError(t, err)
	assert.Contains(t, files, tree[0])
	for _, f := range files {
		_, rewritten := f.Replacements[includeLine(byteTreeHeader)]
		assert.False(t, rewritten, f.TargetFileName)
	}
}

func TestDefaultNativeCodeArity(t *testing.T) {
	for _, d := range Descriptors() {
		assert.Len(t, d.DefaultNativeCode(), len(d.Parameters()), d.Kind.String())
	}
}

func TestExports(t *testing.T) {
	exports := ByKind(IntVector).Exports()
	assert.Contains(t, exports, Export{Component: "int_vector", Function: "width"})
	assert.Contains(t, exports, Export{Function: "store_to_file"})
	assert.Contains(t, exports, Export{Function: "bit_compress"})

	rrr := ByKind(RrrVector).Exports()
	assert.Contains(t, rrr, Export{Component: "rrr_vector", Function: "get_int"})
	assert.NotContains(t, rrr, Export{Function: "bit_compress"})
}

func TestByPath(t *testing.T) {
	for _, d := range Descriptors() {
		got, ok := ByPath(d.Path())
		require.True(t, ok, d.Kind.String())
		assert.Equal(t, d, got)
	}
	_, ok := ByPath("sdsl::nope::Nope")
	assert.False(t, ok)
}

func hasTarget(files []FileSpecification, target string) bool {
	for _, f := range files {
		if f.TargetFileName == target {
			return true
		}
	}
	return false
}
