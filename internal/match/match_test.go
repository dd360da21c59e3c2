package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdslbind/internal/meta"
)

func TestBuildIntVector(t *testing.T) {
	re, err := Build(meta.ByKind(meta.IntVector))
	require.NoError(t, err)
	require.NotNil(t, re.All)
	assert.Empty(t, re.Shorter)
	assert.Nil(t, re.NoParams)

	caps := Scan("_3 = move (_4: sdsl::int_vector::IntVector<28_u8>);\nlet _5: &sdsl::int_vector::IntVector<const 64_u8>;", meta.ByKind(meta.IntVector), re.All)
	require.Len(t, caps, 1)
	assert.Equal(t, []string{"64"}, caps[0].Values)

	caps = Scan("let _1: sdsl::int_vector::IntVector<28_u8>;", meta.ByKind(meta.IntVector), re.All)
	require.Len(t, caps, 1)
	assert.Equal(t, []string{"28"}, caps[0].Values)
}

func TestBuildWithoutParameters(t *testing.T) {
	re, err := Build(meta.ByKind(meta.BitVector))
	require.NoError(t, err)
	assert.Nil(t, re.All)
	assert.Empty(t, re.Shorter)
	require.NotNil(t, re.NoParams)
	assert.True(t, Matches("let _2: sdsl::bit_vectors::BitVector;", re.NoParams))
	assert.False(t, Matches("let _2: sdsl::bit_vectors::BitVectorExt;", re.NoParams))
}

func TestBuildDefaultedParameters(t *testing.T) {
	d := meta.ByKind(meta.WtHuff)
	re, err := Build(d)
	require.NoError(t, err)
	require.NotNil(t, re.All)
	require.Len(t, re.Shorter, 4)
	require.NotNil(t, re.NoParams)
	assert.Len(t, re.Parameterized(), 5)

	assert.True(t, Matches("let _1: sdsl::wavelet_trees::WtHuff;", re.NoParams))

	ir := "let _1: sdsl::wavelet_trees::WtHuff<sdsl::bit_vectors::BitVector, sdsl::rank_supports::RankSupportV<sdsl::bit_patterns::P1>>;"
	caps := Scan(ir, d, re.Shorter[2])
	require.Len(t, caps, 1)
	assert.Equal(t, []string{
		"sdsl::bit_vectors::BitVector",
		"sdsl::rank_supports::RankSupportV<sdsl::bit_patterns::P1>",
		"", "", "",
	}, caps[0].Values)

	for i, other := range re.Shorter {
		if i != 2 {
			assert.Empty(t, Scan(ir, d, other), "shorter regex %d", i)
		}
	}
	assert.Empty(t, Scan(ir, d, re.All))
}

func TestNoParamsRequiresEveryDefault(t *testing.T) {
	re, err := Build(meta.ByKind(meta.RrrVector))
	require.NoError(t, err)
	assert.Nil(t, re.NoParams)
	assert.Empty(t, re.Shorter)
}

func TestScanRrrVector(t *testing.T) {
	d := meta.ByKind(meta.RrrVector)
	re, err := Build(d)
	require.NoError(t, err)

	ir := "debug rrr => _7; let _7: sdsl::bit_vectors::RrrVector<sdsl::int_vector::IntVector<28_u8>, 10_u8, 2_u16>;"
	caps := Scan(ir, d, re.All)
	require.Len(t, caps, 1)
	assert.Equal(t, []string{"sdsl::int_vector::IntVector<28_u8>", "10", "2"}, caps[0].Values)
}

func TestScanRejectsPathInsideIdentifier(t *testing.T) {
	d := meta.ByKind(meta.IntVector)
	re, err := Build(d)
	require.NoError(t, err)
	assert.Empty(t, Scan("let _1: my_sdsl::int_vector::IntVector<28_u8>;", d, re.All))
	assert.Empty(t, Scan("let _1: other::sdsl::int_vector::IntVector<28_u8>;", d, re.All))
	assert.False(t, Matches("let _1: my_sdsl::bit_vectors::BitVector;", mustBuild(t, meta.ByKind(meta.BitVector)).NoParams))
}

func TestScanAdjacentMentions(t *testing.T) {
	d := meta.ByKind(meta.IntVector)
	re := mustBuild(t, d)

	ir := "_1 = (sdsl::int_vector::IntVector<28_u8>;sdsl::int_vector::IntVector<2_u8>;)"
	caps := Scan(ir, d, re.All)
	require.Len(t, caps, 2)
	assert.Equal(t, []string{"28"}, caps[0].Values)
	assert.Equal(t, []string{"2"}, caps[1].Values)
}

func TestScanReferencesAndPointers(t *testing.T) {
	d := meta.ByKind(meta.IntVector)
	re := mustBuild(t, d)
	for _, ir := range []string{
		"let _1: &sdsl::int_vector::IntVector<8_u8>;",
		"let _1: &mut sdsl::int_vector::IntVector<8_u8>;",
		"let _1: *const sdsl::int_vector::IntVector<8_u8>;",
		"sdsl::int_vector::IntVector<8_u8>;",
	} {
		caps := Scan(ir, d, re.All)
		require.Len(t, caps, 1, ir)
		assert.Equal(t, []string{"8"}, caps[0].Values, ir)
	}
}

func mustBuild(t *testing.T, d meta.Descriptor) Regexes {
	t.Helper()
	re, err := Build(d)
	require.NoError(t, err)
	return re
}

func TestScanDiscardsMisSplitStructures(t *testing.T) {
	d := meta.ByKind(meta.RankSupportV)
	re, err := Build(d)
	require.NoError(t, err)

	ir := "let _1: sdsl::rank_supports::RankSupportV<sdsl::x::A<1>, sdsl::x::B<2>>;"
	assert.Empty(t, Scan(ir, d, re.All))

	ir = "let _1: sdsl::rank_supports::RankSupportV<sdsl::bit_patterns::P10>;"
	caps := Scan(ir, d, re.All)
	require.Len(t, caps, 1)
	assert.Equal(t, []string{"sdsl::bit_patterns::P10"}, caps[0].Values)
}

func TestSingleType(t *testing.T) {
	assert.True(t, singleType("sdsl::a::B"))
	assert.True(t, singleType("sdsl::a::B<sdsl::c::D<1_u8>, 2_u8>"))
	assert.False(t, singleType("sdsl::a::B<1>, sdsl::c::D"))
	assert.False(t, singleType("sdsl::a::B<sdsl::c::D<1>"))
	assert.False(t, singleType("sdsl::a::B>"))
}

func TestPatternQuotesPath(t *testing.T) {
	src := Pattern("sdsl::bit_patterns::P1", nil)
	assert.Contains(t, src, `sdsl::bit_patterns::P1;`)
}
