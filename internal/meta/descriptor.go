package meta

import (
	"fmt"
	"strings"
)

// Kind enumerates every bindable structure.
type Kind uint8

const (
	IntVector Kind = iota + 1
	BitVector
	RrrVector
	RankSupportV
	SelectSupportMcl
	P0
	P1
	P10
	P01
	WtHuff
	WtInt
	ByteTree
	BreadthFirstSearch
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case IntVector:
		return "IntVector"
	case BitVector:
		return "BitVector"
	case RrrVector:
		return "RrrVector"
	case RankSupportV:
		return "RankSupportV"
	case SelectSupportMcl:
		return "SelectSupportMcl"
	case P0:
		return "P0"
	case P1:
		return "P1"
	case P10:
		return "P10"
	case P01:
		return "P01"
	case WtHuff:
		return "WtHuff"
	case WtInt:
		return "WtInt"
	case ByteTree:
		return "ByteTree"
	case BreadthFirstSearch:
		return "BreadthFirstSearch"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Descriptor is the static metadata of one bindable structure.
type Descriptor struct {
	Kind Kind
}

// Path returns the qualified path the structure is referred to by in IR text.
func (d Descriptor) Path() string {
	switch d.Kind {
	case IntVector:
		return "sdsl::int_vector::IntVector"
	case BitVector:
		return "sdsl::bit_vectors::BitVector"
	case RrrVector:
		return "sdsl::bit_vectors::RrrVector"
	case RankSupportV:
		return "sdsl::rank_supports::RankSupportV"
	case SelectSupportMcl:
		return "sdsl::select_supports::SelectSupportMcl"
	case P0, P1, P10, P01:
		return "sdsl::bit_patterns::" + d.Kind.String()
	case WtHuff, WtInt:
		return "sdsl::wavelet_trees::" + d.Kind.String()
	case ByteTree, BreadthFirstSearch:
		return "sdsl::wavelet_trees::layouts::" + d.Kind.String()
	default:
		return ""
	}
}

// Component returns the symbol prefix of the instantiation's C-ABI functions,
// empty for markers and header-only layouts.
func (d Descriptor) Component() string {
	switch d.Kind {
	case IntVector:
		return "int_vector"
	case BitVector:
		return "bit_vector"
	case RrrVector:
		return "rrr_vector"
	case RankSupportV:
		return "rank_support_v"
	case SelectSupportMcl:
		return "select_support_mcl"
	case WtHuff:
		return "wt_huff"
	case WtInt:
		return "wt_int"
	default:
		return ""
	}
}

// Parameters returns the generic parameters in declaration order.
func (d Descriptor) Parameters() []Parameter {
	switch d.Kind {
	case IntVector:
		return []Parameter{Integer(0, 0)}
	case RrrVector:
		// RrrVector<BlockStore, BLOCK_SIZE, RANK_SAMPLE> maps onto
		// rrr_vector<t_bs, t_rac, t_k>.
		return []Parameter{Structure(0, 1), Integer(1, 0), Integer(2, 2)}
	case RankSupportV, SelectSupportMcl:
		return []Parameter{Structure(0, 0)}
	case WtHuff:
		return append(waveletParameters(), Structure(4, 4).WithDefault(defaultTreeStrategy))
	case WtInt:
		return waveletParameters()
	case ByteTree:
		return []Parameter{Structure(0, 0).WithDefault(Descriptor{Kind: BreadthFirstSearch}.Path())}
	default:
		return nil
	}
}

// NativeCode renders the native type expression for parameter values given in
// declaration order.
func (d Descriptor) NativeCode(values []string) (string, error) {
	params := d.Parameters()
	sorted, err := nativeSorted(values, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", d.Kind, err)
	}
	args := strings.Join(sorted, ", ")
	switch d.Kind {
	case IntVector:
		return "sdsl::int_vector<" + args + ">", nil
	case BitVector:
		return "sdsl::bit_vector", nil
	case RrrVector:
		return "sdsl::rrr_vector<" + args + ">", nil
	case RankSupportV:
		return "sdsl::rank_support_v<" + args + ">", nil
	case SelectSupportMcl:
		return "sdsl::select_support_mcl<" + args + ">", nil
	case P0:
		return "0, 1", nil
	case P1:
		return "1, 1", nil
	case P10:
		return "10, 2", nil
	case P01:
		return "1, 2", nil
	case WtHuff:
		return "sdsl::wt_huff<" + args + ">", nil
	case WtInt:
		return "sdsl::wt_int<" + args + ">", nil
	case ByteTree:
		return "sdsl::byte_tree<" + args + ">", nil
	case BreadthFirstSearch:
		return "false", nil
	default:
		return "", fmt.Errorf("unknown descriptor kind %d", uint8(d.Kind))
	}
}

// DefaultNativeCode returns the native fragments of the default instantiation,
// one per parameter. Non-defaulted parameters yield an empty fragment.
func (d Descriptor) DefaultNativeCode() []string {
	switch d.Kind {
	case WtHuff:
		return append(waveletDefaults(), "sdsl::byte_tree<false>")
	case WtInt:
		return waveletDefaults()
	case ByteTree:
		return []string{"false"}
	default:
		return make([]string, len(d.Parameters()))
	}
}

// FileSpecifications returns the native files an instantiation needs.
//
// values are the resolved native fragments in declaration order, nested holds
// the file specifications of every structure parameter (nil for integers) and id
// is the instantiation's content id.
func (d Descriptor) FileSpecifications(values []string, nested [][]FileSpecification, id string) ([]FileSpecification, error) {
	native, err := d.NativeCode(values)
	if err != nil {
		return nil, err
	}
	sorted, err := nativeSorted(values, d.Parameters())
	if err != nil {
		return nil, err
	}
	if nested != nil && len(nested) != len(values) {
		return nil, fmt.Errorf("%s: expected %d nested file lists, got %d", d.Kind, len(values), len(nested))
	}
	switch d.Kind {
	case IntVector:
		return intVectorFiles(sorted, native, id)
	case BitVector:
		return bitVectorFiles(native, id)
	case RrrVector:
		return rrrVectorFiles(sorted, native, id, nested)
	case RankSupportV:
		return supportFiles("rank_support_v", sorted, native, id, nested)
	case SelectSupportMcl:
		return supportFiles("select_support_mcl", sorted, native, id, nested)
	case WtHuff:
		return wtHuffFiles(sorted, native, id, nested)
	case WtInt:
		return wtIntFiles(sorted, native, id, nested)
	case ByteTree:
		return byteTreeFiles(sorted)
	case P0, P1, P10, P01, BreadthFirstSearch:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown descriptor kind %d", uint8(d.Kind))
	}
}

// templateRule rewrites the `{PREFIX}_TEMPLATE` sentinel line of a header.
func templateRule(macroPrefix, sentinel string, sorted []string) map[string]string {
	macro := macroPrefix + "_TEMPLATE"
	return map[string]string{
		defineLine(macro, sentinel): defineLine(macro, strings.Join(sorted, ", ")),
	}
}

func concat(lists ...[]FileSpecification) []FileSpecification {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make([]FileSpecification, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
