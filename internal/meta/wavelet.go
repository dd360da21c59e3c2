package meta

const (
	defaultTreeStrategy = "sdsl::wavelet_trees::layouts::ByteTree<sdsl::wavelet_trees::layouts::BreadthFirstSearch>"
	byteTreeHeader      = "wavelet_trees/layouts/byte_tree.hpp"
	lexOrderedSentinel  = "#define BYTE_TREE_LEX_ORDERED false"
)

// waveletParameters are the bit vector and support slots shared by wt_huff and wt_int.
func waveletParameters() []Parameter {
	return []Parameter{
		Structure(0, 0).WithDefault("sdsl::bit_vectors::BitVector"),
		Structure(1, 1).WithDefault("sdsl::rank_supports::RankSupportV<sdsl::bit_patterns::P1>"),
		Structure(2, 2).WithDefault("sdsl::select_supports::SelectSupportMcl<sdsl::bit_patterns::P1>"),
		Structure(3, 3).WithDefault("sdsl::select_supports::SelectSupportMcl<sdsl::bit_patterns::P0>"),
	}
}

func waveletDefaults() []string {
	return []string{
		"sdsl::bit_vector",
		"sdsl::rank_support_v<1, 1>",
		"sdsl::select_support_mcl<1, 1>",
		"sdsl::select_support_mcl<0, 1>",
	}
}

func wtHuffFiles(sorted []string, native, id string, nested [][]FileSpecification) ([]FileSpecification, error) {
	extra := templateRule("WT_HUFF",
		"sdsl::bit_vector, sdsl::bit_vector::rank_1_type, sdsl::bit_vector::select_1_type, sdsl::bit_vector::select_0_type, sdsl::byte_tree<>",
		sorted)
	own, err := componentFiles("wavelet_trees/wt_huff", "WT_HUFF", id, extra)
	if err != nil {
		return nil, err
	}
	io, err := ioFiles(native, id)
	if err != nil {
		return nil, err
	}
	return concat(concat(nested...), own, io), nil
}

func wtIntFiles(sorted []string, native, id string, nested [][]FileSpecification) ([]FileSpecification, error) {
	own, err := componentFiles("wavelet_trees/wt_int", "WT_INT", id,
		templateRule("WT_INT",
			"sdsl::bit_vector, sdsl::rank_support_v5<>, sdsl::select_support_scan<1>, sdsl::select_support_scan<0>",
			sorted))
	if err != nil {
		return nil, err
	}
	io, err := ioFiles(native, id)
	if err != nil {
		return nil, err
	}
	return concat(concat(nested...), own, io), nil
}

// byteTreeFiles returns the shared layout header; its name carries no id.
func byteTreeFiles(sorted []string) ([]FileSpecification, error) {
	return []FileSpecification{{
		Replacements: map[string]string{
			lexOrderedSentinel: defineLine("BYTE_TREE_LEX_ORDERED", sorted[0]),
		},
		TemplateFileName: byteTreeHeader,
		TargetFileName:   byteTreeHeader,
		Kind:             FileHeader,
	}}, nil
}
