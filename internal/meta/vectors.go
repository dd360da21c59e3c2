package meta

import "strings"

func intVectorFiles(sorted []string, native, id string) ([]FileSpecification, error) {
	own, err := componentFiles("int_vector", "INT_VECTOR", id, templateRule("INT_VECTOR", "0", sorted))
	if err != nil {
		return nil, err
	}
	util, err := utilFiles(native, id)
	if err != nil {
		return nil, err
	}
	io, err := ioFiles(native, id)
	if err != nil {
		return nil, err
	}
	return concat(own, util, io), nil
}

func bitVectorFiles(native, id string) ([]FileSpecification, error) {
	own, err := componentFiles("bit_vector", "BIT_VECTOR", id, nil)
	if err != nil {
		return nil, err
	}
	util, err := utilFiles(native, id)
	if err != nil {
		return nil, err
	}
	io, err := ioFiles(native, id)
	if err != nil {
		return nil, err
	}
	return concat(own, util, io), nil
}

// bitVectorSpecs returns the files of the one bit_vector instantiation.
func bitVectorSpecs() ([]FileSpecification, error) {
	const native = "sdsl::bit_vector"
	return bitVectorFiles(native, ContentID(native))
}

func rrrVectorFiles(sorted []string, native, id string, nested [][]FileSpecification) ([]FileSpecification, error) {
	own, err := componentFiles("bit_vectors/rrr_vector", "RRR_VECTOR", id,
		templateRule("RRR_VECTOR", "63, sdsl::int_vector<>, 32", sorted))
	if err != nil {
		return nil, err
	}
	bv, err := bitVectorSpecs()
	if err != nil {
		return nil, err
	}
	io, err := ioFiles(native, id)
	if err != nil {
		return nil, err
	}
	var store []FileSpecification
	if nested != nil {
		store = nested[0]
	}
	return concat(own, store, bv, io), nil
}

// supportFiles covers rank and select supports, whose only parameter is a bit
// pattern marker contributing no files of its own.
func supportFiles(stem string, sorted []string, native, id string, nested [][]FileSpecification) ([]FileSpecification, error) {
	prefix := strings.ToUpper(stem)
	own, err := componentFiles(stem, prefix, id, templateRule(prefix, "1, 1", sorted))
	if err != nil {
		return nil, err
	}
	io, err := ioFiles(native, id)
	if err != nil {
		return nil, err
	}
	var pattern []FileSpecification
	if nested != nil {
		pattern = nested[0]
	}
	return concat(own, pattern, io), nil
}
