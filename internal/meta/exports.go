package meta

// Export names one C-ABI function of an instantiation. Component is empty for
// the shared IO and util helpers, whose symbols carry no component prefix.
type Export struct {
	Component string
	Function  string
}

var (
	ioExports   = []string{"store_to_file", "load_from_file"}
	utilExports = []string{"set_to_value", "set_to_id", "set_random_bits", "mod", "bit_compress", "expand_width"}

	vectorExports = []string{
		"create", "destroy", "copy", "empty", "resize", "bit_resize",
		"size", "max_size", "bit_size", "capacity", "data",
		"get_element", "set_element",
	}
	rrrExports     = []string{"from_bit_vector", "destroy", "copy", "size", "get_bv_element", "get_int"}
	rankExports    = []string{"from_bit_vector", "destroy", "copy", "rank", "set_vector"}
	selectExports  = []string{"from_bit_vector", "destroy", "copy", "select", "set_vector"}
	waveletExports = []string{
		"create", "from_string", "destroy", "copy", "size", "empty",
		"get_element", "rank", "select", "inverse_select", "alphabet_size",
	}
)

// Exports lists the functions a built instantiation exposes.
func (d Descriptor) Exports() []Export {
	var own []string
	shared := ioExports
	switch d.Kind {
	case IntVector:
		own = append(append([]string{}, vectorExports...), "width", "set_width")
		shared = append(append([]string{}, ioExports...), utilExports...)
	case BitVector:
		own = vectorExports
		shared = append(append([]string{}, ioExports...), utilExports...)
	case RrrVector:
		own = rrrExports
	case RankSupportV:
		own = rankExports
	case SelectSupportMcl:
		own = selectExports
	case WtHuff, WtInt:
		own = waveletExports
	default:
		return nil
	}
	out := make([]Export, 0, len(own)+len(shared))
	for _, fn := range own {
		out = append(out, Export{Component: d.Component(), Function: fn})
	}
	for _, fn := range shared {
		out = append(out, Export{Function: fn})
	}
	return out
}
