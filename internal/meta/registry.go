package meta

var registry = []Descriptor{
	{Kind: IntVector},
	{Kind: BitVector},
	{Kind: RrrVector},
	{Kind: RankSupportV},
	{Kind: SelectSupportMcl},
	{Kind: P0},
	{Kind: P1},
	{Kind: P10},
	{Kind: P01},
	{Kind: WtHuff},
	{Kind: WtInt},
	{Kind: BreadthFirstSearch},
	{Kind: ByteTree},
}

// Descriptors returns every known descriptor in a fixed order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// ByPath finds the descriptor registered under a qualified path.
func ByPath(path string) (Descriptor, bool) {
	for _, d := range registry {
		if d.Path() == path {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ByKind returns the descriptor of a kind.
func ByKind(k Kind) Descriptor {
	return Descriptor{Kind: k}
}
