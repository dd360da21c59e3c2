package meta

import (
	"fmt"

	"fortio.org/safecast"
)

// ParameterKind distinguishes literal parameters from nested structure references.
type ParameterKind uint8

const (
	// KindInteger is a const generic integer literal such as `28_u8`.
	KindInteger ParameterKind = iota + 1
	// KindStructure is a reference to another bindable structure.
	KindStructure
)

// String returns the string representation of ParameterKind.
func (k ParameterKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindStructure:
		return "structure"
	default:
		return "unknown"
	}
}

const (
	integerPattern   = `(?:const )?([0-9]+)_[A-Za-z0-9]+`
	structurePattern = `(sdsl::[A-Za-z0-9_:]+(?:<[^;]*?>)?)`
)

// Parameter is one generic slot of a descriptor.
//
// Index is the position in the binding's declaration order, NativeIndex the
// position in the native template parameter list. Default holds the IR-form text
// substituted when the parameter is elided.
type Parameter struct {
	Index       int
	NativeIndex int
	Kind        ParameterKind
	HasDefault  bool
	Default     string
}

// Integer declares an integer literal parameter.
func Integer(index, nativeIndex int) Parameter {
	return Parameter{Index: index, NativeIndex: nativeIndex, Kind: KindInteger}
}

// Structure declares a nested structure parameter.
func Structure(index, nativeIndex int) Parameter {
	return Parameter{Index: index, NativeIndex: nativeIndex, Kind: KindStructure}
}

// WithDefault marks the parameter as defaulted to the given IR text.
func (p Parameter) WithDefault(ir string) Parameter {
	p.HasDefault = true
	p.Default = ir
	return p
}

// IsStructure reports whether the parameter references another structure.
func (p Parameter) IsStructure() bool {
	return p.Kind == KindStructure
}

// Pattern returns the regex fragment matching the parameter, with exactly one
// capture group.
func (p Parameter) Pattern() string {
	if p.Kind == KindStructure {
		return structurePattern
	}
	return integerPattern
}

// CaptureGroup names the parameter's capture group.
func (p Parameter) CaptureGroup() string {
	return fmt.Sprintf("i%d", p.Index)
}

// nativeSorted reorders values from declaration order into native template order.
func nativeSorted(values []string, params []Parameter) ([]string, error) {
	if len(values) != len(params) {
		return nil, fmt.Errorf("expected %d parameter values, got %d", len(params), len(values))
	}
	sorted := make([]string, len(params))
	filled := make([]bool, len(params))
	for _, p := range params {
		if p.NativeIndex < 0 || p.NativeIndex >= len(params) || filled[p.NativeIndex] {
			return nil, fmt.Errorf("invalid native index %d for parameter %d", p.NativeIndex, p.Index)
		}
		sorted[p.NativeIndex] = values[p.Index]
		filled[p.NativeIndex] = true
	}
	return sorted, nil
}

// NativeOrder returns the native index of every parameter as compact bytes,
// as recorded in the build manifest.
func NativeOrder(params []Parameter) ([]uint8, error) {
	out := make([]uint8, len(params))
	for i, p := range params {
		idx, err := safecast.Conv[uint8](p.NativeIndex)
		if err != nil {
			return nil, fmt.Errorf("native index of parameter %d: %w", p.Index, err)
		}
		out[i] = idx
	}
	return out, nil
}
