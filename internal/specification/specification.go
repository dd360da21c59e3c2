// Package specification turns matched parameter values into fully resolved
// instantiations.
package specification

import (
	"fmt"
	"reflect"

	"sdslbind/internal/meta"
)

// Specification is one concrete instantiation to bind.
type Specification struct {
	ID         string
	NativeCode string
	Descriptor meta.Descriptor
	Files      []meta.FileSpecification
}

// Build resolves parameter values into a specification. Integer parameters take
// the captured text; structure parameters take the native code of the nested
// specification at the same index.
func Build(d meta.Descriptor, values []string, nested map[int]*Specification) (*Specification, error) {
	params := d.Parameters()
	if len(values) != len(params) {
		return nil, fmt.Errorf("%s: expected %d values, got %d", d.Path(), len(params), len(values))
	}

	resolved := make([]string, len(params))
	nestedFiles := make([][]meta.FileSpecification, len(params))
	for _, p := range params {
		if !p.IsStructure() {
			resolved[p.Index] = values[p.Index]
			continue
		}
		inner, ok := nested[p.Index]
		if !ok || inner == nil {
			return nil, fmt.Errorf("%s: parameter %d has no nested specification", d.Path(), p.Index)
		}
		resolved[p.Index] = inner.NativeCode
		nestedFiles[p.Index] = inner.Files
	}

	native, err := d.NativeCode(resolved)
	if err != nil {
		return nil, err
	}
	id := meta.ContentID(native)
	files, err := d.FileSpecifications(resolved, nestedFiles, id)
	if err != nil {
		return nil, fmt.Errorf("%s: file specifications: %w", d.Path(), err)
	}
	return &Specification{
		ID:         id,
		NativeCode: native,
		Descriptor: d,
		Files:      files,
	}, nil
}

// Equal reports whether two specifications describe the same instantiation
// with identical files.
func Equal(a, b *Specification) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID &&
		a.NativeCode == b.NativeCode &&
		a.Descriptor == b.Descriptor &&
		reflect.DeepEqual(a.Files, b.Files)
}

// Dedup keeps the first specification of every id, preserving order.
func Dedup(specs []*Specification) []*Specification {
	seen := make(map[string]struct{}, len(specs))
	out := make([]*Specification, 0, len(specs))
	for _, s := range specs {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
