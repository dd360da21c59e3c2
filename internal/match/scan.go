package match

import (
	"regexp"

	"sdslbind/internal/meta"
)

// Capture is one instantiation found in IR text. Values has one entry per
// descriptor parameter in declaration order; elided parameters are empty.
type Capture struct {
	Descriptor meta.Descriptor
	Values     []string
}

// Scan returns every capture of re in ir. Matches that continue a longer
// identifier, or whose structure-valued captures are not a single well-formed
// type, are dropped.
func Scan(ir string, d meta.Descriptor, re *regexp.Regexp) []Capture {
	params := d.Parameters()
	groups := re.NumSubexp()
	if groups > len(params) {
		return nil
	}
	var out []Capture
	for _, m := range re.FindAllStringSubmatchIndex(ir, -1) {
		if !atBoundary(ir, m[0]) {
			continue
		}
		values := make([]string, len(params))
		for i := 0; i < groups; i++ {
			if start, end := m[2*i+2], m[2*i+3]; start >= 0 {
				values[i] = ir[start:end]
			}
		}
		if !wellFormed(params[:groups], values) {
			continue
		}
		out = append(out, Capture{Descriptor: d, Values: values})
	}
	return out
}

// Matches reports whether re hits anywhere in ir outside a longer identifier.
func Matches(ir string, re *regexp.Regexp) bool {
	if re == nil {
		return false
	}
	for _, m := range re.FindAllStringIndex(ir, -1) {
		if atBoundary(ir, m[0]) {
			return true
		}
	}
	return false
}

// atBoundary reports whether a path starting at ir[start] is not the tail of
// an identifier or of a longer path. References and raw pointers
// ("&", "&mut ", "*const ") pass.
func atBoundary(ir string, start int) bool {
	if start == 0 {
		return true
	}
	switch c := ir[start-1]; {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == ':':
		return false
	default:
		return true
	}
}

func wellFormed(params []meta.Parameter, values []string) bool {
	for _, p := range params {
		if p.IsStructure() && !singleType(values[p.Index]) {
			return false
		}
	}
	return true
}

// singleType reports whether s has balanced angle brackets and no comma outside
// of them.
func singleType(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return false
			}
		case ',':
			if depth == 0 {
				return false
			}
		}
	}
	return depth == 0
}
