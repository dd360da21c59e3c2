// Package match finds generic instantiations of known structures in IR text.
package match

import (
	"fmt"
	"regexp"
	"strings"

	"sdslbind/internal/meta"
)

const separator = `\s*,\s*`

// PatternError reports a regex that failed to compile for a descriptor.
type PatternError struct {
	Path    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern for %s: %v", e.Path, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Regexes holds the matchers derived from one descriptor.
//
// All matches the fully spelled-out form and is nil for descriptors without
// parameters. Shorter matches forms with trailing defaulted parameters elided,
// longest first. NoParams matches the bare path and is non-nil only when every
// parameter has a default.
type Regexes struct {
	All      *regexp.Regexp
	Shorter  []*regexp.Regexp
	NoParams *regexp.Regexp
}

// Parameterized returns All followed by Shorter.
func (r Regexes) Parameterized() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, 1+len(r.Shorter))
	if r.All != nil {
		out = append(out, r.All)
	}
	return append(out, r.Shorter...)
}

// Build derives the regexes of a descriptor.
func Build(d meta.Descriptor) (Regexes, error) {
	params := d.Parameters()
	var out Regexes

	if len(params) > 0 {
		re, err := compile(d, params)
		if err != nil {
			return Regexes{}, err
		}
		out.All = re
	}

	for k := 1; k <= trailingDefaults(params); k++ {
		n := len(params) - k
		if n == 0 {
			continue
		}
		re, err := compile(d, params[:n])
		if err != nil {
			return Regexes{}, err
		}
		out.Shorter = append(out.Shorter, re)
	}

	if allDefaulted(params) {
		re, err := compile(d, nil)
		if err != nil {
			return Regexes{}, err
		}
		out.NoParams = re
	}
	return out, nil
}

// Pattern renders the regex source for a path followed by the given parameters.
// The pattern starts at the path itself; Scan and Matches reject hits that
// continue a longer identifier, so adjacent mentions are all found.
func Pattern(path string, params []meta.Parameter) string {
	var b strings.Builder
	b.WriteString(regexp.QuoteMeta(path))
	if len(params) > 0 {
		b.WriteByte('<')
		for i, p := range params {
			if i > 0 {
				b.WriteString(separator)
			}
			b.WriteString(p.Pattern())
		}
		b.WriteByte('>')
	}
	b.WriteByte(';')
	return b.String()
}

func compile(d meta.Descriptor, params []meta.Parameter) (*regexp.Regexp, error) {
	src := Pattern(d.Path(), params)
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, &PatternError{Path: d.Path(), Pattern: src, Err: err}
	}
	return re, nil
}

func trailingDefaults(params []meta.Parameter) int {
	k := 0
	for i := len(params) - 1; i >= 0 && params[i].HasDefault; i-- {
		k++
	}
	return k
}

func allDefaulted(params []meta.Parameter) bool {
	for _, p := range params {
		if !p.HasDefault {
			return false
		}
	}
	return true
}
