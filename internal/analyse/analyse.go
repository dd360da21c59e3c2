// Package analyse discovers every instantiation referenced by IR text and
// resolves it, including nested structure parameters, into specifications.
package analyse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"sdslbind/internal/match"
	"sdslbind/internal/meta"
	"sdslbind/internal/specification"
)

// DefaultMaxDepth bounds nested resolution.
const DefaultMaxDepth = 16

// ErrDepthExceeded is returned when nested parameters recurse deeper than the
// analyzer allows.
var ErrDepthExceeded = errors.New("nested resolution depth exceeded")

// NestedResolutionError reports parameter text that did not resolve to exactly
// one specification.
type NestedResolutionError struct {
	Text  string
	Count int
}

func (e *NestedResolutionError) Error() string {
	return fmt.Sprintf("parameter %q resolved to %d specifications, want exactly 1", e.Text, e.Count)
}

type entry struct {
	desc meta.Descriptor
	re   match.Regexes
}

var (
	tableOnce sync.Once
	table     []entry
	tableErr  error
)

func loadTable() ([]entry, error) {
	tableOnce.Do(func() {
		for _, d := range meta.Descriptors() {
			re, err := match.Build(d)
			if err != nil {
				tableErr = err
				return
			}
			table = append(table, entry{desc: d, re: re})
		}
	})
	return table, tableErr
}

// Analyzer turns IR text into specifications.
type Analyzer struct {
	MaxDepth int
	Logger   *zap.Logger
}

func (a *Analyzer) maxDepth() int {
	if a == nil || a.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return a.MaxDepth
}

func (a *Analyzer) logger() *zap.Logger {
	if a == nil || a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// Analyse returns the distinct specifications referenced by ir, in descriptor
// registry order and then order of appearance.
func (a *Analyzer) Analyse(ctx context.Context, ir string) ([]*specification.Specification, error) {
	return a.analyse(ctx, ir, 0)
}

// FromDefault builds the default instantiation of a descriptor.
func (a *Analyzer) FromDefault(ctx context.Context, d meta.Descriptor) (*specification.Specification, error) {
	return a.fromCapture(ctx, match.Capture{Descriptor: d, Values: make([]string, len(d.Parameters()))}, 0)
}

// FromCapture builds the specification of one capture, substituting defaults
// for elided parameters and resolving structure parameters recursively.
func (a *Analyzer) FromCapture(ctx context.Context, c match.Capture) (*specification.Specification, error) {
	return a.fromCapture(ctx, c, 0)
}

func (a *Analyzer) analyse(ctx context.Context, ir string, depth int) ([]*specification.Specification, error) {
	if depth > a.maxDepth() {
		return nil, fmt.Errorf("%w (%d)", ErrDepthExceeded, a.maxDepth())
	}
	entries, err := loadTable()
	if err != nil {
		return nil, err
	}

	var specs []*specification.Specification
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if match.Matches(ir, e.re.NoParams) {
			s, err := a.fromCapture(ctx, match.Capture{Descriptor: e.desc, Values: make([]string, len(e.desc.Parameters()))}, depth)
			if err != nil {
				return nil, err
			}
			specs = append(specs, s)
		}
		for _, re := range e.re.Parameterized() {
			for _, c := range match.Scan(ir, e.desc, re) {
				s, err := a.fromCapture(ctx, c, depth)
				if err != nil {
					return nil, err
				}
				specs = append(specs, s)
			}
		}
	}

	out := specification.Dedup(specs)
	if depth == 0 {
		a.logger().Debug("analysed IR",
			zap.Int("matches", len(specs)),
			zap.Int("specs", len(out)),
		)
	}
	return out, nil
}

func (a *Analyzer) fromCapture(ctx context.Context, c match.Capture, depth int) (*specification.Specification, error) {
	params := c.Descriptor.Parameters()
	if len(c.Values) != len(params) {
		return nil, fmt.Errorf("%s: capture has %d values, want %d", c.Descriptor.Path(), len(c.Values), len(params))
	}

	values := make([]string, len(params))
	copy(values, c.Values)
	nested := make(map[int]*specification.Specification)
	for _, p := range params {
		if values[p.Index] == "" {
			if !p.HasDefault {
				return nil, fmt.Errorf("%s: parameter %d has no value and no default", c.Descriptor.Path(), p.Index)
			}
			values[p.Index] = p.Default
		}
		if !p.IsStructure() {
			continue
		}
		text := values[p.Index] + ";"
		inner, err := a.analyse(ctx, text, depth+1)
		if err != nil {
			return nil, err
		}
		if len(inner) != 1 {
			return nil, &NestedResolutionError{Text: values[p.Index], Count: len(inner)}
		}
		nested[p.Index] = inner[0]
	}

	s, err := specification.Build(c.Descriptor, values, nested)
	if err != nil {
		return nil, err
	}
	a.logger().Debug("built specification",
		zap.String("path", c.Descriptor.Path()),
		zap.String("spec", s.ID),
		zap.String("native", s.NativeCode),
		zap.Int("depth", depth),
	)
	return s, nil
}
