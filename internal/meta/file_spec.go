package meta

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// FileKind selects the directory a materialized file lands in.
type FileKind uint8

const (
	FileHeader FileKind = iota + 1
	FileSource
)

// Dir returns the workspace subdirectory for the kind.
func (k FileKind) Dir() string {
	if k == FileSource {
		return "src"
	}
	return "include"
}

// String returns the string representation of FileKind.
func (k FileKind) String() string {
	switch k {
	case FileHeader:
		return "header"
	case FileSource:
		return "source"
	default:
		return "unknown"
	}
}

// FileSpecification describes one materialized native file: which template it
// is copied from, where it goes and which template lines are rewritten.
type FileSpecification struct {
	Replacements     map[string]string
	TemplateFileName string
	TargetFileName   string
	Kind             FileKind
}

// ReplacementPair is one literal template line and its rewrite.
type ReplacementPair struct {
	From string
	To   string
}

// ReplacementPairs returns the replacements sorted by key.
func (f FileSpecification) ReplacementPairs() []ReplacementPair {
	pairs := make([]ReplacementPair, 0, len(f.Replacements))
	for from, to := range f.Replacements {
		pairs = append(pairs, ReplacementPair{From: from, To: to})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].From < pairs[j].From })
	return pairs
}

// TemplatePath is the path of the template relative to the template root.
func (f FileSpecification) TemplatePath() string {
	return path.Join(f.Kind.Dir(), f.TemplateFileName)
}

// TargetPath is the path of the materialized file relative to the interface root.
func (f FileSpecification) TargetPath() string {
	return path.Join(f.Kind.Dir(), f.TargetFileName)
}

// TargetFileName inserts the id between the stem and the extension of a template
// name, keeping its directory.
func TargetFileName(template, id string) (string, error) {
	dir, base := path.Split(template)
	ext := path.Ext(base)
	if ext == "" || ext == base {
		return "", fmt.Errorf("template %q has no extension", template)
	}
	stem := strings.TrimSuffix(base, ext)
	return dir + stem + "_" + id + ext, nil
}

func includeLine(name string) string {
	return fmt.Sprintf("#include %q", name)
}

func defineLine(macro, value string) string {
	return "#define " + macro + " " + value
}

// header builds the header spec of a component with the usual id rewrite plus
// any extra rules.
func header(template, macroPrefix, id string, extra map[string]string) (FileSpecification, error) {
	target, err := TargetFileName(template, id)
	if err != nil {
		return FileSpecification{}, err
	}
	repl := map[string]string{
		defineLine(macroPrefix+"_ID", "_id"): defineLine(macroPrefix+"_ID", "_"+id),
	}
	for k, v := range extra {
		repl[k] = v
	}
	return FileSpecification{
		Replacements:     repl,
		TemplateFileName: template,
		TargetFileName:   target,
		Kind:             FileHeader,
	}, nil
}

// source builds the source spec that includes the given header spec.
func source(template string, hdr FileSpecification, id string) (FileSpecification, error) {
	target, err := TargetFileName(template, id)
	if err != nil {
		return FileSpecification{}, err
	}
	return FileSpecification{
		Replacements: map[string]string{
			includeLine(hdr.TemplateFileName): includeLine(hdr.TargetFileName),
		},
		TemplateFileName: template,
		TargetFileName:   target,
		Kind:             FileSource,
	}, nil
}

// componentFiles returns the header and source pair of a component.
func componentFiles(stem, macroPrefix, id string, extra map[string]string) ([]FileSpecification, error) {
	hdr, err := header(stem+".hpp", macroPrefix, id, extra)
	if err != nil {
		return nil, err
	}
	src, err := source(stem+".cpp", hdr, id)
	if err != nil {
		return nil, err
	}
	return []FileSpecification{hdr, src}, nil
}

const structureSentinel = "#define STRUCTURE sdsl::int_vector<0>"

// ioFiles binds store/load helpers to the instantiation.
func ioFiles(native, id string) ([]FileSpecification, error) {
	return componentFiles("io", "IO", id, map[string]string{
		structureSentinel: defineLine("STRUCTURE", native),
	})
}

// utilFiles binds sdsl::util helpers to an integer vector instantiation.
func utilFiles(native, id string) ([]FileSpecification, error) {
	return componentFiles("util", "UTIL", id, map[string]string{
		structureSentinel: defineLine("STRUCTURE", native),
	})
}
