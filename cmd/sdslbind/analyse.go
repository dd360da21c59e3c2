package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sdslbind/internal/analyse"
	"sdslbind/internal/irsource"
	"sdslbind/internal/specification"
)

var analyseCmd = &cobra.Command{
	Use:   "analyse [flags] ir-file",
	Short: "List the sdsl instantiations found in an IR file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyse,
}

type specPayload struct {
	ID         string   `json:"id"`
	NativeCode string   `json:"native_code"`
	Path       string   `json:"path"`
	Component  string   `json:"component"`
	Files      []string `json:"files"`
}

func runAnalyse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	logger, err := commandLogger(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ir, err := irsource.Read(args[0])
	if err != nil {
		return err
	}
	analyzer := &analyse.Analyzer{MaxDepth: maxDepth, Logger: logger}
	specs, err := analyzer.Analyse(cmd.Context(), ir)
	if err != nil {
		return err
	}
	if format == "json" {
		return renderSpecsJSON(cmd.OutOrStdout(), specs)
	}
	return renderSpecsPretty(cmd.OutOrStdout(), specs)
}

func toPayload(specs []*specification.Specification) []specPayload {
	out := make([]specPayload, 0, len(specs))
	for _, s := range specs {
		files := make([]string, len(s.Files))
		for i, f := range s.Files {
			files[i] = f.TargetPath()
		}
		out = append(out, specPayload{
			ID:         s.ID,
			NativeCode: s.NativeCode,
			Path:       s.Descriptor.Path(),
			Component:  s.Descriptor.Component(),
			Files:      files,
		})
	}
	return out
}

func renderSpecsJSON(out io.Writer, specs []*specification.Specification) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(toPayload(specs))
}

func renderSpecsPretty(out io.Writer, specs []*specification.Specification) error {
	if len(specs) == 0 {
		_, err := fmt.Fprintln(out, "no instantiations found")
		return err
	}
	for _, p := range toPayload(specs) {
		if _, err := fmt.Fprintf(out, "%s  %s\n    %s\n", p.ID, componentLabel(p.Component), p.NativeCode); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "%d instantiations\n", len(specs))
	return err
}

// componentLabel turns "rank_support_v" into "Rank Support V".
func componentLabel(component string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(component, "_", " "))
}

func init() {
	analyseCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	analyseCmd.Flags().Int("max-depth", 0, "nested parameter resolution limit")
}
