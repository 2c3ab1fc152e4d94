// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/internal/engine"
	"github.com/pdiddy/curriculum-engine/internal/source"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|dir|->...",
	Short: "Parse curriculum documents and print their topics",
	Long: `Parse reads markdown, text or HTML curriculum documents, recognizes their
structure in the configured dialect, and prints the resolved topic list.

A document's frontmatter may set "dialect:" and "id:". Documents without a
dialect hint use --dialect. Use "-" to read one document from stdin.

Recoverable anomalies (duplicates, orphans, dropped lines) are printed as
warnings to stderr. A document whose topics fail validation is reported as
failed; the others are still printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

// runOutput is the printed form of one parsed document.
type runOutput struct {
	Document    string             `json:"document" yaml:"document"`
	Dialect     string             `json:"dialect" yaml:"dialect"`
	Topics      []types.Topic      `json:"topics" yaml:"topics"`
	Summary     types.ParseSummary `json:"summary" yaml:"summary"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "json", "tree":
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json or tree", format)
	}

	outcomes, sum, err := parseArgs(cmd, args)
	if err != nil {
		return err
	}

	var runs []*engine.Run
	for _, o := range outcomes {
		if o.Run != nil {
			runs = append(runs, o.Run)
			renderDiagnostics(os.Stderr, o.Run)
		}
	}

	if err := writeRuns(os.Stdout, format, runs); err != nil {
		return err
	}
	renderSummary(os.Stderr, sum, outcomes)

	if sum.HasFailures() {
		return fmt.Errorf("%d document(s) failed parsing", sum.Failed)
	}
	return nil
}

// parseArgs loads the documents named by args and parses them in parallel.
// Progress lines go to stderr so stdout carries only the result.
func parseArgs(cmd *cobra.Command, args []string) ([]engine.Outcome, engine.BatchSummary, error) {
	cfg := pipelineConfig().Engine
	reg, err := dialect.Load(cfg)
	if err != nil {
		return nil, engine.BatchSummary{}, err
	}

	docs, err := loadDocuments(cmd, args)
	if err != nil {
		return nil, engine.BatchSummary{}, err
	}

	var opts []engine.Option
	opts = append(opts, engine.WithWorkers(cfg.Workers))
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		opts = append(opts, engine.WithStrictDialect())
	}
	eng := engine.New(reg, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, sum := eng.ParseAll(ctx, docs, os.Stderr)
	return outcomes, sum, nil
}

func loadDocuments(cmd *cobra.Command, args []string) ([]engine.Document, error) {
	loader := source.NewLoader()
	var docs []engine.Document
	var paths []string
	for _, a := range args {
		if a != "-" {
			paths = append(paths, a)
			continue
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		fm, body, err := source.SplitFrontmatter(string(data))
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		id := fm.ID
		if id == "" {
			id, _ = cmd.Flags().GetString("id")
		}
		docs = append(docs, engine.Document{ID: id, Text: body, DialectHint: fm.Dialect})
	}

	loaded, err := loader.Load(paths...)
	if err != nil {
		return nil, err
	}
	return append(docs, loaded...), nil
}

func writeRuns(w io.Writer, format string, runs []*engine.Run) error {
	switch format {
	case "tree":
		for i, r := range runs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderTree(w, r)
		}
		return nil
	}

	out := make([]runOutput, len(runs))
	for i, r := range runs {
		out[i] = runOutput{
			Document: r.DocumentID, Dialect: r.Dialect, Topics: r.Topics,
			Summary: r.Summary, Diagnostics: r.Diagnostics,
		}
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

func init() {
	parseCmd.Flags().String("format", "yaml", "output format: yaml, json or tree")
	parseCmd.Flags().Bool("strict", false, "fail documents whose dialect hint is unknown")
	parseCmd.Flags().String("id", "stdin", "document id for input read from stdin")

	rootCmd.AddCommand(parseCmd)
}
