// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/internal/engine"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// codeStyle for topic codes
	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for success indicators
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// warnStyle for diagnostics
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary box with rounded border
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// renderTree prints a run's topics indented by level.
func renderTree(w io.Writer, run *engine.Run) {
	fmt.Fprintln(w, titleStyle.Render(run.DocumentID)+" "+dimStyle.Render("("+run.Dialect+")"))
	base := -1
	for _, t := range run.Topics {
		if base < 0 || t.Level < base {
			base = t.Level
		}
	}
	for _, t := range run.Topics {
		indent := strings.Repeat("  ", t.Level-base)
		fmt.Fprintf(w, "%s%s %s\n", indent, codeStyle.Render(t.Code), t.Title)
	}
}

// renderDiagnostics prints a run's diagnostics, one per line.
func renderDiagnostics(w io.Writer, run *engine.Run) {
	for _, d := range run.Diagnostics {
		fmt.Fprintf(w, "%s %s: %s\n", warnStyle.Render("warning"), run.DocumentID, d)
	}
}

// renderSummary prints a boxed summary of a parse batch.
func renderSummary(w io.Writer, sum engine.BatchSummary, outcomes []engine.Outcome) {
	status := successStyle.Render("ok")
	if sum.HasFailures() {
		status = errorStyle.Render("failures")
	}

	var perLevel map[int]int
	discarded, dropped := 0, 0
	for _, o := range outcomes {
		if o.Run == nil {
			continue
		}
		perLevel = mergeLevels(perLevel, o.Run.Summary)
		discarded += o.Run.Summary.Discarded()
		dropped += o.Run.Summary.DroppedTokens
	}

	content := fmt.Sprintf("%s %s\n%s %d parsed, %d skipped, %d failed\n%s %d (%s)\n%s %d discarded, %d dropped",
		dimStyle.Render("Status:"), status,
		dimStyle.Render("Documents:"), sum.Succeeded, sum.Skipped, sum.Failed,
		dimStyle.Render("Topics:"), sum.Topics, formatLevels(perLevel),
		dimStyle.Render("Anomalies:"), discarded, dropped,
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}

func mergeLevels(into map[int]int, s types.ParseSummary) map[int]int {
	if into == nil {
		into = make(map[int]int)
	}
	for lvl, n := range s.PerLevel {
		into[lvl] += n
	}
	return into
}

func formatLevels(levels map[int]int) string {
	deepest := types.ParseSummary{PerLevel: levels}.MaxLevel()
	if deepest < 0 {
		return "none"
	}
	parts := make([]string, 0, deepest+1)
	for lvl := 0; lvl <= deepest; lvl++ {
		if n := levels[lvl]; n > 0 {
			parts = append(parts, fmt.Sprintf("L%d=%d", lvl, n))
		}
	}
	return strings.Join(parts, " ")
}

// renderDialects prints the dialect table with each dialect's rule order.
func renderDialects(w io.Writer, reg *dialect.Registry) {
	def := reg.Default().Name
	for _, name := range reg.Names() {
		d, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		marker := ""
		if name == def {
			marker = " " + successStyle.Render("(default)")
		}
		fmt.Fprintf(w, "%s%s %s\n", titleStyle.Render(name), marker,
			dimStyle.Render(fmt.Sprintf("max depth %d", d.MaxDepth)))
		if d.Description != "" {
			fmt.Fprintf(w, "  %s\n", d.Description)
		}
		rules := make([]string, len(d.Rules))
		for i, r := range d.Rules {
			rules[i] = fmt.Sprintf("%s(%s)", r.Name, r.Kind)
		}
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("rules:"), strings.Join(rules, " > "))
		if d.RestartLetters {
			fmt.Fprintf(w, "  %s container %q\n", dimStyle.Render("letter restart:"), d.ContainerTitle)
		}
		if len(d.TableColumns) > 0 {
			fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("table columns:"), strings.Join(d.TableColumns, ", "))
		}
		if ex := d.Source().Exclude; !ex.IsEmpty() {
			var parts []string
			parts = append(parts, ex.Codes...)
			for _, p := range ex.CodePrefixes {
				parts = append(parts, p+"*")
			}
			for _, t := range ex.Titles {
				parts = append(parts, "/"+t+"/")
			}
			fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("excludes:"), strings.Join(parts, ", "))
		}
	}
}
