// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store <file|dir|->...",
	Short: "Parse documents and save their topics to the database",
	Long: `Store parses documents like parse does and writes each successful result
to <data-dir>/curriculum.db in its own transaction. Re-storing a document
replaces its earlier topics. Parent codes are resolved to row ids in one pass
per document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStore,
}

func runStore(cmd *cobra.Command, args []string) error {
	outcomes, sum, err := parseArgs(cmd, args)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Run != nil {
			renderDiagnostics(os.Stderr, o.Run)
		}
	}

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	saved, err := s.SaveAll(context.Background(), outcomes, os.Stdout)
	if err != nil {
		return err
	}
	renderSummary(os.Stderr, sum, outcomes)

	if sum.HasFailures() || saved.Failed > 0 {
		return fmt.Errorf("%d document(s) failed parsing, %d failed storing", sum.Failed, saved.Failed)
	}
	return nil
}

func init() {
	storeCmd.Flags().Bool("strict", false, "fail documents whose dialect hint is unknown")
	storeCmd.Flags().String("id", "stdin", "document id for input read from stdin")

	rootCmd.AddCommand(storeCmd)
}
