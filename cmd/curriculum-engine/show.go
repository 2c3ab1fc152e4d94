// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show [document-id [code]]",
	Short: "List stored documents or browse a document's topics",
	Long: `Without arguments, show lists every stored document with its parse
summary. With a document id it prints the root topics; with a code it prints
that topic's direct children.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if len(args) == 0 {
		docs, err := s.Documents(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No documents stored.")
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(os.Stdout, "%s %s\n", titleStyle.Render(d.ID), dimStyle.Render("("+d.Dialect+", parsed "+d.ParsedAt+")"))
			fmt.Fprintf(os.Stdout, "  %d topics (%s), %d discarded, %d dropped, %d excluded\n",
				d.Summary.TotalTopics, formatLevels(d.Summary.PerLevel),
				d.Summary.Discarded(), d.Summary.DroppedTokens, d.Summary.ExcludedTopics)
		}
		return nil
	}

	code := ""
	if len(args) > 1 {
		code = args[1]
	}
	topics, err := s.Children(ctx, args[0], code)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		fmt.Println("No topics found.")
		return nil
	}
	for _, t := range topics {
		fmt.Fprintf(os.Stdout, "%s %s\n", codeStyle.Render(t.Code), t.Title)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
}
