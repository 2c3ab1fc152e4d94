// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Full-text search over stored topic titles",
	Long: `Search matches stored topic titles with SQLite full-text search. The
query uses FTS match syntax, e.g. "photosynthesis", "cell*" or
"enzyme AND protein".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Search(context.Background(), store.SearchOptions{
		Query:      strings.Join(args, " "),
		DocumentID: documentID,
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-12s  %-5s  %s\n", "Document", "Code", "Level", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, r := range results {
		doc := r.DocumentID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-12s  %-5d  %s\n", doc, r.Code, r.Level, r.Title)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	searchCmd.Flags().String("document", "", "restrict results to one document")
	searchCmd.Flags().Int("limit", 20, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
