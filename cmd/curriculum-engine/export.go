// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [document-id]",
	Short: "Export stored topics as nested YAML or JSON",
	Long: `Export writes stored documents with their topics nested under their
parents to <data-dir>/export/<document-id>.yaml (or .json). Without a
document id every stored document is written to curriculum.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	documentID := ""
	if len(args) > 0 {
		documentID = args[0]
	}

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = s.ExportYAML(context.Background(), documentID)
	case "json":
		path, err = s.ExportJSON(context.Background(), documentID)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(exportCmd)
}
