package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
)

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List the available dialects and their rule order",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := dialect.Load(pipelineConfig().Engine)
		if err != nil {
			return err
		}
		renderDialects(os.Stdout, reg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dialectsCmd)
}
