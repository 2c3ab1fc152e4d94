// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the curriculum-engine CLI. It parses
// curriculum documents into hierarchical topic lists, stores them in SQLite,
// and exports or searches the stored topics.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the curriculum-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "curriculum-engine",
	Short: "Extract hierarchical topics from curriculum documents",
	Long: `curriculum-engine turns semi-structured curriculum text into a
hierarchical list of coded topics. Each document is read in a dialect (plain
numbered outline, content table, lettered sub-items, generated outline) that
describes how the document encodes its structure.

Parse prints the topic list; store persists it to a local SQLite database
where it can be exported or searched.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./curriculum-engine.yaml or ~/.config/curriculum-engine/curriculum-engine.yaml)")
	rootCmd.PersistentFlags().String("dialect", dialect.DefaultName, "default dialect for documents without a dialect hint")
	rootCmd.PersistentFlags().String("dialects-file", "", "YAML file with extra or overriding dialects")
	rootCmd.PersistentFlags().Int("workers", 4, "number of documents parsed concurrently")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding curriculum.db and exports")

	for _, key := range []string{"dialect", "dialects-file", "workers", "data-dir"} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("curriculum-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "curriculum-engine"))
		}
	}

	viper.SetEnvPrefix("CURRICULUM_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig reads the resolved flag, env and config file values.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Engine: types.EngineConfig{
			DialectsFile:   viper.GetString("dialects-file"),
			DefaultDialect: viper.GetString("dialect"),
			Workers:        viper.GetInt("workers"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("data-dir"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
