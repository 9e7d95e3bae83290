// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litreview CLI.
// Implements: prd001-query, prd007-report, prd008-workflow,
//             prd009-archive, prd011-api (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/litreview/internal/secrets"
)

// version and commit are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets *secrets.Store

// secretDefault resolves a credential by precedence: the explicit value,
// the key's environment variable, then the .secrets/ directory.
func secretDefault(key, fallback string) string {
	if loadedSecrets == nil {
		return fallback
	}
	return loadedSecrets.Resolve(key, fallback)
}

var verbose bool

// logger is shared by all commands. Built in PersistentPreRunE, synced
// in PersistentPostRun.
var logger *zap.Logger

// rootCmd is the base command for the litreview CLI.
var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "Multi-stage literature review assistant",
	Long: `litreview runs evidence-based literature reviews. A review pipeline
searches academic APIs for candidate papers, cross-checks each candidate
against independent sources, analyzes the survivors with a language model,
extracts their limitations, and synthesizes research gaps into a report.

Each surface is a subcommand: run executes the full pipeline, search runs
candidate retrieval on its own, serve exposes the pipeline over HTTP, and
history browses archived reports.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if s.Len() > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litreview")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	viper.SetEnvPrefix("LITREVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
