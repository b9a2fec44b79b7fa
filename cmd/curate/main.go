package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ecotraits/curate/pkg/config"
)

var (
	// Global flags
	verbose   bool
	delimiter string
	outputDir string

	// Loaded at startup
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "curate",
	Short: "curate - trait-data validation and cleaning pipeline",
	Long: `curate loads delimited ecological trait observation tables, runs a
declarative validation rule set, applies analyst-specified corrective
transforms with a full audit trail, and writes cleaned tables alongside
diversity summaries and ordination output.

Validation accumulates findings and never halts on the first failure;
corrections are only ever applied from an explicit cleaning plan.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if delimiter != "" {
			runes := []rune(delimiter)
			if delimiter == "\\t" || delimiter == "tab" {
				cfg.Delimiter = '\t'
			} else if len(runes) == 1 {
				cfg.Delimiter = runes[0]
			} else {
				return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
			}
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		// Initialize logger
		zapCfg := zap.NewProductionConfig()
		if cfg.LogFormat == "console" {
			zapCfg = zap.NewDevelopmentConfig()
		}
		if verbose || cfg.LogLevel == "debug" {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
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
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&delimiter, "delimiter", "", "field delimiter (default from DELIMITER env, ',')")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", "", "output directory (default from OUTPUT_DIR env)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(ordinateCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
