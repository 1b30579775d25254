// Package main provides the CLI entry point for deckfill.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"deckfill/pkg/deckfill"
)

var (
	inputDir    string
	outputDir   string
	month       string
	templateTpl string
	outputName  string
	mappingPath string
	verbose     bool

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deckfill",
		Short: "Fill the monthly report deck from spreadsheet inputs",
		Long: `deckfill reads the month's spreadsheet files, writes their rows into
the fixed table cells of the report template, patches the month on the
title slide, and saves the result. Charts, images and every untargeted
slide pass through unchanged.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
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
		RunE: run,
	}

	rootCmd.Flags().StringVar(&inputDir, "input-dir", "excel_files", "Directory containing the month's spreadsheet files")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "output", "Output directory for the generated deck")
	rootCmd.Flags().StringVar(&month, "month", "", `Month label (e.g. "Sep'25", "September 2025"); defaults to the current month`)
	rootCmd.Flags().StringVar(&templateTpl, "template", "AIL LT - Sep'25.pptx", "Path to the template deck")
	rootCmd.Flags().StringVar(&outputName, "output-name", "", "Custom output filename (optional)")
	rootCmd.Flags().StringVar(&mappingPath, "mapping", "", "Report mapping YAML (optional, default: built-in layout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	result, err := deckfill.Run(deckfill.Options{
		InputDir:    inputDir,
		OutputDir:   outputDir,
		Month:       month,
		Template:    templateTpl,
		OutputName:  outputName,
		MappingPath: mappingPath,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info("deck saved",
		zap.String("output", result.OutputPath),
		zap.Int("slides", result.Slides),
		zap.String("month", result.Month.String()))
	return nil
}
