package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/clausegest/internal/config"
	"github.com/dgallion1/clausegest/internal/pipeline"
)

var version = "dev"

var (
	configPath string
	dataDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "clausegest",
	Short: "Convert standards PDFs into clause records for search and recommendation",
	Long: `clausegest turns extractor output for standards documents into a
hierarchical clause schema, per-clause chunk records, scope summaries
and a local search index.

Stages run in order: marker, collect, schema, chunks, scope. The run
command processes every collected document end to end.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides CLAUSEGEST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// newLogger writes text logs to stderr. Progress below warn is shown only
// with --verbose, which in turn honours a debug LOG_LEVEL.
func newLogger(cfg config.Config) *slog.Logger {
	level := max(cfg.Level(), slog.LevelWarn)
	if verbose {
		level = min(cfg.Level(), slog.LevelInfo)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		os.Setenv("CLAUSEGEST_CONFIG", configPath)
	}
	if dataDir != "" {
		os.Setenv("DATA_DIR", dataDir)
	}
	return config.Load()
}

// openBatch loads configuration and opens every store. The returned
// function closes them.
func openBatch() (*pipeline.Batch, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cfg)
	deps, err := pipeline.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := deps.Close(); err != nil {
			log.Error("closing stores", "error", err)
		}
	}
	return pipeline.NewBatch(cfg, deps, log), closeFn, nil
}
