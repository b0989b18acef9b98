// Package cmd provides the designspec command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/config"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/fix"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
	"github.com/spf13/cobra"
)

var (
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "designspec",
	Short: "designspec - design-constrained UI specs over MCP",
	Long: `designspec turns short prompts into styled, constraint-checked button
specs and repairs specs that break design rules.

Without a subcommand it serves the MCP tools over stdio.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", ".", "Project root holding designspec.yaml and the model directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log_level (debug, info, warn, error)")
}

func Execute() error {
	return rootCmd.Execute()
}

// app is the wiring shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	holder *model.Holder
	loader *model.Loader
	engine *pipeline.Engine
}

// loadConfig reads the configuration under --root and installs its logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadConfig(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func setup() (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	holder, loader, err := model.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load design model: %w", err)
	}
	snap := holder.Current()
	logger.Info("design model loaded", "source", snap.Source, "fingerprint", snap.Fingerprint)

	strategy, err := fix.StrategyByName(cfg.RepairStrategy)
	if err != nil {
		return nil, err
	}
	engine, err := pipeline.New(holder, pipeline.Options{
		Strategy:        strategy,
		CacheSize:       cfg.CacheSize,
		MaxRepairRounds: cfg.MaxRepairRounds,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		holder: holder,
		loader: loader,
		engine: engine,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
