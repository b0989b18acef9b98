package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Model sources.
const (
	SourceFiles    = "files"
	SourceSQLite   = "sqlite"
	SourceEmbedded = "embedded"
)

// Config controls where the design model comes from and how the server runs.
type Config struct {
	ModelDir        string `json:"model_dir" yaml:"model_dir"`                 // Directory holding tokens/contracts/constraints files.
	ModelSource     string `json:"model_source" yaml:"model_source"`           // files, sqlite or embedded.
	PersistenceDir  string `json:"persistence_dir" yaml:"persistence_dir"`     // Directory of the SQLite database.
	LogLevel        string `json:"log_level" yaml:"log_level"`                 // debug, info, warn or error.
	CacheSize       int    `json:"cache_size" yaml:"cache_size"`               // Resolved view cache entries; 0 disables.
	Watch           bool   `json:"watch" yaml:"watch"`                         // Reload the model directory on change.
	RepairStrategy  string `json:"repair_strategy" yaml:"repair_strategy"`     // second, first or last.
	MaxRepairRounds int    `json:"max_repair_rounds" yaml:"max_repair_rounds"` // Upper bound for auto-repair.
}

// DefaultConfig is used when no config file is found.
var DefaultConfig = Config{
	ModelDir:        "design",
	ModelSource:     SourceFiles,
	PersistenceDir:  ".designspec",
	LogLevel:        "info",
	CacheSize:       256,
	Watch:           true,
	RepairStrategy:  "second",
	MaxRepairRounds: 8,
}

// FileNames are tried in order inside the root directory.
var FileNames = []string{"designspec.yaml", "designspec.yml", "designspec.json"}

// LoadConfig reads the first config file found in rootDir, then applies
// .env and DESIGNSPEC_* environment overrides. A missing file yields the
// defaults. Relative directories are resolved against rootDir.
func LoadConfig(rootDir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(rootDir, ".env"))

	cfg := DefaultConfig
	for _, name := range FileNames {
		content, err := os.ReadFile(filepath.Join(rootDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := parse(name, content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		break
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	// Apply defaults if empty
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultConfig.ModelDir
	}
	if cfg.ModelSource == "" {
		cfg.ModelSource = DefaultConfig.ModelSource
	}
	if cfg.PersistenceDir == "" {
		cfg.PersistenceDir = DefaultConfig.PersistenceDir
	}
	if cfg.MaxRepairRounds <= 0 {
		cfg.MaxRepairRounds = DefaultConfig.MaxRepairRounds
	}
	if !filepath.IsAbs(cfg.ModelDir) {
		cfg.ModelDir = filepath.Join(rootDir, cfg.ModelDir)
	}
	if !filepath.IsAbs(cfg.PersistenceDir) {
		cfg.PersistenceDir = filepath.Join(rootDir, cfg.PersistenceDir)
	}

	switch cfg.ModelSource {
	case SourceFiles, SourceSQLite, SourceEmbedded:
	default:
		return nil, fmt.Errorf("unknown model_source %q", cfg.ModelSource)
	}
	return &cfg, nil
}

func parse(name string, content []byte, cfg *Config) error {
	if strings.HasSuffix(name, ".json") {
		return json.Unmarshal(jsonc.ToJSON(content), cfg)
	}
	return yaml.Unmarshal(content, cfg)
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DESIGNSPEC_MODEL_DIR"); v != "" {
		cfg.ModelDir = v
	}
	if v := os.Getenv("DESIGNSPEC_MODEL_SOURCE"); v != "" {
		cfg.ModelSource = v
	}
	if v := os.Getenv("DESIGNSPEC_PERSISTENCE_DIR"); v != "" {
		cfg.PersistenceDir = v
	}
	if v := os.Getenv("DESIGNSPEC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DESIGNSPEC_REPAIR_STRATEGY"); v != "" {
		cfg.RepairStrategy = v
	}
	if v := os.Getenv("DESIGNSPEC_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DESIGNSPEC_CACHE_SIZE: %w", err)
		}
		cfg.CacheSize = n
	}
	if v := os.Getenv("DESIGNSPEC_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DESIGNSPEC_WATCH: %w", err)
		}
		cfg.Watch = b
	}
	return nil
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger returns a text logger writing to w at the configured level.
// The MCP stdio transport owns stdout, so callers pass stderr.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
