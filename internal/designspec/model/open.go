package model

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/config"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/store"
)

// ErrEmptyStore is returned when the SQLite source holds no definitions.
var ErrEmptyStore = errors.New("design model store is empty; run `designspec import` first")

// Open publishes the initial snapshot from the configured source. The
// returned loader is non-nil only for directory sources, which can be
// watched and reloaded.
func Open(cfg *config.Config, logger *slog.Logger) (*Holder, *Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.ModelSource {
	case config.SourceSQLite:
		st, err := store.NewStore(cfg.PersistenceDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init store: %w", err)
		}
		defer st.Close()
		m, err := st.LoadModel()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load design model from store: %w", err)
		}
		if len(m.Tokens) == 0 && len(m.Contracts) == 0 {
			return nil, nil, ErrEmptyStore
		}
		snap, err := NewSnapshot(m, "sqlite:"+filepath.Join(cfg.PersistenceDir, store.DBName))
		if err != nil {
			return nil, nil, err
		}
		return NewHolder(snap), nil, nil

	case config.SourceFiles:
		if info, err := os.Stat(cfg.ModelDir); err == nil && info.IsDir() {
			l := DirLoader(cfg.ModelDir, logger)
			h, err := load(l)
			if err != nil {
				return nil, nil, err
			}
			return h, l, nil
		}
		logger.Warn("model directory not found, using embedded defaults", "dir", cfg.ModelDir)
	}

	h, err := load(DefaultLoader(logger))
	return h, nil, err
}

func load(l *Loader) (*Holder, error) {
	m, err := l.Load()
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(m, l.Source())
	if err != nil {
		return nil, err
	}
	return NewHolder(snap), nil
}
