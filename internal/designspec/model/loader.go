// Package model loads token, contract and constraint definitions and keeps
// the current design model snapshot.
package model

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.json
var defaultFS embed.FS

// Definition file base names. Every supported extension is tried.
const (
	TokensName      = "tokens"
	ContractsName   = "contracts"
	ConstraintsName = "constraints"
)

var structuredExts = []string{".json", ".jsonc", ".yaml", ".yml"}

// ErrNoDefinition is returned when a required definition file is absent.
var ErrNoDefinition = errors.New("definition file not found")

// Loader reads definitions from a file system.
type Loader struct {
	fsys   fs.FS
	source string
	logger *slog.Logger
}

// NewLoader reads from fsys. source names the origin in logs and snapshots.
func NewLoader(fsys fs.FS, source string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fsys: fsys, source: source, logger: logger}
}

// DirLoader reads from a directory on disk.
func DirLoader(dir string, logger *slog.Logger) *Loader {
	return NewLoader(os.DirFS(dir), dir, logger)
}

// DefaultLoader reads the definitions embedded in the binary.
func DefaultLoader(logger *slog.Logger) *Loader {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		panic(err)
	}
	return NewLoader(sub, "embedded", logger)
}

// Source describes where the loader reads from.
func (l *Loader) Source() string { return l.source }

// Load reads all three definitions. Token files of every supported format
// are merged in the order json, jsonc, yaml, yml, css; later files win.
func (l *Loader) Load() (*domain.DesignModel, error) {
	tokens, err := l.loadTokens()
	if err != nil {
		return nil, err
	}

	var contracts domain.Contracts
	if err := l.decodeFirst(ContractsName, &contracts); err != nil {
		return nil, err
	}

	var constraints domain.ConstraintSet
	if err := l.decodeFirst(ConstraintsName, &constraints); err != nil {
		return nil, err
	}
	if constraints.Rules == nil {
		constraints.Rules = map[string]domain.Rule{}
	}
	if err := constraints.Check(); err != nil {
		return nil, fmt.Errorf("constraints in %s: %w", l.source, err)
	}

	l.logger.Debug("design model loaded",
		"source", l.source,
		"tokens", len(tokens),
		"contracts", len(contracts),
		"rules", len(constraints.Rules))

	return &domain.DesignModel{Tokens: tokens, Contracts: contracts, Constraints: constraints}, nil
}

func (l *Loader) loadTokens() (domain.Tokens, error) {
	tokens := domain.Tokens{}
	found := false
	for _, ext := range structuredExts {
		name := TokensName + ext
		data, err := fs.ReadFile(l.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var tree map[string]any
		if err := decode(name, data, &tree); err != nil {
			return nil, err
		}
		for k, v := range domain.FlattenTokens(tree) {
			tokens[k] = v
		}
		found = true
	}

	cssName := TokensName + ".css"
	if data, err := fs.ReadFile(l.fsys, cssName); err == nil {
		css, err := ParseCSSTokens(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cssName, err)
		}
		for k, v := range css {
			tokens[k] = v
		}
		found = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", cssName, err)
	}

	if !found {
		return nil, fmt.Errorf("%s in %s: %w", TokensName, l.source, ErrNoDefinition)
	}
	return tokens, nil
}

// decodeFirst decodes the first existing file named base+ext.
func (l *Loader) decodeFirst(base string, v any) error {
	for _, ext := range structuredExts {
		name := base + ext
		data, err := fs.ReadFile(l.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		return decode(name, data, v)
	}
	return fmt.Errorf("%s in %s: %w", base, l.source, ErrNoDefinition)
}

// decode handles JSON with comments and YAML. YAML is normalized through
// JSON so both formats share the same struct tags and custom unmarshalers.
func decode(name string, data []byte, v any) error {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to normalize %s: %w", name, err)
		}
		data = b
	default:
		data = jsonc.ToJSON(data)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// IsDefinitionFile reports whether a file name is one the loader reads.
func IsDefinitionFile(name string) bool {
	base := path.Base(name)
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, path.Ext(base))
	switch stem {
	case TokensName:
		if ext == ".css" {
			return true
		}
	case ContractsName, ConstraintsName:
	default:
		return false
	}
	for _, e := range structuredExts {
		if ext == e {
			return true
		}
	}
	return false
}
