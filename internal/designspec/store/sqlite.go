package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// DBName is the database file created inside the storage directory.
const DBName = "designspec.db"

// Store persists design model definitions using SQLite. Resolved views are
// never written here.
type Store struct {
	db *sql.DB
}

// NewStore initializes a new Store in the specified storage directory.
// It creates the directory if it doesn't exist and opens/creates the database.
func NewStore(storageDir string) (*Store, error) {
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	dbPath := filepath.Join(storageDir, DBName)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			path TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS contract_props (
			component TEXT,
			prop TEXT,
			spec TEXT NOT NULL,
			PRIMARY KEY (component, prop)
		);`,
		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			code TEXT PRIMARY KEY,
			template TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS size_tokens (
			size TEXT PRIMARY KEY,
			token TEXT NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec schema query: %w", err)
		}
	}
	return nil
}

// SaveModel replaces the stored definitions with m in one transaction.
func (s *Store) SaveModel(m *domain.DesignModel) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"tokens", "contract_props", "rules", "messages", "size_tokens"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for path, v := range m.Tokens {
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("token %s: %w", path, err)
		}
		if _, err := tx.Exec(`INSERT INTO tokens (path, value) VALUES (?, ?)`, path, string(val)); err != nil {
			return err
		}
	}

	for comp, cc := range m.Contracts {
		for prop, pc := range cc.Props {
			spec, err := json.Marshal(pc)
			if err != nil {
				return fmt.Errorf("contract %s.%s: %w", comp, prop, err)
			}
			if _, err := tx.Exec(`INSERT INTO contract_props (component, prop, spec) VALUES (?, ?, ?)`,
				string(comp), prop, string(spec)); err != nil {
				return err
			}
		}
	}

	for id, r := range m.Constraints.Rules {
		val, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("rule %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO rules (id, kind, value) VALUES (?, ?, ?)`, id, string(r.Kind), string(val)); err != nil {
			return err
		}
	}

	for code, tmpl := range m.Constraints.Messages {
		if _, err := tx.Exec(`INSERT INTO messages (code, template) VALUES (?, ?)`, string(code), tmpl); err != nil {
			return err
		}
	}

	for size, token := range m.Constraints.SizeTokens {
		if _, err := tx.Exec(`INSERT INTO size_tokens (size, token) VALUES (?, ?)`, string(size), token); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadModel reads the stored definitions. An empty database yields an
// empty but usable model.
func (s *Store) LoadModel() (*domain.DesignModel, error) {
	m := &domain.DesignModel{
		Tokens:    domain.Tokens{},
		Contracts: domain.Contracts{},
		Constraints: domain.ConstraintSet{
			Rules:      map[string]domain.Rule{},
			Messages:   map[domain.ViolationCode]string{},
			SizeTokens: map[domain.Size]string{},
		},
	}

	rows, err := s.db.Query("SELECT path, value FROM tokens")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("token %s: %w", path, err)
		}
		m.Tokens[path] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	propRows, err := s.db.Query("SELECT component, prop, spec FROM contract_props")
	if err != nil {
		return nil, err
	}
	defer propRows.Close()
	for propRows.Next() {
		var comp, prop, raw string
		if err := propRows.Scan(&comp, &prop, &raw); err != nil {
			return nil, err
		}
		var pc domain.PropContract
		if err := json.Unmarshal([]byte(raw), &pc); err != nil {
			return nil, fmt.Errorf("contract %s.%s: %w", comp, prop, err)
		}
		cc := m.Contracts[domain.ComponentType(comp)]
		if cc.Props == nil {
			cc.Props = map[string]domain.PropContract{}
		}
		cc.Props[prop] = pc
		m.Contracts[domain.ComponentType(comp)] = cc
	}
	if err := propRows.Err(); err != nil {
		return nil, err
	}

	ruleRows, err := s.db.Query("SELECT id, value FROM rules")
	if err != nil {
		return nil, err
	}
	defer ruleRows.Close()
	for ruleRows.Next() {
		var id, raw string
		if err := ruleRows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var r domain.Rule
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		m.Constraints.Rules[id] = r
	}
	if err := ruleRows.Err(); err != nil {
		return nil, err
	}

	msgRows, err := s.db.Query("SELECT code, template FROM messages")
	if err != nil {
		return nil, err
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var code, tmpl string
		if err := msgRows.Scan(&code, &tmpl); err != nil {
			return nil, err
		}
		m.Constraints.Messages[domain.ViolationCode(code)] = tmpl
	}
	if err := msgRows.Err(); err != nil {
		return nil, err
	}

	sizeRows, err := s.db.Query("SELECT size, token FROM size_tokens")
	if err != nil {
		return nil, err
	}
	defer sizeRows.Close()
	for sizeRows.Next() {
		var size, token string
		if err := sizeRows.Scan(&size, &token); err != nil {
			return nil, err
		}
		m.Constraints.SizeTokens[domain.Size(size)] = token
	}
	if err := sizeRows.Err(); err != nil {
		return nil, err
	}

	if err := m.Constraints.Check(); err != nil {
		return nil, err
	}
	return m, nil
}
