package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const (
	prefStyleVariant = "style_variant"
	prefASCIIOnly    = "ascii_only"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ui_preferences (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			saved_unix INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SavePreferences writes the choices set in p and leaves the others as
// stored.
func (s *SQLiteStore) SavePreferences(ctx context.Context, p Preferences) (err error) {
	rows := map[string]string{}
	if p.StyleVariant != "" {
		rows[prefStyleVariant] = p.StyleVariant
	}
	if p.ASCIIOnly != nil {
		rows[prefASCIIOnly] = strconv.FormatBool(*p.ASCIIOnly)
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ui_preferences(name, value, saved_unix) VALUES(?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, saved_unix = excluded.saved_unix
	`)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	defer stmt.Close()

	saved := s.now().Unix()
	for name, value := range rows {
		if _, err = stmt.ExecContext(ctx, name, value, saved); err != nil {
			return fmt.Errorf("save preference %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// LoadPreferences returns what is stored. Rows this build does not know, or
// whose value no longer parses, are skipped.
func (s *SQLiteStore) LoadPreferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	rows, err := s.db.QueryContext(ctx, `SELECT name, value, saved_unix FROM ui_preferences`)
	if err != nil {
		return p, fmt.Errorf("load preferences: %w", err)
	}
	defer rows.Close()

	var latest int64
	for rows.Next() {
		var name, value string
		var saved int64
		if err := rows.Scan(&name, &value, &saved); err != nil {
			return Preferences{}, fmt.Errorf("load preferences: %w", err)
		}
		switch name {
		case prefStyleVariant:
			p.StyleVariant = value
		case prefASCIIOnly:
			v, err := strconv.ParseBool(value)
			if err != nil {
				continue
			}
			p.ASCIIOnly = &v
		default:
			continue
		}
		latest = max(latest, saved)
	}
	if err := rows.Err(); err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	if latest > 0 {
		p.UpdatedAt = time.Unix(latest, 0)
	}
	return p, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
