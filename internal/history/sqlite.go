package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nadzzz/krishisahay/internal/message"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps the log in a single SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// One writer at a time keeps inserts ordered by id.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}

	slog.Info("history database opened", "path", path)
	return &SQLiteStore{db: db, path: path}, nil
}

// List returns every exchange, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]message.Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT question, answer, language FROM exchanges ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	out := []message.Exchange{}
	for rows.Next() {
		var ex message.Exchange
		if err := rows.Scan(&ex.Question, &ex.Answer, &ex.Language); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}

// Prepend inserts ex as the newest exchange.
func (s *SQLiteStore) Prepend(ctx context.Context, ex message.Exchange) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (question, answer, language) VALUES (?, ?, ?)`,
		ex.Question, ex.Answer, ex.Language)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	slog.Debug("closing history database", "path", s.path)
	return s.db.Close()
}
