package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nadzzz/krishisahay/internal/message"
)

// FileStore keeps the log as a single JSON array on disk.
type FileStore struct {
	path string

	mu        sync.Mutex
	exchanges []message.Exchange
}

// OpenFile loads the JSON log at path. A missing file starts an empty log;
// nothing is written until the first Prepend.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("history file not found, starting empty", "path", path)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("reading history: %w", err)
	}

	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &s.exchanges); err != nil {
			return nil, fmt.Errorf("decoding history %s: %w", path, err)
		}
	}
	slog.Info("history loaded", "path", path, "exchanges", len(s.exchanges))
	return s, nil
}

// List returns a copy of the log, most recent first.
func (s *FileStore) List(_ context.Context) ([]message.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]message.Exchange, len(s.exchanges))
	copy(out, s.exchanges)
	return out, nil
}

// Prepend inserts ex at index 0 and rewrites the whole file. The in-memory
// log keeps the new entry even if the write fails.
func (s *FileStore) Prepend(_ context.Context, ex message.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges = append([]message.Exchange{ex}, s.exchanges...)
	if err := s.write(); err != nil {
		return err
	}
	slog.Debug("history written", "path", s.path, "exchanges", len(s.exchanges))
	return nil
}

// Close is a no-op; every Prepend already flushed the file.
func (s *FileStore) Close() error { return nil }

// write serializes the full log, 2-space indented, with non-ASCII and HTML
// characters kept literal.
func (s *FileStore) write() error {
	data, err := Encode(s.exchanges)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating history dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Encode renders exchanges in the on-disk format. Non-ASCII text and HTML
// characters are written literally. U+2028 and U+2029 are the exception:
// encoding/json always writes them as \u2028 and \u2029, which decode back
// to the same characters.
func Encode(exchanges []message.Exchange) ([]byte, error) {
	if exchanges == nil {
		exchanges = []message.Exchange{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exchanges); err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
