// Package history keeps the ordered log of completed exchanges.
//
// The log is most-recent-first. Every append rewrites the persisted form
// so that memory and disk never diverge by more than one write. Within a
// process, Store implementations serialize their operations; two processes
// sharing one JSON file still race and the last whole-file write wins.
package history

import (
	"context"
	"fmt"

	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/message"
)

// Store is the durable exchange log.
type Store interface {
	// List returns every exchange, most recent first. The slice is a copy.
	List(ctx context.Context) ([]message.Exchange, error)

	// Prepend inserts ex at the front of the log and persists it.
	Prepend(ctx context.Context, ex message.Exchange) error

	// Close releases any resources held by the store.
	Close() error
}

// Discard is a Store that keeps nothing. Batch runs use it so they never
// create or read a history file.
var Discard Store = discard{}

type discard struct{}

func (discard) List(context.Context) ([]message.Exchange, error) { return []message.Exchange{}, nil }
func (discard) Prepend(context.Context, message.Exchange) error { return nil }
func (discard) Close() error { return nil }

// Open creates the store selected by cfg.Backend and loads any existing log.
func Open(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "json":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
