// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The query tracker depends only on these interfaces,
// so the SPARQL endpoint, the history archive, and the logging backend can be
// swapped (or stubbed in tests) without touching it.
package ports

import (
	"context"

	"github.com/doeshing/unigraph/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.unigraph/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// GraphStore executes a query against the triple store.
// It returns rows in store order, or a store-defined error for malformed
// queries and execution failures.
type GraphStore interface {
	Query(ctx context.Context, req domain.StoreRequest) (domain.ResultSet, error)
}

// HistoryArchive durably records history entries beyond the in-memory bound.
type HistoryArchive interface {
	Save(entry domain.HistoryEntry) error
	Records(limit int, search string) ([]domain.HistoryEntry, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
