package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/pkg/filesystem"
	"github.com/doeshing/unigraph/internal/ports"
)

// sortableTime keeps a fixed fraction width so timestamps order lexically.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore archives query history in a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// DefaultPath is ~/.unigraph/history/history.db.
func DefaultPath() string {
	return filesystem.AppPath("history", "history.db")
}

// NewSQLiteStore creates (or opens) the database at path. When SQLite is
// unusable the store degrades to a JSONL file next to it.
func NewSQLiteStore(path string) *SQLiteStore {
	if path == "" {
		path = DefaultPath()
	}
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	fallback := NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path, fallback: fallback}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		timestamp TEXT,
		query TEXT,
		result_count INTEGER,
		execution_time_ns INTEGER,
		from_cache INTEGER
	);`)
	return err
}

// Degraded reports whether the store is writing to its JSONL fallback.
func (s *SQLiteStore) Degraded() bool {
	return s.db == nil
}

// Save inserts a new entry.
func (s *SQLiteStore) Save(entry domain.HistoryEntry) error {
	if s.db == nil {
		return s.fallback.Save(entry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO query_history
		(id, timestamp, query, result_count, execution_time_ns, from_cache)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(sortableTime),
		entry.Query,
		entry.ResultCount,
		int64(entry.ExecutionTime),
		boolToInt(entry.FromCache),
	)
	return err
}

// Records returns archived entries newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.HistoryEntry, error) {
	if s.db == nil {
		return s.fallback.Records(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, query, result_count, execution_time_ns, from_cache FROM query_history")
	var args []interface{}
	if search != "" {
		builder.WriteString(` WHERE query LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	builder.WriteString(" ORDER BY timestamp DESC, rowid DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var ts string
		var nanos int64
		var fromCache int
		if err := rows.Scan(&e.ID, &ts, &e.Query, &e.ResultCount, &nanos, &fromCache); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = t
		}
		e.ExecutionTime = time.Duration(nanos)
		e.FromCache = fromCache == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all archived entries.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM query_history")
	return err
}

// ExportJSON writes the archive to a jsonl file, oldest entry first.
func (s *SQLiteStore) ExportJSON(dest string) error {
	if s.db == nil {
		return s.fallback.ExportJSON(dest)
	}
	entries, err := s.Records(0, "")
	if err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for i := len(entries) - 1; i >= 0; i-- {
		if err := enc.Encode(entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the active backing path.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// escapeLike makes % and _ in search match literally.
func escapeLike(search string) string {
	return likeEscaper.Replace(search)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryArchive = (*SQLiteStore)(nil)
