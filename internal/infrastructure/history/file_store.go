package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/pkg/filesystem"
	"github.com/doeshing/unigraph/internal/ports"
)

// FileStore appends history entries to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a history archive backed by path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filesystem.AppPath("history", "history.jsonl")
	}
	return &FileStore{path: path}
}

// Save implements ports.HistoryArchive.
func (f *FileStore) Save(entry domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Records loads entries newest first (best-effort; corrupt lines are skipped).
func (f *FileStore) Records(limit int, search string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var entries []domain.HistoryEntry
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if len(line) == 0 {
			continue
		}
		var e domain.HistoryEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if search != "" && !containsFold(e.Query, search) {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// ExportJSON copies the archive to dest.
func (f *FileStore) ExportJSON(dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		data = nil
	}
	return os.WriteFile(dest, data, 0o644)
}

// containsFold matches substrings ignoring ASCII case, the way SQLite LIKE does.
func containsFold(s, substr string) bool {
	return strings.Contains(lowerASCII(s), lowerASCII(substr))
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

var _ ports.HistoryArchive = (*FileStore)(nil)
