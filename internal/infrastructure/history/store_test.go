package history

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/ports"
)

func sampleEntries() []domain.HistoryEntry {
	base := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	return []domain.HistoryEntry{
		{ID: "a", Query: "SELECT ?s WHERE { ?s a univ:Student } LIMIT 10", Timestamp: base, ResultCount: 4, ExecutionTime: 120 * time.Millisecond},
		{ID: "b", Query: "SELECT ?p WHERE { ?p a univ:Professor } LIMIT 10", Timestamp: base.Add(time.Minute), ResultCount: 2, ExecutionTime: 80 * time.Millisecond},
		{ID: "c", Query: "SELECT ?s WHERE { ?s a univ:Student } LIMIT 10", Timestamp: base.Add(2 * time.Minute), ResultCount: 4, FromCache: true},
	}
}

func exerciseArchive(t *testing.T, archive ports.HistoryArchive, dir string) {
	t.Helper()
	for _, e := range sampleEntries() {
		require.NoError(t, archive.Save(e))
	}

	all, err := archive.Records(0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)
	assert.True(t, all[0].FromCache)
	assert.Equal(t, 120*time.Millisecond, all[2].ExecutionTime)
	assert.True(t, all[2].Timestamp.Equal(sampleEntries()[0].Timestamp))

	limited, err := archive.Records(1, "")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)

	found, err := archive.Records(0, "Professor")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b", found[0].ID)

	dest := filepath.Join(dir, "export.jsonl")
	require.NoError(t, archive.ExportJSON(dest))
	file, err := os.Open(dest)
	require.NoError(t, err)
	defer file.Close()
	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e domain.HistoryEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, archive.Clear())
	all, err = archive.Records(0, "")
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, archive.Clear())
}

func exerciseSearch(t *testing.T, archive ports.HistoryArchive) {
	t.Helper()
	base := time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
	for i, q := range []string{
		"SELECT ?first_name WHERE { ?s univ:name ?first_name } # 100% of students",
		"SELECT ?firstXname WHERE { ?s univ:name ?firstXname } # 1000 students",
		"SELECT ?p WHERE { ?p a univ:Professor }",
	} {
		require.NoError(t, archive.Save(domain.HistoryEntry{ID: q[:12] + string(rune('a'+i)), Query: q, Timestamp: base.Add(time.Duration(i) * time.Minute)}))
	}

	underscore, err := archive.Records(0, "first_name")
	require.NoError(t, err)
	require.Len(t, underscore, 1)
	assert.Contains(t, underscore[0].Query, "?first_name")

	percent, err := archive.Records(0, "100%")
	require.NoError(t, err)
	require.Len(t, percent, 1)
	assert.Contains(t, percent[0].Query, "100%")

	folded, err := archive.Records(0, "PROFESSOR")
	require.NoError(t, err)
	require.Len(t, folded, 1)
	assert.Contains(t, folded[0].Query, "univ:Professor")

	backslash, err := archive.Records(0, `\`)
	require.NoError(t, err)
	assert.Empty(t, backslash)
}

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSQLiteStore(filepath.Join(dir, "history.db"))
	t.Cleanup(func() { _ = store.Close() })

	require.False(t, store.Degraded())
	assert.Equal(t, filepath.Join(dir, "history.db"), store.Path())
	exerciseArchive(t, store, dir)
	exerciseSearch(t, store)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "history.jsonl"))

	exerciseArchive(t, store, dir)
	exerciseSearch(t, store)
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.jsonl")
	store := NewFileStore(path)
	require.NoError(t, store.Save(sampleEntries()[0]))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := store.Records(0, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.jsonl"))

	entries, err := store.Records(10, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
