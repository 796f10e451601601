package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/unigraph/internal/application/query"
	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/infrastructure/history"
	"github.com/doeshing/unigraph/internal/pkg/logger"
)

type stubStore struct {
	calls   int
	queries []string
	err     error
}

func (s *stubStore) Query(_ context.Context, req domain.StoreRequest) (domain.ResultSet, error) {
	s.calls++
	s.queries = append(s.queries, req.Query)
	if s.err != nil {
		return domain.ResultSet{}, s.err
	}
	return domain.ResultSet{
		Vars: []string{"student", "name"},
		Rows: []domain.Row{{
			"student": domain.ReferenceValue(domain.UniversityNamespace + "S001"),
			"name":    domain.StringValue("Alice", ""),
		}},
	}, nil
}

func newSession(t *testing.T, store *stubStore) (*ConsoleSession, *bytes.Buffer) {
	t.Helper()
	svc, err := query.NewService(query.Dependencies{Store: store, Logger: logger.NewNop()}, query.Options{})
	require.NoError(t, err)
	cfg := domain.Config{Query: domain.QuerySettings{DefaultLimit: 100, MaxResults: 1000, OutputFormat: domain.FormatTable}}
	var out bytes.Buffer
	return NewConsoleSession(svc, cfg, &out), &out
}

func TestConsoleSessionRunsQueriesAndCaches(t *testing.T) {
	store := &stubStore{}
	session, out := newSession(t, store)
	ctx := context.Background()

	assert.False(t, session.Execute(ctx, "SELECT ?student ?name WHERE { ?student univ:name ?name }"))
	assert.False(t, session.Execute(ctx, "SELECT ?student   ?name WHERE { ?student univ:name ?name }"))

	assert.Equal(t, 1, store.calls)
	assert.Contains(t, store.queries[0], "LIMIT 100")
	assert.Contains(t, out.String(), "S001")
	assert.Contains(t, out.String(), "1 row from store")
	assert.Contains(t, out.String(), "1 row from cache")
}

func TestConsoleSessionCommands(t *testing.T) {
	store := &stubStore{}
	session, out := newSession(t, store)
	ctx := context.Background()

	session.Execute(ctx, ":limit 5")
	session.Execute(ctx, "SELECT ?s WHERE { ?s ?p ?o }")
	require.Len(t, store.queries, 1)
	assert.True(t, strings.HasSuffix(store.queries[0], "LIMIT 5"))

	out.Reset()
	session.Execute(ctx, ":history")
	assert.Contains(t, out.String(), "SELECT ?s WHERE { ?s ?p ?o } LIMIT 5")

	out.Reset()
	session.Execute(ctx, ":clear-history")
	session.Execute(ctx, ":history")
	assert.Contains(t, out.String(), MsgHistoryCleared)
	assert.Contains(t, out.String(), MsgNoHistoryRecorded)

	session.Execute(ctx, ":clear-cache")
	session.Execute(ctx, "SELECT ?s WHERE { ?s ?p ?o }")
	assert.Equal(t, 2, store.calls)

	out.Reset()
	session.Execute(ctx, ":format csv")
	session.Execute(ctx, ":template all_students")
	assert.Contains(t, out.String(), "student,name")
	assert.Contains(t, store.queries[len(store.queries)-1], "LIMIT 50")

	out.Reset()
	session.Execute(ctx, ":format xml")
	session.Execute(ctx, ":template missing")
	session.Execute(ctx, ":bogus")
	assert.Contains(t, out.String(), `unknown format "xml"`)
	assert.Contains(t, out.String(), "unknown query template")
	assert.Contains(t, out.String(), "unknown command :bogus")

	assert.True(t, session.Execute(ctx, ":quit"))
	assert.True(t, session.Execute(ctx, ":q"))
}

func TestConsoleSessionRerunsHistoryEntries(t *testing.T) {
	store := &stubStore{}
	session, out := newSession(t, store)
	ctx := context.Background()

	session.Execute(ctx, "SELECT ?a WHERE { ?a ?b ?c }")
	session.Execute(ctx, "SELECT ?x WHERE { ?x ?y ?z }")
	require.Equal(t, 2, store.calls)

	session.Execute(ctx, ":clear-cache")
	out.Reset()
	session.Execute(ctx, ":rerun 2")
	require.Equal(t, 3, store.calls)
	assert.Equal(t, "SELECT ?a WHERE { ?a ?b ?c } LIMIT 100", store.queries[2])
	assert.Contains(t, out.String(), "1 row from store")

	out.Reset()
	session.Execute(ctx, ":rerun 1")
	assert.Equal(t, 3, store.calls)
	assert.Contains(t, out.String(), "1 row from cache")

	out.Reset()
	session.Execute(ctx, ":rerun 9")
	session.Execute(ctx, ":rerun x")
	session.Execute(ctx, ":rerun")
	assert.Equal(t, 3, store.calls)
	assert.Contains(t, out.String(), `no history entry "9" (have 3)`)
	assert.Contains(t, out.String(), `no history entry "x"`)
	assert.Contains(t, out.String(), "usage: :rerun <n>")
}

func TestConsoleSessionReportsStoreErrors(t *testing.T) {
	store := &stubStore{err: errors.New("parse error at line 1")}
	session, out := newSession(t, store)
	ctx := context.Background()

	session.Execute(ctx, "SELEC nonsense")
	assert.Contains(t, out.String(), "error: parse error at line 1")

	out.Reset()
	session.Execute(ctx, ":history")
	assert.Contains(t, out.String(), MsgNoHistoryRecorded)
}

func TestConsoleSessionRunLinesStopsAtQuit(t *testing.T) {
	store := &stubStore{}
	session, _ := newSession(t, store)

	input := strings.NewReader("SELECT ?a WHERE { ?a ?b ?c }\n\n:quit\nSELECT ?x WHERE { ?x ?y ?z }\n")
	require.NoError(t, session.RunLines(context.Background(), input))
	assert.Equal(t, 1, store.calls)
}

func TestResolveQueryText(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "q.rq")
	require.NoError(t, os.WriteFile(file, []byte("ASK { ?s ?p ?o }"), 0o600))

	text, err := resolveQueryText([]string{"SELECT", "?s", "WHERE", "{ ?s ?p ?o }"}, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", text)

	text, err = resolveQueryText(nil, "", file, nil)
	require.NoError(t, err)
	assert.Equal(t, "ASK { ?s ?p ?o }", text)

	text, err = resolveQueryText(nil, "", "-", strings.NewReader("DESCRIBE <x>"))
	require.NoError(t, err)
	assert.Equal(t, "DESCRIBE <x>", text)

	text, err = resolveQueryText([]string{"ignored"}, "all_professors", "", nil)
	require.NoError(t, err)
	assert.Contains(t, text, "univ:Professor")

	_, err = resolveQueryText(nil, "nope", "", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownTemplate)

	_, err = resolveQueryText(nil, "", "", nil)
	assert.EqualError(t, err, ErrQueryOrTemplateRequired)
}

func TestTimeoutSeconds(t *testing.T) {
	assert.Equal(t, 0, timeoutSeconds(0))
	assert.Equal(t, 1, timeoutSeconds(200*time.Millisecond))
	assert.Equal(t, 30, timeoutSeconds(30*time.Second))
	assert.Equal(t, 2, timeoutSeconds(1500*time.Millisecond))
}

func TestListHistoryEntriesNewestFirst(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(domain.HistoryEntry{ID: "1", Query: "SELECT ?first WHERE {}", Timestamp: base, ResultCount: 3}))
	require.NoError(t, store.Save(domain.HistoryEntry{ID: "2", Query: "SELECT ?second WHERE {}", Timestamp: base.Add(time.Minute), ResultCount: 7}))

	var out bytes.Buffer
	require.NoError(t, listHistoryEntries(&out, store, 10, ""))
	text := out.String()
	assert.Less(t, strings.Index(text, "?second"), strings.Index(text, "?first"))

	out.Reset()
	require.NoError(t, listHistoryEntries(&out, store, 10, "first"))
	assert.Contains(t, out.String(), "?first")
	assert.NotContains(t, out.String(), "?second")

	assert.EqualError(t, listHistoryEntries(&out, nil, 10, ""), ErrHistoryStoreUnavailable)
}

func TestDisplayVersionInformation(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, displayVersionInformation(&out))
	assert.Contains(t, out.String(), "unigraph version")
	assert.Contains(t, out.String(), "Go version:")
}
