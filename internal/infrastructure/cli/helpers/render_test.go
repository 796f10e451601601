package helpers

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/unigraph/internal/domain"
)

func sampleResponse() domain.QueryResponse {
	return domain.QueryResponse{
		Query: "SELECT ?student ?name WHERE { ?student univ:hasName ?name } LIMIT 100",
		Result: domain.ResultSet{
			Vars: []string{"student", "name", "gpa"},
			Rows: []domain.Row{
				{
					"student": domain.ReferenceValue(domain.UniversityNamespace + "Student_1"),
					"name":    domain.StringValue("Alice, Jr.", ""),
					"gpa":     domain.NumberValue(3.7, "3.7", ""),
				},
				{
					"student": domain.ReferenceValue(domain.UniversityNamespace + "Student_2"),
					"name":    domain.StringValue("Bob\nSmith", ""),
				},
			},
		},
		FromCache: true,
		Duration:  1500 * time.Microsecond,
	}
}

func TestRenderTableUsesLocalNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, sampleResponse(), domain.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Student_1")
	assert.NotContains(t, out, domain.UniversityNamespace)
	assert.Contains(t, out, "Bob Smith")
	assert.Contains(t, out, "2 rows from cache in 2ms")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, sampleResponse(), domain.FormatJSON))

	var decoded jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.FromCache)
	assert.Equal(t, []string{"student", "name", "gpa"}, decoded.Vars)
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, domain.UniversityNamespace+"Student_1", decoded.Rows[0]["student"])
	assert.Equal(t, 3.7, decoded.Rows[0]["gpa"])
	assert.Nil(t, decoded.Rows[1]["gpa"])
}

func TestRenderCSVKeepsFullValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, sampleResponse(), domain.FormatCSV))

	lines := strings.SplitN(buf.String(), "\n", 2)
	assert.Equal(t, "student,name,gpa", lines[0])
	assert.Contains(t, buf.String(), `"Alice, Jr."`)
	assert.Contains(t, buf.String(), domain.UniversityNamespace+"Student_1")
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	err := RenderResponse(&bytes.Buffer{}, sampleResponse(), "xml")
	assert.Error(t, err)
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat("JSON"))
}

func TestPreviewQuery(t *testing.T) {
	long := "SELECT ?s\n  WHERE { " + strings.Repeat("?s ?p ?o . ", 20) + "}"

	got := PreviewQuery(long, 80)

	assert.Len(t, got, 83)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.False(t, strings.Contains(got, "\n"))
	assert.Equal(t, "SELECT ?s", PreviewQuery("SELECT   ?s", 80))
}

func TestPreviewQueryKeepsMultibyteRunesWhole(t *testing.T) {
	query := `SELECT ?s WHERE { ?s univ:name "` + strings.Repeat("é", 40) + `" }`

	got := PreviewQuery(query, 40)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 43, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "é..."))
	assert.Equal(t, "école", PreviewQuery("école", 5))
}

func TestRenderHistoryMostRecentFirst(t *testing.T) {
	now := time.Now()
	entries := []domain.HistoryEntry{
		{Query: "SELECT ?old WHERE {}", Timestamp: now.Add(-time.Hour), ResultCount: 1, ExecutionTime: 250 * time.Millisecond},
		{Query: "SELECT ?new WHERE {}", Timestamp: now, ResultCount: 3, FromCache: true},
	}
	var buf bytes.Buffer

	RenderHistory(&buf, entries)

	out := buf.String()
	assert.Less(t, strings.Index(out, "?new"), strings.Index(out, "?old"))
	assert.Contains(t, out, "[cached]")
	assert.Contains(t, out, "0.250")
	assert.Contains(t, out, "1 hour ago")
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderHistory(&buf, nil)
	assert.Equal(t, "No history recorded yet.\n", buf.String())
}

func TestRenderStats(t *testing.T) {
	var buf bytes.Buffer
	RenderStats(&buf, domain.CacheStats{Entries: 3, Capacity: 1000, Hits: 3, Misses: 1, HistoryLen: 1, HistoryCapacity: 100})

	assert.Contains(t, buf.String(), "Cached results: 3 / 1,000")
	assert.Contains(t, buf.String(), "Hit rate: 75.0%")
}
