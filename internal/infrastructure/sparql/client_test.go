package sparql

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/unigraph/internal/domain"
)

const selectResults = `{
  "head": {"vars": ["student", "name", "gpa", "born", "email"]},
  "results": {"bindings": [
    {
      "student": {"type": "uri", "value": "http://www.semanticweb.org/khaled/ontologies/2024/university-management#Student_1"},
      "name": {"type": "literal", "value": "Alice", "xml:lang": "en"},
      "gpa": {"type": "literal", "value": "3.7", "datatype": "http://www.w3.org/2001/XMLSchema#decimal"},
      "born": {"type": "literal", "value": "2001-04-12", "datatype": "http://www.w3.org/2001/XMLSchema#date"}
    },
    {
      "student": {"type": "bnode", "value": "b0"},
      "name": {"type": "literal", "value": "Bob"},
      "gpa": {"type": "literal", "value": "n/a", "datatype": "http://www.w3.org/2001/XMLSchema#decimal"}
    }
  ]}
}`

func TestClientQueryDecodesBindings(t *testing.T) {
	var gotQuery, gotAccept, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")
		gotAccept = r.Header.Get("Accept")
		gotUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", resultsContentType)
		_, _ = w.Write([]byte(selectResults))
	}))
	defer srv.Close()

	client, err := NewClient(Options{
		Endpoint:   srv.URL,
		Username:   "reader",
		Password:   "secret",
		Namespaces: map[string]string{"univ": domain.UniversityNamespace},
	})
	require.NoError(t, err)

	rs, err := client.Query(context.Background(), domain.StoreRequest{Query: "SELECT * WHERE { ?s a univ:Student } LIMIT 10"})
	require.NoError(t, err)

	assert.Equal(t, resultsContentType, gotAccept)
	assert.Equal(t, "reader", gotUser)
	assert.True(t, strings.HasPrefix(gotQuery, "PREFIX univ: <"+domain.UniversityNamespace+">\n"))

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, []string{"student", "name", "gpa", "born", "email"}, rs.Vars)

	first := rs.Rows[0]
	assert.Equal(t, domain.KindReference, first.Get("student").Kind)
	assert.Equal(t, "Student_1", first.Get("student").LocalName())
	assert.Equal(t, "en", first.Get("name").Lang)
	assert.Equal(t, domain.KindNumber, first.Get("gpa").Kind)
	assert.InDelta(t, 3.7, first.Get("gpa").Number, 1e-9)
	assert.Equal(t, domain.KindDate, first.Get("born").Kind)
	assert.Equal(t, 2001, first.Get("born").Time.Year())
	assert.True(t, first.Get("email").IsAbsent())

	second := rs.Rows[1]
	assert.Equal(t, "_:b0", second.Get("student").String())
	assert.Equal(t, domain.KindString, second.Get("gpa").Kind)
	assert.Equal(t, "n/a", second.Get("gpa").String())
}

func TestClientKeepsDeclaredPrefixes(t *testing.T) {
	client, err := NewClient(Options{
		Endpoint: "http://localhost:3030/ds/sparql",
		Namespaces: map[string]string{
			"univ": domain.UniversityNamespace,
			"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		},
	})
	require.NoError(t, err)

	query := "prefix univ: <http://example.org/other#>\nSELECT ?s WHERE { ?s rdf:type univ:Thing }"
	got := client.withPrefixes(query)

	assert.Equal(t, "PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>\n"+query, got)
}

func TestClientQueryMapsErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte("Parse error: Encountered \" \"}\" \"} \"\" at line 1"))
	}))
	defer srv.Close()

	client, err := NewClient(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Query(context.Background(), domain.StoreRequest{Query: "SELECT WHERE }"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedQuery)
	assert.NotErrorIs(t, err, ErrStoreFailure)
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, http.StatusBadRequest, qerr.StatusCode)
	assert.Contains(t, qerr.Error(), "Parse error")

	status.Store(http.StatusInternalServerError)
	_, err = client.Query(context.Background(), domain.StoreRequest{Query: "SELECT * WHERE { ?s ?p ?o }"})
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NotErrorIs(t, err, ErrMalformedQuery)
}

func TestClientQueryHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewClient(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Query(context.Background(), domain.StoreRequest{
		Query:   "SELECT * WHERE { ?s ?p ?o }",
		Timeout: 50 * time.Millisecond,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeResultsAsk(t *testing.T) {
	rs, err := DecodeResults([]byte(`{"head": {}, "boolean": true}`))
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, "true", rs.Rows[0].Get("result").String())
}

func TestDecodeResultsRejectsGarbage(t *testing.T) {
	_, err := DecodeResults([]byte("<html>"))
	assert.Error(t, err)
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	_, err := NewClient(Options{Endpoint: "not a url"})
	assert.Error(t, err)
	_, err = NewClient(Options{Endpoint: ""})
	assert.Error(t, err)
}
