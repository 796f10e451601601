// Package sparql implements ports.GraphStore over the SPARQL 1.1 Protocol.
package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/ports"
)

const (
	resultsContentType = "application/sparql-results+json"
	formContentType    = "application/x-www-form-urlencoded"
	maxErrorBody       = 2048
)

var (
	// ErrMalformedQuery matches errors for queries the endpoint rejected as invalid.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrStoreFailure matches any other non-success response from the endpoint.
	ErrStoreFailure = errors.New("graph store failure")
)

// QueryError carries the endpoint's response for a failed query.
type QueryError struct {
	StatusCode int
	Message    string
}

func (e *QueryError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sparql endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("sparql endpoint returned %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match QueryError against ErrMalformedQuery and ErrStoreFailure.
func (e *QueryError) Is(target error) bool {
	switch target {
	case ErrMalformedQuery:
		return e.StatusCode == http.StatusBadRequest
	case ErrStoreFailure:
		return e.StatusCode != http.StatusBadRequest
	}
	return false
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	Username   string
	Password   string
	Namespaces map[string]string
	HTTPClient *http.Client
	Logger     ports.Logger
}

// Client sends queries to a SPARQL endpoint and decodes JSON results.
type Client struct {
	endpoint   string
	username   string
	password   string
	prefixes   []prefixBinding
	httpClient *http.Client
	logger     ports.Logger
}

type prefixBinding struct {
	name string
	iri  string
}

// NewClient validates the endpoint and builds a client.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid sparql endpoint %q", opts.Endpoint)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: domain.DefaultHTTPClientTimeout}
	}
	names := make([]string, 0, len(opts.Namespaces))
	for name := range opts.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	prefixes := make([]prefixBinding, 0, len(names))
	for _, name := range names {
		prefixes = append(prefixes, prefixBinding{name: name, iri: opts.Namespaces[name]})
	}
	return &Client{
		endpoint:   opts.Endpoint,
		username:   opts.Username,
		password:   opts.Password,
		prefixes:   prefixes,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Query implements ports.GraphStore.
func (c *Client) Query(ctx context.Context, req domain.StoreRequest) (domain.ResultSet, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set("query", c.withPrefixes(req.Query))
	if req.Timeout > 0 {
		form.Set("timeout", strconv.FormatInt(req.Timeout.Milliseconds(), 10))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.ResultSet{}, err
	}
	httpReq.Header.Set("content-type", formContentType)
	httpReq.Header.Set("accept", resultsContentType)
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.ResultSet{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.ResultSet{}, &QueryError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return domain.ResultSet{}, err
	}
	rs, err := DecodeResults(body.Bytes())
	if err != nil {
		return domain.ResultSet{}, err
	}
	if c.logger != nil {
		c.logger.Debug("sparql round-trip", map[string]interface{}{
			"endpoint": c.endpoint,
			"rows":     rs.Len(),
			"elapsed":  time.Since(start).String(),
		})
	}
	return rs, nil
}

var prefixDeclPattern = regexp.MustCompile(`(?i)\bPREFIX\s+([A-Za-z][\w.-]*)?:`)

// withPrefixes prepends PREFIX declarations for configured namespaces the
// query does not declare itself.
func (c *Client) withPrefixes(query string) string {
	if len(c.prefixes) == 0 {
		return query
	}
	declared := map[string]bool{}
	for _, m := range prefixDeclPattern.FindAllStringSubmatch(query, -1) {
		declared[m[1]] = true
	}
	var b strings.Builder
	for _, p := range c.prefixes {
		if declared[p.name] {
			continue
		}
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.name, p.iri)
	}
	if b.Len() == 0 {
		return query
	}
	b.WriteString(query)
	return b.String()
}

type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Boolean *bool `json:"boolean"`
	Results struct {
		Bindings []map[string]term `json:"bindings"`
	} `json:"results"`
}

type term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype"`
	Lang     string `json:"xml:lang"`
}

const xsd = "http://www.w3.org/2001/XMLSchema#"

// DecodeResults parses an application/sparql-results+json document.
func DecodeResults(data []byte) (domain.ResultSet, error) {
	var doc resultsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.ResultSet{}, fmt.Errorf("decode sparql results: %w", err)
	}
	if doc.Boolean != nil {
		return domain.ResultSet{
			Vars: []string{"result"},
			Rows: []domain.Row{{"result": domain.TypedStringValue(strconv.FormatBool(*doc.Boolean), xsd+"boolean")}},
		}, nil
	}
	rs := domain.ResultSet{
		Vars: doc.Head.Vars,
		Rows: make([]domain.Row, 0, len(doc.Results.Bindings)),
	}
	for _, binding := range doc.Results.Bindings {
		row := make(domain.Row, len(binding))
		for name, t := range binding {
			row[name] = decodeTerm(t)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func decodeTerm(t term) domain.Value {
	switch t.Type {
	case "uri":
		return domain.ReferenceValue(t.Value)
	case "bnode":
		return domain.ReferenceValue("_:" + t.Value)
	}
	if t.Lang != "" || t.Datatype == "" {
		return domain.StringValue(t.Value, t.Lang)
	}
	local := strings.TrimPrefix(t.Datatype, xsd)
	switch local {
	case "integer", "int", "long", "short", "byte", "decimal", "double", "float",
		"nonNegativeInteger", "positiveInteger", "negativeInteger", "nonPositiveInteger",
		"unsignedInt", "unsignedLong", "unsignedShort", "unsignedByte":
		if n, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64); err == nil {
			return domain.NumberValue(n, t.Value, t.Datatype)
		}
	case "date":
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(t.Value)); err == nil {
			return domain.DateValue(d, t.Value, t.Datatype)
		}
	case "dateTime":
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
			if d, err := time.Parse(layout, strings.TrimSpace(t.Value)); err == nil {
				return domain.DateValue(d, t.Value, t.Datatype)
			}
		}
	}
	return domain.TypedStringValue(t.Value, t.Datatype)
}

var _ ports.GraphStore = (*Client)(nil)
