package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Query execution defaults
const (
	// DefaultQueryLimit is appended to queries that carry no LIMIT clause
	DefaultQueryLimit = 100
	// DefaultQueryTimeoutSeconds is passed to the store when callers give none
	DefaultQueryTimeoutSeconds = 30
	// DefaultMaxResults caps the limit a caller may request
	DefaultMaxResults = 1000
	// DefaultEndpointURL is a local Fuseki dataset
	DefaultEndpointURL = "http://localhost:3030/university/sparql"
	// DefaultHTTPClientTimeout bounds requests that carry no per-query timeout
	DefaultHTTPClientTimeout = 60 * time.Second
)

// Cache and history bounds
const (
	// DefaultMaxCacheEntries is the LRU capacity of the result cache
	DefaultMaxCacheEntries = 1000
	// DefaultMaxHistoryEntries is the trailing history bound
	DefaultMaxHistoryEntries = 100
	// DefaultHistoryListLimit is the number of entries shown by history views
	DefaultHistoryListLimit = 50
	// HistoryPreviewWidth truncates query text in history listings
	HistoryPreviewWidth = 80
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// UniversityNamespace is the ontology namespace bound to the univ: prefix.
const UniversityNamespace = "http://www.semanticweb.org/khaled/ontologies/2024/university-management#"

// DefaultNamespaces returns the prefix bindings queries may use without declaring them.
func DefaultNamespaces() map[string]string {
	return map[string]string{
		"univ": UniversityNamespace,
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
		"owl":  "http://www.w3.org/2002/07/owl#",
		"xsd":  "http://www.w3.org/2001/XMLSchema#",
		"foaf": "http://xmlns.com/foaf/0.1/",
	}
}

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
	// DisplayTimestampFormat is used by history listings
	DisplayTimestampFormat = "2006-01-02 15:04:05"
)
