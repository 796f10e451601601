package domain

import "time"

// QueryRequest captures a query issued by the CLI, console, or tool server.
type QueryRequest struct {
	Text string
	// Limit is appended as a LIMIT clause when Text has none. <= 0 uses the default.
	Limit int
	// TimeoutSeconds is handed to the store; <= 0 uses the default.
	TimeoutSeconds int
}

// QueryResponse is the canonical response propagated back to callers.
type QueryResponse struct {
	// Query is the text submitted to the store, after limit injection.
	Query     string
	Key       string
	Result    ResultSet
	FromCache bool
	Duration  time.Duration
}

// StoreRequest is what the tracker hands to a graph store.
type StoreRequest struct {
	Query   string
	Timeout time.Duration
}
