package domain

import "time"

// HistoryEntry is one audit record of a completed query execution.
type HistoryEntry struct {
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	Timestamp     time.Time     `json:"timestamp"`
	ResultCount   int           `json:"result_count"`
	ExecutionTime time.Duration `json:"execution_time_ns"`
	FromCache     bool          `json:"from_cache,omitempty"`
}

// ExecutionSeconds reports the elapsed wall time in seconds.
func (e HistoryEntry) ExecutionSeconds() float64 {
	return e.ExecutionTime.Seconds()
}

// CachedResult stores rows produced for one normalized query.
type CachedResult struct {
	Key       string    `json:"key"`
	Query     string    `json:"query"`
	Result    ResultSet `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// CacheStats summarizes tracker state for display.
type CacheStats struct {
	Entries         int    `json:"entries"`
	Capacity        int    `json:"capacity"`
	Hits            uint64 `json:"hits"`
	Misses          uint64 `json:"misses"`
	HistoryLen      int    `json:"history_len"`
	HistoryCapacity int    `json:"history_capacity"`
}
