package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/ports"
)

// Options tunes a Service. Zero fields take the package defaults.
type Options struct {
	DefaultLimit          int
	DefaultTimeoutSeconds int
	MaxCacheEntries       int
	MaxHistoryEntries     int
	// RecordCacheHits also appends history entries for queries served from
	// the cache. Off by default: only store round-trips are recorded.
	RecordCacheHits bool
}

// OptionsFromConfig maps configuration onto tracker options.
func OptionsFromConfig(cfg domain.Config) Options {
	return Options{
		DefaultLimit:          cfg.EffectiveLimit(0),
		DefaultTimeoutSeconds: cfg.Query.TimeoutSeconds,
		MaxCacheEntries:       cfg.Cache.MaxEntries,
		MaxHistoryEntries:     cfg.History.MaxEntries,
		RecordCacheHits:       cfg.History.RecordCacheHits,
	}
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = domain.DefaultQueryLimit
	}
	if o.DefaultTimeoutSeconds <= 0 {
		o.DefaultTimeoutSeconds = domain.DefaultQueryTimeoutSeconds
	}
	if o.MaxCacheEntries <= 0 {
		o.MaxCacheEntries = domain.DefaultMaxCacheEntries
	}
	if o.MaxHistoryEntries <= 0 {
		o.MaxHistoryEntries = domain.DefaultMaxHistoryEntries
	}
	return o
}

// Dependencies are the adapters a Service talks to. Archive is optional.
type Dependencies struct {
	Store   ports.GraphStore
	Logger  ports.Logger
	Archive ports.HistoryArchive
}

// Service memoizes query results per normalized query text and keeps a
// bounded trailing log of store executions. It is safe for concurrent use;
// concurrent misses on the same key share a single store round-trip.
type Service struct {
	store   ports.GraphStore
	logger  ports.Logger
	archive ports.HistoryArchive
	opts    Options

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	cache   *lru.Cache[string, domain.CachedResult]
	history []domain.HistoryEntry
	hits    uint64
	misses  uint64

	flights singleflight.Group
}

// NewService builds a tracker with empty cache and history.
func NewService(deps Dependencies, opts Options) (*Service, error) {
	if deps.Store == nil || deps.Logger == nil {
		return nil, errors.New("query.Service dependencies not satisfied")
	}
	opts = opts.withDefaults()
	cache, err := lru.New[string, domain.CachedResult](opts.MaxCacheEntries)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:   deps.Store,
		logger:  deps.Logger,
		archive: deps.Archive,
		opts:    opts,
		now:     time.Now,
		newID:   uuid.NewString,
		cache:   cache,
		history: make([]domain.HistoryEntry, 0, opts.MaxHistoryEntries),
	}, nil
}

type flightResult struct {
	cached  domain.CachedResult
	elapsed time.Duration
	hit     bool
}

// ExecuteQuery runs req against the store unless an equivalent query is cached.
// Store errors are returned exactly as the store produced them and leave no
// cache or history entry behind.
func (s *Service) ExecuteQuery(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.QueryResponse{}, domain.ErrEmptyQuery
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	timeoutSeconds := req.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = s.opts.DefaultTimeoutSeconds
	}

	submitted := ApplyLimit(text, limit)
	key := CacheKey(Normalize(submitted))
	started := s.now()

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("query result retrieved from cache", map[string]interface{}{"key": shortKey(key)})
		return s.serveCached(cached, submitted, started), nil
	}

	// The shared store call outlives any one caller's context; each caller
	// stops waiting on its own cancellation. The store still applies the timeout.
	led := false
	flight := s.flights.DoChan(key, func() (interface{}, error) {
		led = true
		if cached, ok := s.cache.Peek(key); ok {
			return flightResult{cached: cached, hit: true}, nil
		}
		return s.execute(context.WithoutCancel(ctx), key, submitted, time.Duration(timeoutSeconds)*time.Second)
	})

	var out singleflight.Result
	select {
	case <-ctx.Done():
		return domain.QueryResponse{}, ctx.Err()
	case out = <-flight:
	}
	if out.Err != nil {
		s.logger.Error("query execution failed", out.Err, map[string]interface{}{"key": shortKey(key)})
		return domain.QueryResponse{}, out.Err
	}

	res := out.Val.(flightResult)
	if !led || res.hit {
		return s.serveCached(res.cached, submitted, started), nil
	}
	return domain.QueryResponse{
		Query:    submitted,
		Key:      key,
		Result:   res.cached.Result.Clone(),
		Duration: res.elapsed,
	}, nil
}

func (s *Service) execute(ctx context.Context, key, submitted string, timeout time.Duration) (flightResult, error) {
	start := s.now()
	rs, err := s.store.Query(ctx, domain.StoreRequest{Query: submitted, Timeout: timeout})
	if err != nil {
		return flightResult{}, err
	}
	elapsed := s.now().Sub(start)

	cached := domain.CachedResult{Key: key, Query: submitted, Result: rs, CreatedAt: start}
	entry := domain.HistoryEntry{
		ID:            s.newID(),
		Query:         submitted,
		Timestamp:     start,
		ResultCount:   rs.Len(),
		ExecutionTime: elapsed,
	}

	s.mu.Lock()
	s.misses++
	s.cache.Add(key, cached)
	s.appendHistoryLocked(entry)
	s.mu.Unlock()

	s.archiveEntry(entry)
	s.logger.Info("query executed", map[string]interface{}{
		"rows":    rs.Len(),
		"elapsed": elapsed.String(),
	})
	return flightResult{cached: cached, elapsed: elapsed}, nil
}

func (s *Service) serveCached(cached domain.CachedResult, submitted string, started time.Time) domain.QueryResponse {
	elapsed := s.now().Sub(started)

	s.mu.Lock()
	s.hits++
	var entry *domain.HistoryEntry
	if s.opts.RecordCacheHits {
		entry = &domain.HistoryEntry{
			ID:            s.newID(),
			Query:         submitted,
			Timestamp:     started,
			ResultCount:   cached.Result.Len(),
			ExecutionTime: elapsed,
			FromCache:     true,
		}
		s.appendHistoryLocked(*entry)
	}
	s.mu.Unlock()

	if entry != nil {
		s.archiveEntry(*entry)
	}
	return domain.QueryResponse{
		Query:     submitted,
		Key:       cached.Key,
		Result:    cached.Result.Clone(),
		FromCache: true,
		Duration:  elapsed,
	}
}

func (s *Service) appendHistoryLocked(entry domain.HistoryEntry) {
	s.history = append(s.history, entry)
	if over := len(s.history) - s.opts.MaxHistoryEntries; over > 0 {
		n := copy(s.history, s.history[over:])
		clear(s.history[n:])
		s.history = s.history[:n]
	}
}

func (s *Service) archiveEntry(entry domain.HistoryEntry) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(entry); err != nil {
		s.logger.Warn("history archive write failed", map[string]interface{}{"error": err.Error()})
	}
}

// ClearCache drops every cached result.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

// QueryHistory returns the most recent limit entries, oldest first.
// limit <= 0 returns everything.
func (s *Service) QueryHistory(limit int) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && limit < len(s.history) {
		start = len(s.history) - limit
	}
	out := make([]domain.HistoryEntry, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// ClearHistory empties the in-memory history.
func (s *Service) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.history)
	s.history = s.history[:0]
}

// CommonQueries returns the built-in templates.
func (s *Service) CommonQueries() map[string]string {
	return CommonQueries()
}

// Stats summarizes cache and history occupancy.
func (s *Service) Stats() domain.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CacheStats{
		Entries:         s.cache.Len(),
		Capacity:        s.opts.MaxCacheEntries,
		Hits:            s.hits,
		Misses:          s.misses,
		HistoryLen:      len(s.history),
		HistoryCapacity: s.opts.MaxHistoryEntries,
	}
}

// CachedResults lists cache contents from least to most recently used.
func (s *Service) CachedResults() []domain.CachedResult {
	return s.cache.Values()
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
