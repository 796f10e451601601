package domain

// Config mirrors ~/.unigraph/config.yaml. Fields carrying an env tag can be
// overridden from the environment.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Endpoint            EndpointSettings  `yaml:"endpoint"`
	Query               QuerySettings     `yaml:"query"`
	Cache               CacheSettings     `yaml:"cache"`
	History             HistorySettings   `yaml:"history"`
	Namespaces          map[string]string `yaml:"namespaces"`
	Logging             LoggingSettings   `yaml:"logging"`
}

// EndpointSettings locates the SPARQL endpoint backing the graph store.
type EndpointSettings struct {
	URL      string `yaml:"url" env:"UNIGRAPH_ENDPOINT"`
	Username string `yaml:"username" env:"UNIGRAPH_USERNAME"`
	// Password is only read from the environment.
	Password string `yaml:"-" env:"UNIGRAPH_PASSWORD"`
}

// QuerySettings holds execution defaults.
type QuerySettings struct {
	DefaultLimit   int    `yaml:"default_limit" env:"UNIGRAPH_DEFAULT_LIMIT"`
	TimeoutSeconds int    `yaml:"timeout" env:"UNIGRAPH_TIMEOUT"`
	MaxResults     int    `yaml:"max_results"`
	OutputFormat   string `yaml:"output_format"`
}

// CacheSettings bounds the in-memory result cache.
type CacheSettings struct {
	MaxEntries int `yaml:"max_entries"`
}

// HistorySettings controls the trailing execution log and its archive.
type HistorySettings struct {
	MaxEntries      int    `yaml:"max_entries"`
	RecordCacheHits bool   `yaml:"record_cache_hits"`
	Persist         bool   `yaml:"persist" env:"UNIGRAPH_HISTORY_PERSIST"`
	Path            string `yaml:"path"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level string `yaml:"level" env:"UNIGRAPH_LOG_LEVEL"`
}
