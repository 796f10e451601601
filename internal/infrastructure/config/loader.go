package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/pkg/filesystem"
	"github.com/doeshing/unigraph/internal/ports"
)

// FileLoader loads YAML configuration from ~/.unigraph/config.yaml (overridable via UNIGRAPH_CONFIG).
// Environment variables declared on domain.Config take precedence over file values.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Path returns the file the loader reads from.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		cfg := DefaultConfig()
		if err := writeConfig(path, cfg); err != nil {
			return domain.Config{}, err
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return domain.Config{}, fmt.Errorf("read environment: %w", err)
		}
		return hydrateDefaults(cfg), nil
	}

	var cfg domain.Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	return hydrateDefaults(cfg), nil
}

// Save writes cfg back to the loader's path.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

// Reset overwrites the config with defaults and returns the default snapshot.
func (l *FileLoader) Reset() (domain.Config, error) {
	cfg := DefaultConfig()
	if err := l.Save(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Backup copies the current config file to a timestamped backup.
func (l *FileLoader) Backup() (string, error) {
	path := l.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("UNIGRAPH_CONFIG"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filesystem.AppPath("config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func writeConfig(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Endpoint: domain.EndpointSettings{
			URL: domain.DefaultEndpointURL,
		},
		Query: domain.QuerySettings{
			DefaultLimit:   domain.DefaultQueryLimit,
			TimeoutSeconds: domain.DefaultQueryTimeoutSeconds,
			MaxResults:     domain.DefaultMaxResults,
			OutputFormat:   domain.FormatTable,
		},
		Cache: domain.CacheSettings{
			MaxEntries: domain.DefaultMaxCacheEntries,
		},
		History: domain.HistorySettings{
			MaxEntries: domain.DefaultMaxHistoryEntries,
			Persist:    true,
			Path:       filesystem.AppPath("history", "history.db"),
		},
		Namespaces: domain.DefaultNamespaces(),
		Logging: domain.LoggingSettings{
			Level: "warn",
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Endpoint.URL == "" {
		cfg.Endpoint.URL = domain.DefaultEndpointURL
	}
	if cfg.Query.DefaultLimit == 0 {
		cfg.Query.DefaultLimit = domain.DefaultQueryLimit
	}
	if cfg.Query.TimeoutSeconds == 0 {
		cfg.Query.TimeoutSeconds = domain.DefaultQueryTimeoutSeconds
	}
	if cfg.Query.MaxResults == 0 {
		cfg.Query.MaxResults = domain.DefaultMaxResults
	}
	if cfg.Query.OutputFormat == "" {
		cfg.Query.OutputFormat = domain.FormatTable
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = domain.DefaultMaxHistoryEntries
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filesystem.AppPath("history", "history.db")
	} else {
		cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	}
	if cfg.Namespaces == nil {
		cfg.Namespaces = domain.DefaultNamespaces()
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
