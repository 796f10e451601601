package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/unigraph/internal/application/doctor"
	"github.com/doeshing/unigraph/internal/application/query"
	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/infrastructure/config"
	"github.com/doeshing/unigraph/internal/infrastructure/history"
	"github.com/doeshing/unigraph/internal/infrastructure/sparql"
	"github.com/doeshing/unigraph/internal/pkg/logger"
	"github.com/doeshing/unigraph/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	QueryService   *query.Service
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	DoctorService  *doctor.Service
	Store          *sparql.Client
	HistoryStore   ports.HistoryArchive
	Logger         *logger.ZapLogger

	// StoreErr holds why Store could not be built. Store and QueryService
	// stay nil so doctor and config still run against a broken endpoint.
	StoreErr error

	closers []func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return buildFromConfig(cfg, cfgLoader, verbose)
}

func buildFromConfig(cfg domain.Config, cfgLoader *config.FileLoader, verbose bool) (*Container, error) {
	log := logger.New(verbose, cfg.Logging.Level)

	store, err := sparql.NewClient(sparql.Options{
		Endpoint:   cfg.Endpoint.URL,
		Username:   cfg.Endpoint.Username,
		Password:   cfg.Endpoint.Password,
		Namespaces: cfg.Namespaces,
		Logger:     log,
	})

	c := &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
	}
	c.DoctorService = &doctor.Service{ConfigProvider: cfgLoader}
	if err != nil {
		log.Warn("graph store unavailable", map[string]interface{}{"error": err.Error()})
		c.StoreErr = err
		c.DoctorService.StoreErr = err
	} else {
		c.Store = store
		c.DoctorService.Store = store
	}

	var archive ports.HistoryArchive
	if cfg.History.Persist {
		sqliteStore := history.NewSQLiteStore(cfg.History.Path)
		if sqliteStore.Degraded() {
			log.Warn("sqlite unavailable, archiving history as jsonl", map[string]interface{}{"path": sqliteStore.Path()})
		}
		c.closers = append(c.closers, sqliteStore.Close)
		archive = sqliteStore
	}
	c.HistoryStore = archive
	c.DoctorService.Archive = archive

	if c.Store == nil {
		return c, nil
	}
	queryService, err := query.NewService(query.Dependencies{
		Store:   c.Store,
		Logger:  log,
		Archive: archive,
	}, query.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	c.QueryService = queryService
	return c, nil
}

// RequireQueryService returns the query service or the reason it is missing.
func (c *Container) RequireQueryService() (*query.Service, error) {
	if c.QueryService != nil {
		return c.QueryService, nil
	}
	if c.StoreErr != nil {
		return nil, fmt.Errorf("query service unavailable: %w (run 'unigraph config set endpoint.url <url>')", c.StoreErr)
	}
	return nil, errors.New("query service unavailable")
}

// Close releases adapters and flushes the logger.
func (c *Container) Close() error {
	var first error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	_ = c.Logger.Sync()
	return first
}
