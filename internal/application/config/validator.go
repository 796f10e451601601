package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/doeshing/unigraph/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return err
	}
	if err := validateQuery(cfg.Query); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	for _, name := range cfg.NamespaceNames() {
		iri := cfg.Namespaces[name]
		if iri == "" {
			return fmt.Errorf("namespaces.%s must not be empty", name)
		}
		if !strings.HasSuffix(iri, "#") && !strings.HasSuffix(iri, "/") {
			return fmt.Errorf("namespaces.%s should end with '#' or '/', got %s", name, iri)
		}
	}
	return nil
}

func validateEndpoint(ep domain.EndpointSettings) error {
	if ep.URL == "" {
		return errors.New("endpoint.url must be set")
	}
	u, err := url.Parse(ep.URL)
	if err != nil {
		return fmt.Errorf("endpoint.url invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint.url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("endpoint.url must include a host")
	}
	return nil
}

func validateQuery(q domain.QuerySettings) error {
	if q.DefaultLimit <= 0 {
		return fmt.Errorf("query.default_limit must be > 0")
	}
	if q.TimeoutSeconds <= 0 {
		return fmt.Errorf("query.timeout must be > 0")
	}
	if q.MaxResults > 0 && q.DefaultLimit > q.MaxResults {
		return fmt.Errorf("query.default_limit (%d) exceeds query.max_results (%d)", q.DefaultLimit, q.MaxResults)
	}
	switch strings.ToLower(q.OutputFormat) {
	case "", domain.FormatTable, domain.FormatJSON, domain.FormatCSV:
	default:
		return fmt.Errorf("query.output_format must be table|json|csv, got %s", q.OutputFormat)
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be > 0")
	}
	if history.Persist && history.Path == "" {
		return fmt.Errorf("history.path must be set when history.persist is enabled")
	}
	return nil
}
