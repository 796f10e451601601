package doctor

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/doeshing/unigraph/internal/application/config"
	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/ports"
)

const pingQuery = "ASK {}"

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Store          ports.GraphStore
	Archive        ports.HistoryArchive

	// StoreErr explains a Store that could not be constructed.
	StoreErr error

	// PingTimeout bounds the endpoint reachability check. Defaults to 5s.
	PingTimeout time.Duration
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))

	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config values", err.Error()))
	} else {
		checks = append(checks, ok("Config values", fmt.Sprintf("%d namespaces bound", len(cfg.Namespaces))))
	}

	checks = append(checks, s.endpointCheck(ctx, cfg.Endpoint.URL))
	checks = append(checks, s.archiveCheck(cfg.History))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) endpointCheck(ctx context.Context, endpoint string) domain.HealthCheck {
	if s.StoreErr != nil {
		return fail("Endpoint", s.StoreErr.Error())
	}
	if s.Store == nil {
		return warn("Endpoint", "graph store not initialized")
	}
	timeout := s.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	start := time.Now()
	if _, err := s.Store.Query(ctx, domain.StoreRequest{Query: pingQuery, Timeout: timeout}); err != nil {
		return fail("Endpoint", fmt.Sprintf("%s unreachable: %v", endpoint, err))
	}
	return ok("Endpoint", fmt.Sprintf("%s answered in %s", endpoint, time.Since(start).Round(time.Millisecond)))
}

func (s *Service) archiveCheck(settings domain.HistorySettings) domain.HealthCheck {
	if !settings.Persist {
		return warn("History archive", "persistence disabled")
	}
	if s.Archive == nil {
		return warn("History archive", "archive not initialized")
	}
	if _, err := s.Archive.Records(1, ""); err != nil {
		return fail("History archive", err.Error())
	}
	return ok("History archive", s.Archive.Path())
}

// HasFailures reports whether any check errored.
func HasFailures(report domain.HealthReport) bool {
	for _, check := range report.Checks {
		if check.Status == domain.HealthError {
			return true
		}
	}
	return false
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
