// ABOUTME: Builds the governance service for the configured storage backend
// ABOUTME: Memory, SQLite and Charm KV stores share one wiring path
package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/charm"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/config"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/db"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validation"
)

// Stores groups the three repositories a backend provides.
type Stores struct {
	Scorecards scorecard.ScorecardRepository
	Violations scorecard.ViolationRepository
	Alerts     alerts.Repository

	// Charm is set for the charm backend so sync commands can reach it.
	Charm *charm.Client

	close func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores opens the repositories for backend. path is the SQLite file for
// the sqlite backend, or a local BadgerDB directory for charm (empty means
// the charm server configured in charm-config.json).
func OpenStores(backend, path string) (*Stores, error) {
	switch backend {
	case config.BackendMemory:
		return &Stores{
			Scorecards: scorecard.NewMemoryScorecardRepository(),
			Violations: scorecard.NewMemoryViolationRepository(),
			Alerts:     alerts.NewMemoryRepository(),
		}, nil

	case config.BackendSQLite:
		database, err := db.OpenDatabase(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &Stores{
			Scorecards: db.NewScorecardRepository(database),
			Violations: db.NewViolationRepository(database),
			Alerts:     db.NewAlertRepository(database),
			close:      database.Close,
		}, nil

	case config.BackendCharm:
		var client *charm.Client
		var closeFn func() error
		if path != "" {
			c, closeDB, err := charm.OpenLocal(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open local kv: %w", err)
			}
			client, closeFn = c, closeDB
		} else {
			cfg, err := charm.LoadConfig()
			if err != nil {
				return nil, fmt.Errorf("failed to load charm config: %w", err)
			}
			if client, err = charm.Open(cfg); err != nil {
				return nil, err
			}
		}
		return &Stores{
			Scorecards: charm.NewScorecardRepository(client),
			Violations: charm.NewViolationRepository(client),
			Alerts:     charm.NewAlertRepository(client),
			Charm:      client,
			close:      closeFn,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// Backend is an open governance service and the stores behind it.
type Backend struct {
	Service *governance.Service
	Stores  *Stores
	Config  *config.Config
}

func (b *Backend) Close() error {
	return b.Stores.Close()
}

// OpenBackend wires the rule catalog, stores and services from cfg.
func OpenBackend(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	catalog := rules.Default()
	if cfg.RulesFile != "" {
		loaded, err := rules.LoadFile(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
		logger.Debug("loaded rule file", "path", cfg.RulesFile, "rules", catalog.Len())
	}

	path := cfg.DBPath
	if cfg.Backend == config.BackendCharm {
		path = ""
	}
	stores, err := OpenStores(cfg.Backend, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened backend", "backend", cfg.Backend, "path", path)

	scorecards := scorecard.NewService(stores.Scorecards, stores.Violations,
		scorecard.WithTrendConfig(scorecard.TrendConfig{
			MinViolations: cfg.TrendMinViolations,
			Window:        cfg.TrendWindow,
		}))
	alertSvc := alerts.NewService(stores.Alerts)

	svc := governance.NewService(validation.NewEngine(catalog), scorecards, alertSvc,
		governance.WithLogger(logger),
		governance.WithDefaultPortal(cfg.PortalID),
		governance.WithComplianceThreshold(cfg.ComplianceAlertThreshold),
		governance.WithAlertRetention(cfg.AlertRetentionDays),
	)
	return &Backend{Service: svc, Stores: stores, Config: cfg}, nil
}
