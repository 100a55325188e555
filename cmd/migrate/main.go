// ABOUTME: Migration utility that copies governance data out of a SQLite file
// ABOUTME: Moves scorecards, violations and alerts into another backend with dry-run and backup support

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/cli"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/config"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/db"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
)

type options struct {
	source  string
	backend string
	dest    string
	dryRun  bool
	backup  bool
}

type counts struct {
	Scorecards int
	Violations int
	Alerts     int
	Skipped    int
}

func main() {
	source := flag.String("db", "", "Path to the source SQLite database (required)")
	backend := flag.String("to", config.BackendCharm, "Destination backend: sqlite or charm")
	dest := flag.String("dest", "", "Destination path (SQLite file, or local KV directory for charm; empty charm uses the configured server)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create a backup of the source before migrating")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "migrate"})

	if *source == "" {
		logger.Fatal("-db flag is required")
	}

	c, err := migrate(context.Background(), options{
		source:  *source,
		backend: *backend,
		dest:    *dest,
		dryRun:  *dryRun,
		backup:  *backup,
	}, logger)
	if err != nil {
		logger.Fatal("migration failed", "err", err)
	}

	logger.Info("migration completed",
		"scorecards", c.Scorecards, "violations", c.Violations, "alerts", c.Alerts, "skipped", c.Skipped, "dry_run", *dryRun)
}

func migrate(ctx context.Context, opts options, logger *log.Logger) (counts, error) {
	var c counts

	if _, err := os.Stat(opts.source); os.IsNotExist(err) {
		return c, fmt.Errorf("database file does not exist: %s", opts.source)
	}
	if opts.backend != config.BackendSQLite && opts.backend != config.BackendCharm {
		return c, fmt.Errorf("unsupported destination backend %q (valid: sqlite, charm)", opts.backend)
	}
	if opts.backend == config.BackendSQLite && (opts.dest == "" || opts.dest == opts.source) {
		return c, fmt.Errorf("-dest must name a different SQLite file")
	}

	if opts.backup && !opts.dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", opts.source, time.Now().Format("20060102-150405"))
		logger.Info("creating backup", "path", backupPath)

		input, err := os.ReadFile(opts.source)
		if err != nil {
			return c, fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return c, fmt.Errorf("failed to create backup: %w", err)
		}
	}

	database, err := db.OpenDatabase(opts.source)
	if err != nil {
		return c, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	srcScorecards := db.NewScorecardRepository(database)
	srcViolations := db.NewViolationRepository(database)
	srcAlerts := db.NewAlertRepository(database)

	cards, err := srcScorecards.ListScorecards(ctx)
	if err != nil {
		return c, err
	}
	users, err := srcViolations.ListUsers(ctx)
	if err != nil {
		return c, err
	}
	users = mergeUsers(users, cards)
	alertList, err := srcAlerts.ListAlerts(ctx)
	if err != nil {
		return c, err
	}

	if opts.dryRun {
		c.Scorecards = len(cards)
		for _, u := range users {
			list, err := srcViolations.ListViolations(ctx, u)
			if err != nil {
				return c, err
			}
			c.Violations += len(list)
		}
		c.Alerts = len(alertList)
		logger.Info("[DRY RUN] would copy", "scorecards", c.Scorecards, "violations", c.Violations, "alerts", c.Alerts, "to", opts.backend)
		return c, nil
	}

	dst, err := cli.OpenStores(opts.backend, opts.dest)
	if err != nil {
		return c, err
	}
	defer func() { _ = dst.Close() }()

	// Violations first so copied scorecards never reference a missing entry.
	for _, u := range users {
		list, err := srcViolations.ListViolations(ctx, u)
		if err != nil {
			return c, err
		}
		for _, v := range list {
			existing, err := dst.Violations.GetViolation(ctx, v.UserID, v.ID)
			if err != nil {
				return c, err
			}
			if existing != nil {
				c.Skipped++
				continue
			}
			if err := dst.Violations.AddViolation(ctx, v); err != nil {
				return c, err
			}
			c.Violations++
		}
		logger.Debug("copied violations", "user_id", u)
	}

	for _, sc := range cards {
		if err := dst.Scorecards.SaveScorecard(ctx, sc); err != nil {
			return c, err
		}
		c.Scorecards++
	}

	for _, a := range alertList {
		existing, err := dst.Alerts.GetAlert(ctx, a.ID)
		if err != nil {
			return c, err
		}
		if existing != nil {
			c.Skipped++
			continue
		}
		if err := dst.Alerts.CreateAlert(ctx, a); err != nil {
			return c, err
		}
		c.Alerts++
	}

	if dst.Charm != nil {
		if err := dst.Charm.Sync(); err != nil {
			logger.Warn("sync after migration failed; data is stored locally", "err", err)
		}
	}
	return c, nil
}

// mergeUsers adds scorecard owners with no logged violations.
func mergeUsers(users []string, cards []*models.RepScorecard) []string {
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		seen[u] = true
	}
	for _, sc := range cards {
		if !seen[sc.UserID] {
			seen[sc.UserID] = true
			users = append(users, sc.UserID)
		}
	}
	sort.Strings(users)
	return users
}
