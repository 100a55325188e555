// ABOUTME: Tests for the lifecycle gate CLI commands
// ABOUTME: Drives each command against an in-memory backend and inspects its output
package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/charm"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/config"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := OpenBackend(&config.Config{
		Backend:                  config.BackendMemory,
		PortalID:                 "portal-1",
		TrendMinViolations:       5,
		TrendWindow:              7 * 24 * time.Hour,
		AlertRetentionDays:       30,
		ComplianceAlertThreshold: 70,
	}, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

var blockedDeal = []string{
	"--type", "deal", "--id", "d-1",
	"--from", "qualifiedtobuy", "--to", "presentationscheduled",
	"--user", "u1", "--user-name", "Morgan",
	"--prop", "amount=5000",
}

func TestPropsFlag(t *testing.T) {
	p := propsFlag{}
	require.NoError(t, p.Set("amount=5000"))
	require.NoError(t, p.Set("contract_signed=true"))
	require.NoError(t, p.Set("dealtype=newbusiness"))
	require.NoError(t, p.Set(`note="quoted"`))
	require.NoError(t, p.Set("empty="))

	assert.Equal(t, float64(5000), p["amount"])
	assert.Equal(t, true, p["contract_signed"])
	assert.Equal(t, "newbusiness", p["dealtype"])
	assert.Equal(t, "quoted", p["note"])
	assert.Equal(t, "", p["empty"])
	assert.Error(t, p.Set("novalue"))
	assert.Error(t, p.Set("=x"))
}

func TestCountsFlag(t *testing.T) {
	c := countsFlag{}
	require.NoError(t, c.Set("deals=2"))
	assert.Equal(t, 2, c["deals"])
	assert.Error(t, c.Set("deals=many"))
	assert.Error(t, c.Set("deals"))
}

func TestValidateCommandAllowed(t *testing.T) {
	b := newTestBackend(t)
	var out bytes.Buffer

	err := ValidateCommand(context.Background(), b.Service, []string{
		"--type", "contact", "--id", "c-1", "--from", "subscriber", "--to", "lead",
		"--prop", "email=ada@example.com",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "allowed")
	assert.NotContains(t, out.String(), "Score for")
}

func TestValidateCommandBlockedRecordsViolation(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, ValidateCommand(ctx, b.Service, blockedDeal, &out))
	text := out.String()
	assert.Contains(t, text, "blocked")
	assert.Contains(t, text, "INVALID_CLOSEDATE")
	assert.Contains(t, text, "Violation logged")
	assert.Contains(t, text, "Alert raised")

	sc, err := b.Service.Scorecards().GetScorecard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, 1, sc.Metrics.InvalidAttempts)
	require.Len(t, sc.Violations, 1)
	assert.Equal(t, []string{"closedate", "dealtype"}, sc.Violations[0].MissingFields)
}

func TestValidateCommandAssociations(t *testing.T) {
	b := newTestBackend(t)
	args := []string{
		"--type", "contact", "--id", "c-1", "--from", "salesqualifiedlead", "--to", "opportunity",
		"--prop", "company=Acme", "--prop", "jobtitle=CTO", "--prop", "hubspot_owner_id=42",
	}

	var out bytes.Buffer
	require.NoError(t, ValidateCommand(context.Background(), b.Service, append(args, "--assoc", "deals=0"), &out))
	assert.Contains(t, out.String(), "blocked")
	assert.Contains(t, out.String(), "DEPENDENCY_NOT_MET_ASSOCIATION")

	out.Reset()
	require.NoError(t, ValidateCommand(context.Background(), b.Service, append(args, "--assoc", "deals=1"), &out))
	assert.Contains(t, out.String(), "allowed")
}

func TestValidateCommandRejectsBadInput(t *testing.T) {
	b := newTestBackend(t)
	err := ValidateCommand(context.Background(), b.Service, []string{"--type", "ticket", "--id", "x", "--from", "a", "--to", "b"}, io.Discard)
	assert.Error(t, err)
	err = ValidateCommand(context.Background(), b.Service, []string{"--type", "deal", "--from", "a", "--to", "b"}, io.Discard)
	assert.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	b := newTestBackend(t)
	var out bytes.Buffer
	require.NoError(t, RulesCommand(b.Service, []string{"--type", "deal"}, &out))
	assert.Contains(t, out.String(), "deal-qualified-to-presentation")
	assert.NotContains(t, out.String(), "contact-subscriber-to-lead")

	out.Reset()
	require.NoError(t, RulesCommand(b.Service, nil, &out))
	assert.Contains(t, out.String(), "contact-subscriber-to-lead")

	assert.Error(t, RulesCommand(b.Service, []string{"--type", "ticket"}, io.Discard))
}

func TestAuditCommand(t *testing.T) {
	b := newTestBackend(t)
	var out bytes.Buffer
	require.NoError(t, AuditCommand(b.Service, []string{"--type", "contact", "--prop", "email=ada@example.com"}, &out))
	assert.Contains(t, out.String(), "gates would block this record")
	assert.Contains(t, out.String(), "contact-lead-to-mql")
	assert.NotContains(t, out.String(), "contact-subscriber-to-lead")
}

func TestScorecardCommands(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	scorecards := b.Service.Scorecards()

	var out bytes.Buffer
	require.NoError(t, ScorecardsCommand(ctx, scorecards, nil, &out))
	assert.Contains(t, out.String(), "No scorecards yet")

	require.NoError(t, ValidateCommand(ctx, b.Service, blockedDeal, io.Discard))

	out.Reset()
	require.NoError(t, ScorecardsCommand(ctx, scorecards, nil, &out))
	assert.Contains(t, out.String(), "Morgan")

	out.Reset()
	require.NoError(t, ScorecardsCommand(ctx, scorecards, []string{"u1"}, &out))
	assert.Contains(t, out.String(), "Morgan (u1)")
	assert.Contains(t, out.String(), "missing: closedate, dealtype")

	err := ScorecardsCommand(ctx, scorecards, []string{"ghost"}, io.Discard)
	assert.ErrorIs(t, err, ErrNotFound)

	violations, err := scorecards.GetUserViolations(ctx, "u1", scorecard.ViolationFilter{})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	id := violations[0].ID

	out.Reset()
	require.NoError(t, ViolationsCommand(ctx, scorecards, []string{"--open", "u1"}, &out))
	assert.Contains(t, out.String(), id)

	require.NoError(t, ResolveCommand(ctx, scorecards, []string{"u1", id}, io.Discard))
	out.Reset()
	require.NoError(t, ViolationsCommand(ctx, scorecards, []string{"--open", "u1"}, &out))
	assert.Contains(t, out.String(), "No violations")

	assert.ErrorIs(t, ResolveCommand(ctx, scorecards, []string{"u1", "nope"}, io.Discard), ErrNotFound)
	assert.Error(t, ViolationsCommand(ctx, scorecards, []string{"--open", "--resolved", "u1"}, io.Discard))

	out.Reset()
	require.NoError(t, FieldsCommand(ctx, scorecards, []string{"--total", "4", "--compliant", "3", "u1"}, &out))
	assert.Contains(t, out.String(), "75.0%")
	assert.Error(t, FieldsCommand(ctx, scorecards, []string{"--total", "2", "--compliant", "3", "u1"}, io.Discard))

	require.NoError(t, ResetCommand(ctx, scorecards, []string{"u1"}, io.Discard))
	sc, err := scorecards.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, sc.Metrics.TotalStageTransitions)
	assert.ErrorIs(t, ResetCommand(ctx, scorecards, []string{"ghost"}, io.Discard), ErrNotFound)
}

func TestAlertCommands(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, ValidateCommand(ctx, b.Service, blockedDeal, io.Discard))

	// One violation alert plus the threshold alert for the drop from 100 to 40.
	list, err := b.Service.Alerts().GetPortalAlerts(ctx, "portal-1", alerts.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	id := list[0].ID

	var out bytes.Buffer
	require.NoError(t, AlertsCommand(ctx, b.Service, nil, &out))
	assert.Contains(t, out.String(), id)

	out.Reset()
	require.NoError(t, AlertsCommand(ctx, b.Service, []string{"--user", "u1", "--unacked"}, &out))
	assert.Contains(t, out.String(), id)

	assert.Error(t, AckCommand(ctx, b.Service, []string{id}, io.Discard))
	for _, a := range list {
		require.NoError(t, AckCommand(ctx, b.Service, []string{"--by", "lead", a.ID}, io.Discard))
	}
	assert.ErrorIs(t, AckCommand(ctx, b.Service, []string{"--by", "lead", "missing"}, io.Discard), ErrNotFound)

	out.Reset()
	require.NoError(t, AlertsCommand(ctx, b.Service, []string{"--unacked"}, &out))
	assert.Contains(t, out.String(), "No alerts")

	out.Reset()
	require.NoError(t, CleanupCommand(ctx, b.Service, nil, &out))
	assert.Contains(t, out.String(), "Deleted 0")
}

func TestDashboardCommand(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, ValidateCommand(ctx, b.Service, blockedDeal, io.Discard))

	var out bytes.Buffer
	require.NoError(t, DashboardCommand(ctx, b.Service, nil, &out))
	assert.Contains(t, out.String(), "LIFECYCLE GATE COMPLIANCE DASHBOARD")
	assert.Contains(t, out.String(), "Morgan")
}

func TestVizRulesCommand(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, VizRulesCommand(ctx, b.Service, []string{"--type", "contact"}, &out))
	assert.True(t, strings.Contains(out.String(), "digraph"))

	path := filepath.Join(t.TempDir(), "deal.dot")
	require.NoError(t, VizRulesCommand(ctx, b.Service, []string{"--output", path}, io.Discard))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "qualifiedtobuy")

	assert.Error(t, VizRulesCommand(ctx, b.Service, []string{"--type", "ticket"}, io.Discard))
}

func TestSyncCommand(t *testing.T) {
	assert.Error(t, SyncCommand(nil, []string{"status"}, io.Discard))

	c, cleanup := charm.NewTestClient(t)
	defer cleanup()

	var out bytes.Buffer
	require.NoError(t, SyncCommand(c, []string{"status"}, &out))
	assert.Contains(t, out.String(), "Charm Sync Status")

	require.NoError(t, c.Set([]byte("scorecard:u1"), []byte("{}")))

	out.Reset()
	require.NoError(t, SyncCommand(c, []string{"wipe"}, &out))
	assert.Contains(t, out.String(), "--confirm")
	keys, err := c.Keys()
	require.NoError(t, err)
	assert.NotEmpty(t, keys)

	require.NoError(t, SyncCommand(c, []string{"wipe", "--confirm"}, io.Discard))
	keys, err = c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, SyncCommand(c, []string{"now"}, io.Discard))
	assert.Error(t, SyncCommand(c, []string{"bogus"}, io.Discard))
	assert.Error(t, SyncCommand(c, nil, io.Discard))
}

func TestOpenStoresBackends(t *testing.T) {
	stores, err := OpenStores(config.BackendSQLite, filepath.Join(t.TempDir(), "gate.db"))
	require.NoError(t, err)
	assert.Nil(t, stores.Charm)
	require.NoError(t, stores.Close())

	stores, err = OpenStores(config.BackendCharm, t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, stores.Charm)
	require.NoError(t, stores.Close())

	_, err = OpenStores("postgres", "")
	assert.Error(t, err)
}

func TestMCPServerBuilds(t *testing.T) {
	b := newTestBackend(t)
	assert.NotNil(t, NewMCPServer(b.Service, "test"))
}
