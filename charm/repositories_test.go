// ABOUTME: Tests for the charm KV repositories on a local BadgerDB
// ABOUTME: Mirrors the SQLite repository tests so both backends agree

package charm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func TestClientGetMissingKey(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()

	v, err := c.Get([]byte("nope"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set([]byte("k"), []byte("v")))
	v, err = c.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, c.Reset())
	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNextSeqIncrements(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()

	for want := uint64(1); want <= 3; want++ {
		got, err := c.nextSeq("meta:test")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestScorecardRepository(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()
	repo := NewScorecardRepository(c)
	ctx := context.Background()

	missing, err := repo.GetScorecard(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, repo.SaveScorecard(ctx, &models.RepScorecard{
			UserID: id, Trend: models.TrendStable, ComplianceScore: 100,
			ViolationIDs: []string{id + "-v"}, CreatedAt: now, LastUpdated: now,
		}))
	}
	require.NoError(t, repo.SaveScorecard(ctx, &models.RepScorecard{
		UserID: "b", UserName: "updated", Trend: models.TrendDeclining, CreatedAt: now, LastUpdated: now,
		Violations: []models.ComplianceViolation{{ID: "x"}},
	}))

	got, err := repo.GetScorecard(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "updated", got.UserName)
	assert.Nil(t, got.Violations)

	list, err := repo.ListScorecards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].UserID)
	assert.Equal(t, "a", list[1].UserID)
	assert.Equal(t, "c", list[2].UserID)
	assert.Equal(t, []string{"a-v"}, list[1].ViolationIDs)
}

func TestViolationRepository(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()
	repo := NewViolationRepository(c)
	ctx := context.Background()

	for _, v := range []*models.ComplianceViolation{
		{ID: "v2", UserID: "u1", Timestamp: now, ObjectType: models.ObjectDeal, MissingFields: []string{"amount"}, Severity: models.SeverityMedium},
		{ID: "v1", UserID: "u1", Timestamp: now, ObjectType: models.ObjectContact, Severity: models.SeverityLow},
		{ID: "v3", UserID: "u1:x", Timestamp: now, ObjectType: models.ObjectContact, Severity: models.SeverityLow},
	} {
		require.NoError(t, repo.AddViolation(ctx, v))
	}

	got, err := repo.GetViolation(ctx, "u1", "v2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"amount"}, got.MissingFields)

	other, err := repo.GetViolation(ctx, "u2", "v2")
	require.NoError(t, err)
	assert.Nil(t, other)

	resolvedAt := now.Add(time.Hour)
	got.Resolved = true
	got.ResolvedAt = &resolvedAt
	got.RuleID = "ignored"
	require.NoError(t, repo.UpdateViolation(ctx, got))

	list, err := repo.ListViolations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "v2", list[0].ID)
	assert.True(t, list[0].Resolved)
	assert.Empty(t, list[0].RuleID)
	require.NotNil(t, list[0].ResolvedAt)
	assert.True(t, list[0].ResolvedAt.Equal(resolvedAt))
	assert.Equal(t, "v1", list[1].ID)

	require.NoError(t, repo.DeleteViolation(ctx, "u1", "v2"))
	require.NoError(t, repo.DeleteViolation(ctx, "u1", "missing"))
	list, err = repo.ListViolations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v1", list[0].ID)
}

func TestAlertRepository(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()
	repo := NewAlertRepository(c)
	ctx := context.Background()

	require.NoError(t, repo.CreateAlert(ctx, &models.GovernanceAlert{
		ID: "a1", PortalID: "p1", UserID: "u1", Type: models.AlertStageGateViolation, Severity: models.AlertWarning,
		Timestamp: now, Metadata: map[string]string{"rule_id": "r1"},
	}))
	require.NoError(t, repo.CreateAlert(ctx, &models.GovernanceAlert{ID: "a0", PortalID: "p2", UserID: "u1", Timestamp: now}))

	got, err := repo.GetAlert(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.Metadata["rule_id"])

	got.Acknowledged = true
	got.AcknowledgedBy = "lead"
	got.PortalID = "moved"
	require.NoError(t, repo.UpdateAlert(ctx, got))

	portal, err := repo.ListPortalAlerts(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, portal, 1)
	assert.True(t, portal[0].Acknowledged)

	user, err := repo.ListUserAlerts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, user, 2)
	assert.Equal(t, "a1", user[0].ID)

	require.NoError(t, repo.DeleteAlert(ctx, "a1"))
	require.NoError(t, repo.DeleteAlert(ctx, "never-existed"))
	all, err := repo.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a0", all[0].ID)
}

func TestServicesOnCharm(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()
	ctx := context.Background()
	clock := func() time.Time { return now }

	svc := scorecard.NewService(NewScorecardRepository(c), NewViolationRepository(c), scorecard.WithClock(clock))
	for i := 0; i < 8; i++ {
		_, _, err := svc.RecordStageTransition(ctx, models.TransitionOutcome{UserID: "u1", ObjectType: models.ObjectDeal, IsValid: true})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, _, err := svc.RecordStageTransition(ctx, models.TransitionOutcome{
			UserID: "u1", ObjectType: models.ObjectContact, IsValid: false, MissingFields: []string{"email"},
		})
		require.NoError(t, err)
	}

	sc, err := svc.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.InDelta(t, 88.0, sc.ComplianceScore, 0.0001)
	assert.Len(t, sc.Violations, 2)

	alertSvc := alerts.NewService(NewAlertRepository(c), alerts.WithClock(clock))
	_, err = alertSvc.CreateAlertFromViolation(ctx, "p1", &sc.Violations[0], "u1")
	require.NoError(t, err)
	n, err := alertSvc.GetUnacknowledgedAlertCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg, err := loadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)

	cfg.Host = "charm.example.com"
	cfg.AutoSync = false
	require.NoError(t, cfg.saveTo(path))

	loaded, err := loadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", loaded.Host)
	assert.False(t, loaded.AutoSync)
}

func TestStatusOnLocalClient(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()
	require.NoError(t, c.Set([]byte("k"), []byte("v")))

	st := c.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, "local", st.AccountID)
	assert.Equal(t, 1, st.Keys)
}
