// ABOUTME: Tests for the SQLite scorecard, violation and alert repositories
// ABOUTME: Also drives the scorecard and alert services end to end on SQLite
package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "gate.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func TestScorecardRoundTrip(t *testing.T) {
	repo := NewScorecardRepository(setupTestDB(t))
	ctx := context.Background()

	missing, err := repo.GetScorecard(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sc := &models.RepScorecard{
		UserID:   "u1",
		UserName: "Morgan",
		Period:   scorecard.CurrentWeek(now),
		Metrics: models.ScorecardMetrics{
			TotalStageTransitions:    3,
			ValidTransitions:         2,
			InvalidAttempts:          1,
			RequiredFieldsCompliance: 80,
			DealsStagedCorrectly:     2,
		},
		ComplianceScore: 72,
		Trend:           models.TrendStable,
		ViolationIDs:    []string{"v1"},
		CreatedAt:       now,
		LastUpdated:     now,
	}
	require.NoError(t, repo.SaveScorecard(ctx, sc))

	got, err := repo.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sc.Metrics, got.Metrics)
	assert.Equal(t, []string{"v1"}, got.ViolationIDs)
	assert.True(t, got.Period.Start.Equal(sc.Period.Start))
	assert.True(t, got.CreatedAt.Equal(now))

	sc.Metrics.TotalStageTransitions = 4
	sc.ViolationIDs = nil
	require.NoError(t, repo.SaveScorecard(ctx, sc))
	got, err = repo.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Metrics.TotalStageTransitions)
	assert.Empty(t, got.ViolationIDs)
}

func TestListScorecardsKeepsInsertionOrder(t *testing.T) {
	repo := NewScorecardRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, repo.SaveScorecard(ctx, &models.RepScorecard{UserID: id, Trend: models.TrendStable, CreatedAt: now, LastUpdated: now}))
	}
	require.NoError(t, repo.SaveScorecard(ctx, &models.RepScorecard{UserID: "b", UserName: "updated", Trend: models.TrendStable, CreatedAt: now, LastUpdated: now}))

	list, err := repo.ListScorecards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].UserID)
	assert.Equal(t, "updated", list[0].UserName)
	assert.Equal(t, "a", list[1].UserID)
}

func TestViolationRepository(t *testing.T) {
	repo := NewViolationRepository(setupTestDB(t))
	ctx := context.Background()

	v := &models.ComplianceViolation{
		ID:            "v1",
		UserID:        "u1",
		Timestamp:     now,
		ObjectType:    models.ObjectDeal,
		ObjectID:      "d-1",
		ViolationType: models.ViolationMissingRequiredField,
		FromStage:     models.StageQualifiedToBuy,
		ToStage:       models.StagePresentationScheduled,
		MissingFields: []string{"amount", "closedate"},
		RuleID:        "deal-qualified-to-presentation",
		RuleName:      "Qualified To Buy to Presentation Scheduled",
		Severity:      models.SeverityMedium,
	}
	require.NoError(t, repo.AddViolation(ctx, v))
	require.NoError(t, repo.AddViolation(ctx, &models.ComplianceViolation{
		ID: "v2", UserID: "u1", Timestamp: now, ObjectType: models.ObjectContact, ViolationType: models.ViolationInvalidStageProgression,
		RuleID: "r", RuleName: "n", Severity: models.SeverityLow,
	}))

	got, err := repo.GetViolation(ctx, "u1", "v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"amount", "closedate"}, got.MissingFields)
	assert.Equal(t, models.ObjectDeal, got.ObjectType)
	assert.Nil(t, got.ResolvedAt)

	other, err := repo.GetViolation(ctx, "u2", "v1")
	require.NoError(t, err)
	assert.Nil(t, other)

	resolvedAt := now.Add(time.Hour)
	got.Resolved = true
	got.ResolvedAt = &resolvedAt
	require.NoError(t, repo.UpdateViolation(ctx, got))

	list, err := repo.ListViolations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "v1", list[0].ID)
	assert.True(t, list[0].Resolved)
	require.NotNil(t, list[0].ResolvedAt)
	assert.True(t, list[0].ResolvedAt.Equal(resolvedAt))
	assert.Nil(t, list[1].MissingFields)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)

	require.NoError(t, repo.DeleteViolation(ctx, "u1", "v2"))
	require.NoError(t, repo.DeleteViolation(ctx, "u2", "v1"))
	list, err = repo.ListViolations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v1", list[0].ID)
}

func TestAlertRepository(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	ctx := context.Background()

	a := &models.GovernanceAlert{
		ID:         "a1",
		PortalID:   "p1",
		Type:       models.AlertStageGateViolation,
		Severity:   models.AlertWarning,
		Title:      "title",
		Message:    "message",
		ObjectType: models.ObjectContact,
		ObjectID:   "c1",
		UserID:     "u1",
		Timestamp:  now,
		Metadata:   map[string]string{"rule_id": "r1"},
	}
	require.NoError(t, repo.CreateAlert(ctx, a))
	require.NoError(t, repo.CreateAlert(ctx, &models.GovernanceAlert{ID: "a2", PortalID: "p2", Type: "t", Severity: "info", UserID: "u1", Timestamp: now}))

	got, err := repo.GetAlert(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.Metadata["rule_id"])
	assert.Equal(t, models.ObjectContact, got.ObjectType)

	acked := now.Add(time.Minute)
	got.Acknowledged = true
	got.AcknowledgedBy = "lead"
	got.AcknowledgedAt = &acked
	require.NoError(t, repo.UpdateAlert(ctx, got))

	got, err = repo.GetAlert(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.Acknowledged)
	assert.True(t, got.AcknowledgedAt.Equal(acked))

	portal, err := repo.ListPortalAlerts(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, portal, 1)
	user, err := repo.ListUserAlerts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, user, 2)

	require.NoError(t, repo.DeleteAlert(ctx, "a1"))
	portal, err = repo.ListPortalAlerts(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, portal)

	missing, err := repo.GetAlert(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestServicesOnSQLite(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	clock := func() time.Time { return now }

	svc := scorecard.NewService(NewScorecardRepository(db), NewViolationRepository(db), scorecard.WithClock(clock))
	for i := 0; i < 8; i++ {
		_, _, err := svc.RecordStageTransition(ctx, models.TransitionOutcome{UserID: "u1", ObjectType: models.ObjectDeal, IsValid: true})
		require.NoError(t, err)
	}
	var violationID string
	for i := 0; i < 2; i++ {
		_, v, err := svc.RecordStageTransition(ctx, models.TransitionOutcome{
			UserID: "u1", ObjectType: models.ObjectContact, ObjectID: "c", IsValid: false,
			MissingFields: []string{"email"}, RuleID: "r", RuleName: "Rule",
		})
		require.NoError(t, err)
		violationID = v.ID
	}

	sc, err := svc.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 88.0, sc.ComplianceScore, 0.0001)
	assert.Len(t, sc.Violations, 2)

	ok, err := svc.ResolveViolation(ctx, "u1", violationID)
	require.NoError(t, err)
	assert.True(t, ok)
	sc, err = svc.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, sc.Violations[1].Resolved)

	alertSvc := alerts.NewService(NewAlertRepository(db), alerts.WithClock(clock))
	alert, err := alertSvc.CreateAlertFromViolation(ctx, "p1", &sc.Violations[0], "u1")
	require.NoError(t, err)
	count, err := alertSvc.GetUnacknowledgedAlertCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ok, err = alertSvc.AcknowledgeAlert(ctx, alert.ID, "lead")
	require.NoError(t, err)
	assert.True(t, ok)
	count, err = alertSvc.GetUnacknowledgedAlertCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConcurrentRecordsOnSQLite(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := scorecard.NewService(NewScorecardRepository(db), NewViolationRepository(db))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := models.TransitionOutcome{UserID: "u1", ObjectType: models.ObjectDeal, IsValid: i%2 == 0}
			if !out.IsValid {
				out.ObjectType = models.ObjectContact
				out.RuleID, out.RuleName = "r", "Rule"
			}
			_, _, err := svc.RecordStageTransition(ctx, out)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sc, err := svc.GetScorecard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, n, sc.Metrics.TotalStageTransitions)
	assert.Equal(t, n/2, sc.Metrics.InvalidAttempts)
	assert.Len(t, sc.ViolationIDs, n/2)
	assert.Len(t, sc.Violations, n/2)
}
