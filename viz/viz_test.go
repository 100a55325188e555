// ABOUTME: Tests for the rule graph and compliance dashboard
// ABOUTME: Uses the built-in catalog and in-memory stores
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRuleGraphDeals(t *testing.T) {
	g, err := GenerateRuleGraph(context.Background(), rules.Default(), models.ObjectDeal)
	require.NoError(t, err)

	assert.Equal(t, 7, g.Nodes)
	assert.Equal(t, 6, g.Edges)
	assert.Contains(t, g.DOT, "Qualified To Buy")
	assert.Contains(t, g.DOT, "digraph")
}

func TestGenerateRuleGraphUnrankedStages(t *testing.T) {
	catalog := rules.NewCatalog(map[models.ObjectType][]models.StageGateRule{
		models.ObjectDeal: {{ID: "custom", Name: "Custom", FromStage: "discovery", ToStage: models.StageQualifiedToBuy, Active: true}},
	})

	g, err := GenerateRuleGraph(context.Background(), catalog, models.ObjectDeal)
	require.NoError(t, err)
	assert.Equal(t, 8, g.Nodes)
	assert.Equal(t, 1, g.Edges)
	assert.Contains(t, g.DOT, "discovery")
}

func TestGateLabel(t *testing.T) {
	r := models.StageGateRule{
		RequiredFields: make([]models.RequiredFieldRule, 2),
		Conditions:     make([]models.StageCondition, 1),
	}
	assert.Equal(t, "2 fields, 1 conditions", gateLabel(r))
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	scores := scorecard.NewService(scorecard.NewMemoryScorecardRepository(), scorecard.NewMemoryViolationRepository(), scorecard.WithClock(clock))
	alertSvc := alerts.NewService(alerts.NewMemoryRepository(), alerts.WithClock(clock))

	_, _, err := scores.RecordStageTransition(ctx, models.TransitionOutcome{UserID: "good", UserName: "Good Rep", ObjectType: models.ObjectDeal, IsValid: true})
	require.NoError(t, err)
	_, v, err := scores.RecordStageTransition(ctx, models.TransitionOutcome{
		UserID: "bad", UserName: "Bad Rep", ObjectType: models.ObjectContact, IsValid: false,
		MissingFields: []string{"email"}, RuleID: "r", RuleName: "Rule",
	})
	require.NoError(t, err)
	_, err = alertSvc.CreateAlertFromViolation(ctx, "p1", v, "bad")
	require.NoError(t, err)

	stats, err := GenerateDashboardStats(ctx, scores, alertSvc, "p1", 70)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReps)
	assert.Equal(t, 1, stats.OpenViolations[models.ViolationMissingRequiredField])
	assert.Equal(t, 1, stats.UnacknowledgedAlerts)
	require.Len(t, stats.AtRisk, 1)
	assert.Equal(t, "Bad Rep", stats.AtRisk[0].Name)
	assert.InDelta(t, 40.0, stats.AtRisk[0].Score, 0.0001)

	out := RenderDashboard(stats)
	assert.True(t, strings.Contains(out, "missing_required_field"))
	assert.Contains(t, out, "BELOW 70%")
	assert.Contains(t, out, "1 unacknowledged")
}

func TestScoreBarClamps(t *testing.T) {
	assert.Equal(t, strings.Repeat("█", 10), scoreBar(120))
	assert.Equal(t, strings.Repeat("░", 10), scoreBar(-5))
}
