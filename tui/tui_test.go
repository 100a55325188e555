// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key handling and rendering against an in-memory governance service
package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *governance.Service {
	t.Helper()
	scorecards := scorecard.NewService(scorecard.NewMemoryScorecardRepository(), scorecard.NewMemoryViolationRepository())
	alertSvc := alerts.NewService(alerts.NewMemoryRepository())
	svc := governance.NewService(validation.NewEngine(rules.Default()), scorecards, alertSvc,
		governance.WithDefaultPortal("portal-1"))

	_, err := svc.ProcessTransition(context.Background(), governance.TransitionRequest{
		UserName: "Morgan",
		Request: models.ValidationRequest{
			ObjectType:   models.ObjectDeal,
			ObjectID:     "d-1",
			CurrentStage: models.StageQualifiedToBuy,
			TargetStage:  models.StagePresentationScheduled,
			Properties:   map[string]any{"amount": 100},
			UserID:       "u1",
		},
	})
	require.NoError(t, err)
	return svc
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestListViewShowsScorecards(t *testing.T) {
	m := NewModel(context.Background(), newTestService(t), "lead")
	require.NoError(t, m.err)
	require.Len(t, m.scorecards, 1)

	out := m.View()
	assert.Contains(t, out, "LIFECYCLE GATE")
	assert.Contains(t, out, "Morgan")
	assert.Contains(t, out, "Enter: Violations")
}

func TestTabCyclesAndClampsSelection(t *testing.T) {
	m := NewModel(context.Background(), newTestService(t), "lead")

	m = press(t, m, "down", "down")
	assert.Equal(t, 0, m.selectedRow)

	m = press(t, m, "tab")
	assert.Equal(t, TabAlerts, m.tab)
	assert.Len(t, m.alerts, 1)

	m = press(t, m, "tab")
	assert.Equal(t, TabRules, m.tab)
	assert.Contains(t, m.View(), "qualifiedtobuy")

	m = press(t, m, "tab")
	assert.Equal(t, TabScorecards, m.tab)
}

func TestDetailViewResolvesViolation(t *testing.T) {
	svc := newTestService(t)
	m := NewModel(context.Background(), svc, "lead")

	m = press(t, m, "enter")
	require.Equal(t, ViewDetail, m.viewMode)
	assert.Contains(t, m.View(), "VIOLATIONS")
	assert.Contains(t, m.View(), "missing: closedate, dealtype")

	m = press(t, m, "x")
	require.NoError(t, m.err)
	assert.True(t, strings.HasPrefix(m.status, "Resolved"))
	assert.True(t, m.detail.Violations[0].Resolved)

	m = press(t, m, "x")
	assert.Equal(t, "Already resolved", m.status)

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Nil(t, m.detail)
}

func TestAcknowledgeAlertFlow(t *testing.T) {
	svc := newTestService(t)
	m := NewModel(context.Background(), svc, "lead")

	m = press(t, m, "tab", "a")
	require.Equal(t, ViewConfirmAck, m.viewMode)
	assert.Contains(t, m.View(), "Acknowledging as lead")

	m = press(t, m, "n")
	assert.Equal(t, ViewList, m.viewMode)
	assert.False(t, m.alerts[0].Acknowledged)

	m = press(t, m, "a", "y")
	assert.Equal(t, ViewList, m.viewMode)
	assert.True(t, strings.HasPrefix(m.status, "Acknowledged"))
	assert.True(t, m.alerts[0].Acknowledged)
	assert.Equal(t, "lead", m.alerts[0].AcknowledgedBy)

	m = press(t, m, "a")
	assert.Equal(t, ViewList, m.viewMode)
}

func TestGraphView(t *testing.T) {
	m := NewModel(context.Background(), newTestService(t), "lead")

	m = press(t, m, "tab", "tab", "down", "enter")
	require.NoError(t, m.err)
	require.Equal(t, ViewGraph, m.viewMode)
	assert.Contains(t, m.View(), "GATE GRAPH")
	require.NotNil(t, m.graph)
	assert.Equal(t, models.ObjectDeal, m.graph.ObjectType)
	assert.Contains(t, m.graph.DOT, "presentationscheduled")

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Nil(t, m.graph)
}

func TestQuit(t *testing.T) {
	m := NewModel(context.Background(), newTestService(t), "lead")
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestWindowResize(t *testing.T) {
	m := NewModel(context.Background(), newTestService(t), "lead")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
