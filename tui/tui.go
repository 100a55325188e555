// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive browser for scorecards, violations, alerts and stage gates
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/viz"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirmAck
)

// Tab selects what the list view shows
type Tab int

const (
	TabScorecards Tab = iota
	TabAlerts
	TabRules
)

const tabCount = 3

// ruleTypes are the rows of the rules tab.
var ruleTypes = []models.ObjectType{models.ObjectContact, models.ObjectDeal}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	svc      *governance.Service
	operator string

	viewMode ViewMode
	tab      Tab

	// List view state
	selectedRow int
	scorecards  []*models.RepScorecard
	alerts      []*models.GovernanceAlert

	// Detail view state
	detail         *models.RepScorecard
	violationIndex int

	// Graph view state
	graph *viz.RuleGraph

	// UI state
	status string
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model. operator is recorded as the
// acknowledger of alerts.
func NewModel(ctx context.Context, svc *governance.Service, operator string) Model {
	m := Model{
		ctx:      ctx,
		svc:      svc,
		operator: operator,
		viewMode: ViewList,
		tab:      TabScorecards,
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, svc *governance.Service, operator string) error {
	p := tea.NewProgram(NewModel(ctx, svc, operator), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmAck:
		return m.renderConfirmAckView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmAck:
		return m.handleConfirmAckKeys(msg)
	}

	return m, nil
}

// refresh reloads the list data from the stores.
func (m *Model) refresh() {
	m.err = nil
	cards, err := m.svc.Scorecards().GetAllScorecards(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.scorecards = cards

	list, err := m.svc.Alerts().GetPortalAlerts(m.ctx, m.svc.DefaultPortal(), alerts.Filter{})
	if err != nil {
		m.err = err
		return
	}
	m.alerts = list

	if n := m.rowCount(); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabScorecards:
		return len(m.scorecards)
	case TabAlerts:
		return len(m.alerts)
	case TabRules:
		return len(ruleTypes)
	}
	return 0
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
