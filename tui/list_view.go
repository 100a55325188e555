package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("LIFECYCLE GATE"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Scorecards", "Alerts", "Rules"}
	var rendered []string

	for i, tab := range tabs {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	var columns []table.Column
	var rows []table.Row

	switch m.tab {
	case TabScorecards:
		columns = []table.Column{
			{Title: "User", Width: 16},
			{Title: "Name", Width: 20},
			{Title: "Score", Width: 7},
			{Title: "Trend", Width: 10},
			{Title: "Invalid", Width: 8},
			{Title: "Violations", Width: 10},
		}
		for _, sc := range m.scorecards {
			rows = append(rows, table.Row{
				sc.UserID,
				sc.UserName,
				fmt.Sprintf("%.1f", sc.ComplianceScore),
				sc.Trend,
				fmt.Sprint(sc.Metrics.InvalidAttempts),
				fmt.Sprint(len(sc.Violations)),
			})
		}
	case TabAlerts:
		columns = []table.Column{
			{Title: "Time", Width: 16},
			{Title: "Severity", Width: 9},
			{Title: "User", Width: 14},
			{Title: "Title", Width: 32},
			{Title: "Ack", Width: 4},
		}
		for _, a := range m.alerts {
			ack := ""
			if a.Acknowledged {
				ack = "✓"
			}
			rows = append(rows, table.Row{
				a.Timestamp.Format("2006-01-02 15:04"),
				a.Severity,
				a.UserID,
				a.Title,
				ack,
			})
		}
	case TabRules:
		columns = []table.Column{
			{Title: "Object", Width: 10},
			{Title: "Gates", Width: 6},
			{Title: "Stages", Width: 50},
		}
		for _, t := range ruleTypes {
			var names []string
			for _, st := range rules.Stages(t) {
				names = append(names, st.ID)
			}
			rows = append(rows, table.Row{
				string(t),
				fmt.Sprint(len(m.svc.Rules(t))),
				strings.Join(names, " → "),
			})
		}
	}

	if len(rows) == 0 {
		return helpStyle.Render("Nothing here yet")
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
	}
	switch m.tab {
	case TabScorecards:
		help = append(help, "Enter: Violations")
	case TabAlerts:
		help = append(help, "a: Acknowledge")
	case TabRules:
		help = append(help, "Enter: Gate graph")
	}
	help = append(help, "r: Refresh", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % tabCount
		m.selectedRow = 0
		m.status = ""
	case "r":
		m.refresh()
		m.status = ""
	case "enter":
		switch m.tab {
		case TabScorecards:
			if m.selectedRow < len(m.scorecards) {
				m.detail = m.scorecards[m.selectedRow]
				m.violationIndex = 0
				m.viewMode = ViewDetail
			}
		case TabRules:
			if err := m.generateGraph(); err != nil {
				m.err = err
				return m, nil
			}
			m.viewMode = ViewGraph
		}
	case "a":
		if m.tab == TabAlerts && m.selectedRow < len(m.alerts) && !m.alerts[m.selectedRow].Acknowledged {
			m.viewMode = ViewConfirmAck
		}
	}

	return m, nil
}
