package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	resolvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	sc := m.detail
	name := sc.UserID
	if sc.UserName != "" {
		name = sc.UserName + " (" + sc.UserID + ")"
	}
	s.WriteString(titleStyle.Render(strings.ToUpper(name)))
	s.WriteString("\n\n")

	metrics := sc.Metrics
	s.WriteString(m.renderField("Period", fmt.Sprintf("%s to %s", sc.Period.Start.Format("2006-01-02"), sc.Period.End.Format("2006-01-02"))))
	s.WriteString(m.renderField("Score", fmt.Sprintf("%.1f (%s)", sc.ComplianceScore, sc.Trend)))
	s.WriteString(m.renderField("Transitions", fmt.Sprintf("%d total, %d valid, %d invalid", metrics.TotalStageTransitions, metrics.ValidTransitions, metrics.InvalidAttempts)))
	s.WriteString(m.renderField("Fields", fmt.Sprintf("%.1f%%", metrics.RequiredFieldsCompliance)))

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("VIOLATIONS"))
	s.WriteString("\n")

	if len(sc.Violations) == 0 {
		s.WriteString("  none\n")
	}
	for i, v := range sc.Violations {
		line := fmt.Sprintf("%s  %-8s %s/%s %s → %s", v.Timestamp.Format("2006-01-02 15:04"), v.Severity, v.ObjectType, v.ObjectID, v.FromStage, v.ToStage)
		if len(v.MissingFields) > 0 {
			line += "  missing: " + strings.Join(v.MissingFields, ", ")
		}
		switch {
		case i == m.violationIndex:
			line = selectedStyle.Render("› " + line)
		case v.Resolved:
			line = resolvedStyle.Render("  " + line + "  (resolved)")
		default:
			line = "  " + line
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(statusStyle.Render(m.status))
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"↑/↓: Select violation",
		"x: Resolve",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.detail = nil
		m.status = ""
		m.refresh()
	case "up", "k":
		if m.violationIndex > 0 {
			m.violationIndex--
		}
	case "down", "j":
		if m.violationIndex < len(m.detail.Violations)-1 {
			m.violationIndex++
		}
	case "x":
		m.resolveSelected()
	}

	return m, nil
}

func (m *Model) resolveSelected() {
	if m.violationIndex >= len(m.detail.Violations) {
		return
	}
	v := m.detail.Violations[m.violationIndex]
	if v.Resolved {
		m.status = "Already resolved"
		return
	}

	ok, err := m.svc.Scorecards().ResolveViolation(m.ctx, m.detail.UserID, v.ID)
	if err != nil {
		m.err = err
		return
	}
	if !ok {
		m.status = "Violation no longer exists"
		return
	}

	sc, err := m.svc.Scorecards().GetScorecard(m.ctx, m.detail.UserID)
	if err != nil {
		m.err = err
		return
	}
	m.detail = sc
	m.status = "Resolved " + v.ID
}
