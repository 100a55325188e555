// ABOUTME: Acknowledge confirmation view for TUI
// ABOUTME: Confirms before marking a governance alert acknowledged
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("2")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmAckView() string {
	if m.selectedRow >= len(m.alerts) {
		return "No alert selected"
	}
	a := m.alerts[m.selectedRow]

	title := warningStyle.Render("ACKNOWLEDGE ALERT")
	info := fmt.Sprintf("\n[%s] %s\n%s\n", a.Severity, a.Title, a.Message)
	by := fmt.Sprintf("\nAcknowledging as %s", m.operator)

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Acknowledge (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		info,
		by,
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmAckKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.alerts[m.selectedRow].ID
		ok, err := m.svc.Alerts().AcknowledgeAlert(m.ctx, id, m.operator)
		m.viewMode = ViewList
		m.refresh()
		switch {
		case err != nil:
			m.err = err
		case !ok:
			m.status = "Alert no longer exists"
		default:
			m.status = "Acknowledged " + id
		}
	case "n", "N", "esc":
		m.viewMode = ViewList
	}

	return m, nil
}
