package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/viz"
)

var dotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GATE GRAPH"))
	s.WriteString("\n\n")

	if m.graph == nil {
		s.WriteString("No graph for this row.\n")
	} else {
		fmt.Fprintf(&s, "%s: %d stages, %d gates\n\n", m.graph.ObjectType, m.graph.Nodes, m.graph.Edges)
		s.WriteString(dotStyle.Render(m.graph.DOT))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("esc back • q quit"))
	return s.String()
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewMode = ViewList
		m.graph = nil
	}
	return m, nil
}

// generateGraph renders the gate graph for the object type on the selected rules row.
func (m *Model) generateGraph() error {
	if m.selectedRow >= len(ruleTypes) {
		m.graph = nil
		return nil
	}
	graph, err := viz.GenerateRuleGraph(m.ctx, m.svc.Engine().Catalog(), ruleTypes[m.selectedRow])
	if err != nil {
		return err
	}
	m.graph = graph
	return nil
}
