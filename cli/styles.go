// ABOUTME: Shared lipgloss styles and small output helpers for CLI commands
// ABOUTME: Also holds the repeatable key=value flag used for record properties
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ErrNotFound is returned by commands that target a record that does not exist.
var ErrNotFound = errors.New("not found")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical", "error", "high":
		return failStyle
	case "warning", "medium":
		return warnStyle
	default:
		return dimStyle
	}
}

// propsFlag collects repeated key=value pairs. Values that parse as JSON
// (numbers, booleans, quoted strings) keep their JSON type.
type propsFlag map[string]any

func (p propsFlag) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, ",")
}

func (p propsFlag) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	p[key] = v
	return nil
}

// countsFlag collects repeated name=count pairs.
type countsFlag map[string]int

func (c countsFlag) String() string {
	return fmt.Sprint(map[string]int(c))
}

func (c countsFlag) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected name=count, got %q", s)
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return fmt.Errorf("invalid count in %q: %w", s, err)
	}
	c[key] = n
	return nil
}
