// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarises rep compliance scores, open violations and pending alerts
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
)

type DashboardStats struct {
	TotalReps    int
	AverageScore float64
	Trends       map[string]int

	// Unresolved violations keyed by violation type.
	OpenViolations map[string]int

	UnacknowledgedAlerts int

	// Reps under the threshold, lowest score first.
	AtRisk    []RepScore
	Threshold float64
}

type RepScore struct {
	Name  string
	Score float64
	Trend string
}

// GenerateDashboardStats reads every scorecard and the portal's alert queue.
func GenerateDashboardStats(ctx context.Context, scorecards *scorecard.Service, alertSvc *alerts.Service, portalID string, threshold float64) (*DashboardStats, error) {
	stats := &DashboardStats{
		Trends:         make(map[string]int),
		OpenViolations: make(map[string]int),
		Threshold:      threshold,
	}

	cards, err := scorecards.GetAllScorecards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scorecards: %w", err)
	}

	total := 0.0
	for _, sc := range cards {
		total += sc.ComplianceScore
		stats.Trends[sc.Trend]++
		for _, v := range sc.Violations {
			if !v.Resolved {
				stats.OpenViolations[v.ViolationType]++
			}
		}
		if sc.ComplianceScore < threshold {
			name := sc.UserName
			if name == "" {
				name = sc.UserID
			}
			stats.AtRisk = append(stats.AtRisk, RepScore{Name: name, Score: sc.ComplianceScore, Trend: sc.Trend})
		}
	}
	stats.TotalReps = len(cards)
	if len(cards) > 0 {
		stats.AverageScore = total / float64(len(cards))
	}
	sort.SliceStable(stats.AtRisk, func(i, j int) bool { return stats.AtRisk[i].Score < stats.AtRisk[j].Score })

	unacked := false
	pending, err := alertSvc.GetPortalAlerts(ctx, portalID, alerts.Filter{Acknowledged: &unacked})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	stats.UnacknowledgedAlerts = len(pending)

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  LIFECYCLE GATE COMPLIANCE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("TEAM\n")
	out.WriteString(fmt.Sprintf("  %d reps  average score %.1f  %s\n", stats.TotalReps, stats.AverageScore, scoreBar(stats.AverageScore)))
	out.WriteString(fmt.Sprintf("  ↑ %d improving  → %d stable  ↓ %d declining\n\n",
		stats.Trends[models.TrendImproving], stats.Trends[models.TrendStable], stats.Trends[models.TrendDeclining]))

	out.WriteString("OPEN VIOLATIONS\n")
	renderViolations(&out, stats.OpenViolations)
	out.WriteString("\n")

	out.WriteString(fmt.Sprintf("ALERTS\n  %d unacknowledged\n", stats.UnacknowledgedAlerts))

	if len(stats.AtRisk) > 0 {
		out.WriteString(fmt.Sprintf("\nBELOW %.0f%%\n", stats.Threshold))
		for _, r := range stats.AtRisk {
			out.WriteString(fmt.Sprintf("  ⚠️  %-20s %5.1f  %s\n", r.Name, r.Score, r.Trend))
		}
	}

	return out.String()
}

func renderViolations(out *strings.Builder, open map[string]int) {
	order := []string{
		models.ViolationMissingRequiredField,
		models.ViolationConditionFailed,
		models.ViolationDependencyNotMet,
		models.ViolationInvalidStageProgression,
		models.ViolationSkippedStage,
		models.ViolationBackwardProgression,
	}

	maxCount := 1
	for _, n := range open {
		if n > maxCount {
			maxCount = n
		}
	}

	wrote := false
	for _, t := range order {
		n, ok := open[t]
		if !ok {
			continue
		}
		wrote = true
		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-26s %s  %d\n", t, bar, n))
	}
	if !wrote {
		out.WriteString("  none\n")
	}
}

// scoreBar draws a 0-100 score as ten blocks.
func scoreBar(score float64) string {
	filled := int(score / 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
