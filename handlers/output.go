// ABOUTME: JSON output shapes shared by the MCP tools and resources
// ABOUTME: Converts governance models into RFC3339-timestamped outputs
package handlers

import (
	"time"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
)

type ViolationOutput struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Timestamp     string   `json:"timestamp"`
	ObjectType    string   `json:"object_type"`
	ObjectID      string   `json:"object_id"`
	ViolationType string   `json:"violation_type"`
	FromStage     string   `json:"from_stage"`
	ToStage       string   `json:"to_stage"`
	MissingFields []string `json:"missing_fields"`
	RuleID        string   `json:"rule_id"`
	RuleName      string   `json:"rule_name"`
	Severity      string   `json:"severity"`
	Resolved      bool     `json:"resolved"`
	ResolvedAt    *string  `json:"resolved_at,omitempty"`
}

type ScorecardOutput struct {
	UserID          string                  `json:"user_id"`
	UserName        string                  `json:"user_name"`
	PeriodStart     string                  `json:"period_start"`
	PeriodEnd       string                  `json:"period_end"`
	Metrics         models.ScorecardMetrics `json:"metrics"`
	ComplianceScore float64                 `json:"compliance_score"`
	Trend           string                  `json:"trend"`
	Violations      []ViolationOutput       `json:"violations"`
	CreatedAt       string                  `json:"created_at"`
	LastUpdated     string                  `json:"last_updated"`
}

type AlertOutput struct {
	ID             string            `json:"id"`
	PortalID       string            `json:"portal_id"`
	Type           string            `json:"type"`
	Severity       string            `json:"severity"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	ObjectType     string            `json:"object_type,omitempty"`
	ObjectID       string            `json:"object_id,omitempty"`
	UserID         string            `json:"user_id"`
	Timestamp      string            `json:"timestamp"`
	Acknowledged   bool              `json:"acknowledged"`
	AcknowledgedBy string            `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *string           `json:"acknowledged_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func violationToOutput(v models.ComplianceViolation) ViolationOutput {
	fields := v.MissingFields
	if fields == nil {
		fields = []string{}
	}
	return ViolationOutput{
		ID:            v.ID,
		UserID:        v.UserID,
		Timestamp:     formatTime(v.Timestamp),
		ObjectType:    string(v.ObjectType),
		ObjectID:      v.ObjectID,
		ViolationType: v.ViolationType,
		FromStage:     v.FromStage,
		ToStage:       v.ToStage,
		MissingFields: fields,
		RuleID:        v.RuleID,
		RuleName:      v.RuleName,
		Severity:      v.Severity,
		Resolved:      v.Resolved,
		ResolvedAt:    formatTimePtr(v.ResolvedAt),
	}
}

func violationsToOutput(list []models.ComplianceViolation) []ViolationOutput {
	out := make([]ViolationOutput, len(list))
	for i, v := range list {
		out[i] = violationToOutput(v)
	}
	return out
}

func scorecardToOutput(sc *models.RepScorecard) ScorecardOutput {
	return ScorecardOutput{
		UserID:          sc.UserID,
		UserName:        sc.UserName,
		PeriodStart:     formatTime(sc.Period.Start),
		PeriodEnd:       formatTime(sc.Period.End),
		Metrics:         sc.Metrics,
		ComplianceScore: sc.ComplianceScore,
		Trend:           sc.Trend,
		Violations:      violationsToOutput(sc.Violations),
		CreatedAt:       formatTime(sc.CreatedAt),
		LastUpdated:     formatTime(sc.LastUpdated),
	}
}

func alertToOutput(a *models.GovernanceAlert) AlertOutput {
	return AlertOutput{
		ID:             a.ID,
		PortalID:       a.PortalID,
		Type:           a.Type,
		Severity:       a.Severity,
		Title:          a.Title,
		Message:        a.Message,
		ObjectType:     string(a.ObjectType),
		ObjectID:       a.ObjectID,
		UserID:         a.UserID,
		Timestamp:      formatTime(a.Timestamp),
		Acknowledged:   a.Acknowledged,
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: formatTimePtr(a.AcknowledgedAt),
		Metadata:       a.Metadata,
	}
}

func alertsToOutput(list []*models.GovernanceAlert) []AlertOutput {
	out := make([]AlertOutput, len(list))
	for i, a := range list {
		out[i] = alertToOutput(a)
	}
	return out
}
