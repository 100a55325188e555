// ABOUTME: Governance alert MCP tool handlers
// ABOUTME: Lists, acknowledges, counts and cleans up alerts
package handlers

import (
	"context"
	"fmt"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AlertHandlers struct {
	svc *governance.Service
}

func NewAlertHandlers(svc *governance.Service) *AlertHandlers {
	return &AlertHandlers{svc: svc}
}

type GetAlertsInput struct {
	PortalID     string `json:"portal_id,omitempty" jsonschema:"Portal to list (defaults to the configured portal)"`
	UserID       string `json:"user_id,omitempty" jsonschema:"List this owner's alerts instead of a portal's"`
	Acknowledged *bool  `json:"acknowledged,omitempty" jsonschema:"Only acknowledged (true) or pending (false) alerts"`
	Severity     string `json:"severity,omitempty" jsonschema:"Only alerts of this severity: info, warning, error, critical"`
	Type         string `json:"type,omitempty" jsonschema:"Only alerts of this type"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of alerts to return"`
}

type GetAlertsOutput struct {
	Alerts []AlertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

func (h *AlertHandlers) GetAlerts(ctx context.Context, _ *mcp.CallToolRequest, input GetAlertsInput) (*mcp.CallToolResult, GetAlertsOutput, error) {
	filter := alerts.Filter{
		Acknowledged: input.Acknowledged,
		Severity:     input.Severity,
		Type:         input.Type,
		Limit:        input.Limit,
	}

	var err error
	var list []*models.GovernanceAlert
	if input.UserID != "" {
		list, err = h.svc.Alerts().GetUserAlerts(ctx, input.UserID, filter)
	} else {
		portalID := input.PortalID
		if portalID == "" {
			portalID = h.svc.DefaultPortal()
		}
		list, err = h.svc.Alerts().GetPortalAlerts(ctx, portalID, filter)
	}
	if err != nil {
		return nil, GetAlertsOutput{}, err
	}
	return nil, GetAlertsOutput{Alerts: alertsToOutput(list), Count: len(list)}, nil
}

type AcknowledgeAlertInput struct {
	AlertID        string `json:"alert_id" jsonschema:"Alert id (required)"`
	AcknowledgedBy string `json:"acknowledged_by" jsonschema:"Who is acknowledging the alert (required)"`
}

type AcknowledgeAlertOutput struct {
	Acknowledged bool `json:"acknowledged"`
}

func (h *AlertHandlers) AcknowledgeAlert(ctx context.Context, _ *mcp.CallToolRequest, input AcknowledgeAlertInput) (*mcp.CallToolResult, AcknowledgeAlertOutput, error) {
	if input.AlertID == "" || input.AcknowledgedBy == "" {
		return nil, AcknowledgeAlertOutput{}, fmt.Errorf("alert_id and acknowledged_by are required")
	}
	ok, err := h.svc.Alerts().AcknowledgeAlert(ctx, input.AlertID, input.AcknowledgedBy)
	if err != nil {
		return nil, AcknowledgeAlertOutput{}, err
	}
	return nil, AcknowledgeAlertOutput{Acknowledged: ok}, nil
}

type UnacknowledgedCountInput struct {
	UserID string `json:"user_id" jsonschema:"Owner id (required)"`
}

type UnacknowledgedCountOutput struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

func (h *AlertHandlers) GetUnacknowledgedAlertCount(ctx context.Context, _ *mcp.CallToolRequest, input UnacknowledgedCountInput) (*mcp.CallToolResult, UnacknowledgedCountOutput, error) {
	if input.UserID == "" {
		return nil, UnacknowledgedCountOutput{}, fmt.Errorf("user_id is required")
	}
	n, err := h.svc.Alerts().GetUnacknowledgedAlertCount(ctx, input.UserID)
	if err != nil {
		return nil, UnacknowledgedCountOutput{}, err
	}
	return nil, UnacknowledgedCountOutput{UserID: input.UserID, Count: n}, nil
}

type CleanupAlertsInput struct {
	OlderThanDays int `json:"older_than_days,omitempty" jsonschema:"Delete acknowledged alerts older than this many days (defaults to the configured retention)"`
}

type CleanupAlertsOutput struct {
	Deleted int `json:"deleted"`
}

func (h *AlertHandlers) CleanupAlerts(ctx context.Context, _ *mcp.CallToolRequest, input CleanupAlertsInput) (*mcp.CallToolResult, CleanupAlertsOutput, error) {
	n, err := h.svc.CleanupAlerts(ctx, input.OlderThanDays)
	if err != nil {
		return nil, CleanupAlertsOutput{}, err
	}
	return nil, CleanupAlertsOutput{Deleted: n}, nil
}
