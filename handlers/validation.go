// ABOUTME: Stage-gate validation MCP tool handlers
// ABOUTME: Implements validate_stage_transition, get_stage_rules and audit_record
package handlers

import (
	"context"
	"fmt"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ValidationHandlers struct {
	svc *governance.Service
}

func NewValidationHandlers(svc *governance.Service) *ValidationHandlers {
	return &ValidationHandlers{svc: svc}
}

type ValidateTransitionInput struct {
	ObjectType   string         `json:"object_type" jsonschema:"CRM object type: contact or deal"`
	ObjectID     string         `json:"object_id" jsonschema:"CRM record id"`
	CurrentStage string         `json:"current_stage" jsonschema:"Stage the record is in now"`
	TargetStage  string         `json:"target_stage" jsonschema:"Stage the record is moving to"`
	Properties   map[string]any `json:"properties,omitempty" jsonschema:"Record properties by internal name"`
	UserID       string         `json:"user_id,omitempty" jsonschema:"Owner to score; omit to validate without recording"`
	UserName     string         `json:"user_name,omitempty" jsonschema:"Owner display name"`
	PortalID     string         `json:"portal_id,omitempty" jsonschema:"Portal for raised alerts (defaults to the configured portal)"`
	Associations map[string]int `json:"associations,omitempty" jsonschema:"Associated record counts by object type (e.g. deals, contacts, closed_won_deals); enables dependency checks"`
}

type ValidateTransitionOutput struct {
	IsValid     bool                       `json:"is_valid"`
	Errors      []models.ValidationError   `json:"errors"`
	Warnings    []models.ValidationWarning `json:"warnings"`
	Scorecard   *ScorecardOutput           `json:"scorecard,omitempty"`
	ViolationID string                     `json:"violation_id,omitempty"`
	AlertIDs    []string                   `json:"alert_ids"`
}

func (h *ValidationHandlers) ValidateStageTransition(ctx context.Context, _ *mcp.CallToolRequest, input ValidateTransitionInput) (*mcp.CallToolResult, ValidateTransitionOutput, error) {
	tr := governance.TransitionRequest{
		PortalID: input.PortalID,
		UserName: input.UserName,
		Request: models.ValidationRequest{
			ObjectType:   models.ObjectType(input.ObjectType),
			ObjectID:     input.ObjectID,
			CurrentStage: input.CurrentStage,
			TargetStage:  input.TargetStage,
			Properties:   input.Properties,
			UserID:       input.UserID,
		},
	}
	if input.Associations != nil {
		tr.Resolver = validation.AssociationCounts(input.Associations)
	}

	res, err := h.svc.ProcessTransition(ctx, tr)
	if err != nil {
		return nil, ValidateTransitionOutput{}, err
	}

	out := ValidateTransitionOutput{
		IsValid:  res.Validation.IsValid,
		Errors:   res.Validation.Errors,
		Warnings: res.Validation.Warnings,
		AlertIDs: []string{},
	}
	if res.Scorecard != nil {
		sc := scorecardToOutput(res.Scorecard)
		out.Scorecard = &sc
	}
	if res.Violation != nil {
		out.ViolationID = res.Violation.ID
	}
	for _, a := range res.Alerts {
		out.AlertIDs = append(out.AlertIDs, a.ID)
	}
	return nil, out, nil
}

type GetStageRulesInput struct {
	ObjectType string `json:"object_type" jsonschema:"CRM object type: contact or deal"`
}

type GetStageRulesOutput struct {
	ObjectType string                 `json:"object_type"`
	Rules      []models.StageGateRule `json:"rules"`
	Count      int                    `json:"count"`
}

func (h *ValidationHandlers) GetStageRules(_ context.Context, _ *mcp.CallToolRequest, input GetStageRulesInput) (*mcp.CallToolResult, GetStageRulesOutput, error) {
	objectType, err := models.ParseObjectType(input.ObjectType)
	if err != nil {
		return nil, GetStageRulesOutput{}, err
	}
	list := h.svc.Rules(objectType)
	if list == nil {
		list = []models.StageGateRule{}
	}
	return nil, GetStageRulesOutput{ObjectType: string(objectType), Rules: list, Count: len(list)}, nil
}

type AuditRecordInput struct {
	ObjectType string         `json:"object_type" jsonschema:"CRM object type: contact or deal"`
	Properties map[string]any `json:"properties" jsonschema:"Record properties by internal name"`
}

type AuditRecordOutput struct {
	FailingRules int                        `json:"failing_rules"`
	Warnings     []models.ValidationWarning `json:"warnings"`
	Summary      string                     `json:"summary"`
}

func (h *ValidationHandlers) AuditRecord(_ context.Context, _ *mcp.CallToolRequest, input AuditRecordInput) (*mcp.CallToolResult, AuditRecordOutput, error) {
	res, err := h.svc.Audit(models.ObjectType(input.ObjectType), input.Properties)
	if err != nil {
		return nil, AuditRecordOutput{}, err
	}
	total := len(h.svc.Rules(models.ObjectType(input.ObjectType)))
	return nil, AuditRecordOutput{
		FailingRules: len(res.Warnings),
		Warnings:     res.Warnings,
		Summary:      fmt.Sprintf("%d of %d %s rules would fail", len(res.Warnings), total, input.ObjectType),
	}, nil
}
