// ABOUTME: Scorecard and violation MCP tool handlers
// ABOUTME: Reads scorecards, filters and resolves violations, and manages periods
package handlers

import (
	"context"
	"fmt"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ScorecardHandlers struct {
	scorecards *scorecard.Service
}

func NewScorecardHandlers(scorecards *scorecard.Service) *ScorecardHandlers {
	return &ScorecardHandlers{scorecards: scorecards}
}

type GetScorecardInput struct {
	UserID string `json:"user_id" jsonschema:"Owner id (required)"`
}

type GetScorecardOutput struct {
	Found     bool             `json:"found"`
	Scorecard *ScorecardOutput `json:"scorecard,omitempty"`
}

func (h *ScorecardHandlers) GetScorecard(ctx context.Context, _ *mcp.CallToolRequest, input GetScorecardInput) (*mcp.CallToolResult, GetScorecardOutput, error) {
	if input.UserID == "" {
		return nil, GetScorecardOutput{}, fmt.Errorf("user_id is required")
	}
	sc, err := h.scorecards.GetScorecard(ctx, input.UserID)
	if err != nil {
		return nil, GetScorecardOutput{}, err
	}
	if sc == nil {
		return nil, GetScorecardOutput{Found: false}, nil
	}
	out := scorecardToOutput(sc)
	return nil, GetScorecardOutput{Found: true, Scorecard: &out}, nil
}

type ListScorecardsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of scorecards to return (default all)"`
}

type ListScorecardsOutput struct {
	Scorecards []ScorecardOutput `json:"scorecards"`
	Count      int               `json:"count"`
}

func (h *ScorecardHandlers) ListScorecards(ctx context.Context, _ *mcp.CallToolRequest, input ListScorecardsInput) (*mcp.CallToolResult, ListScorecardsOutput, error) {
	list, err := h.scorecards.GetAllScorecards(ctx)
	if err != nil {
		return nil, ListScorecardsOutput{}, err
	}
	if input.Limit > 0 && len(list) > input.Limit {
		list = list[:input.Limit]
	}
	out := ListScorecardsOutput{Scorecards: make([]ScorecardOutput, len(list)), Count: len(list)}
	for i, sc := range list {
		out.Scorecards[i] = scorecardToOutput(sc)
	}
	return nil, out, nil
}

type GetViolationsInput struct {
	UserID     string `json:"user_id" jsonschema:"Owner id (required)"`
	Resolved   *bool  `json:"resolved,omitempty" jsonschema:"Only resolved (true) or unresolved (false) violations"`
	ObjectType string `json:"object_type,omitempty" jsonschema:"Only violations on contact or deal records"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of violations to return"`
}

type GetViolationsOutput struct {
	Violations []ViolationOutput `json:"violations"`
	Count      int               `json:"count"`
}

func (h *ScorecardHandlers) GetViolations(ctx context.Context, _ *mcp.CallToolRequest, input GetViolationsInput) (*mcp.CallToolResult, GetViolationsOutput, error) {
	if input.UserID == "" {
		return nil, GetViolationsOutput{}, fmt.Errorf("user_id is required")
	}
	filter := scorecard.ViolationFilter{Resolved: input.Resolved, Limit: input.Limit}
	if input.ObjectType != "" {
		t, err := models.ParseObjectType(input.ObjectType)
		if err != nil {
			return nil, GetViolationsOutput{}, err
		}
		filter.ObjectType = t
	}

	list, err := h.scorecards.GetUserViolations(ctx, input.UserID, filter)
	if err != nil {
		return nil, GetViolationsOutput{}, err
	}
	return nil, GetViolationsOutput{Violations: violationsToOutput(list), Count: len(list)}, nil
}

type ResolveViolationInput struct {
	UserID      string `json:"user_id" jsonschema:"Owner id (required)"`
	ViolationID string `json:"violation_id" jsonschema:"Violation id (required)"`
}

type ResolveViolationOutput struct {
	Resolved bool `json:"resolved"`
}

func (h *ScorecardHandlers) ResolveViolation(ctx context.Context, _ *mcp.CallToolRequest, input ResolveViolationInput) (*mcp.CallToolResult, ResolveViolationOutput, error) {
	if input.UserID == "" || input.ViolationID == "" {
		return nil, ResolveViolationOutput{}, fmt.Errorf("user_id and violation_id are required")
	}
	ok, err := h.scorecards.ResolveViolation(ctx, input.UserID, input.ViolationID)
	if err != nil {
		return nil, ResolveViolationOutput{}, err
	}
	return nil, ResolveViolationOutput{Resolved: ok}, nil
}

type UpdateFieldsComplianceInput struct {
	UserID          string `json:"user_id" jsonschema:"Owner id (required)"`
	UserName        string `json:"user_name,omitempty" jsonschema:"Owner display name"`
	TotalFields     int    `json:"total_fields" jsonschema:"Number of required fields audited"`
	CompliantFields int    `json:"compliant_fields" jsonschema:"Number of those fields that were filled in correctly"`
}

func (h *ScorecardHandlers) UpdateFieldsCompliance(ctx context.Context, _ *mcp.CallToolRequest, input UpdateFieldsComplianceInput) (*mcp.CallToolResult, ScorecardOutput, error) {
	if input.UserID == "" {
		return nil, ScorecardOutput{}, fmt.Errorf("user_id is required")
	}
	if input.TotalFields < 0 || input.CompliantFields < 0 || input.CompliantFields > input.TotalFields {
		return nil, ScorecardOutput{}, fmt.Errorf("compliant_fields must be between 0 and total_fields")
	}
	sc, err := h.scorecards.UpdateFieldsCompliance(ctx, input.UserID, input.UserName, input.TotalFields, input.CompliantFields)
	if err != nil {
		return nil, ScorecardOutput{}, err
	}
	return nil, scorecardToOutput(sc), nil
}

type ResetScorecardInput struct {
	UserID string `json:"user_id" jsonschema:"Owner id (required)"`
}

type ResetScorecardOutput struct {
	Reset bool `json:"reset"`
}

func (h *ScorecardHandlers) ResetScorecard(ctx context.Context, _ *mcp.CallToolRequest, input ResetScorecardInput) (*mcp.CallToolResult, ResetScorecardOutput, error) {
	if input.UserID == "" {
		return nil, ResetScorecardOutput{}, fmt.Errorf("user_id is required")
	}
	ok, err := h.scorecards.ResetScorecardForNewPeriod(ctx, input.UserID)
	if err != nil {
		return nil, ResetScorecardOutput{}, err
	}
	return nil, ResetScorecardOutput{Reset: ok}, nil
}
