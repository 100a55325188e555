// ABOUTME: MCP prompt handlers for stage-gate coaching workflows
// ABOUTME: Builds review prompts from a rep's scorecard or the rule catalog
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc *governance.Service
}

func NewPromptHandlers(svc *governance.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// Prompts lists the prompts GetPrompt can build.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "compliance-review",
			Description: "Coaching review of one rep's stage-gate compliance",
			Arguments:   []*mcp.PromptArgument{{Name: "user_id", Description: "Owner id", Required: true}},
		},
		{
			Name:        "gate-overview",
			Description: "Explain the active stage gates for contacts or deals",
			Arguments:   []*mcp.PromptArgument{{Name: "object_type", Description: "contact or deal", Required: true}},
		},
	}
}

// GetPrompt generates the prompt message based on the template.
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "compliance-review":
		return h.complianceReview(ctx, args)
	case "gate-overview":
		return h.gateOverview(args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) complianceReview(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	userID := args["user_id"]
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	sc, err := h.svc.Scorecards().GetScorecard(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("no scorecard for user %s", userID)
	}
	unresolved := false
	open, err := h.svc.Scorecards().GetUserViolations(ctx, userID, scorecard.ViolationFilter{Resolved: &unresolved, Limit: 10})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	text.WriteString("Review this rep's CRM stage-gate compliance and suggest concrete coaching steps:\n\n")
	name := sc.UserName
	if name == "" {
		name = sc.UserID
	}
	text.WriteString(fmt.Sprintf("Rep: %s\n", name))
	text.WriteString(fmt.Sprintf("Compliance score: %.1f (%s)\n", sc.ComplianceScore, sc.Trend))
	text.WriteString(fmt.Sprintf("Transitions this period: %d valid, %d blocked\n", sc.Metrics.ValidTransitions, sc.Metrics.InvalidAttempts))
	text.WriteString(fmt.Sprintf("Required fields compliance: %.0f%%\n", sc.Metrics.RequiredFieldsCompliance))

	if len(open) > 0 {
		text.WriteString("\nOpen violations:\n")
		for _, v := range open {
			text.WriteString(fmt.Sprintf("- [%s] %s on %s %s", v.Severity, v.RuleName, v.ObjectType, v.ObjectID))
			if len(v.MissingFields) > 0 {
				text.WriteString(fmt.Sprintf(" (missing: %s)", strings.Join(v.MissingFields, ", ")))
			}
			text.WriteString("\n")
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Compliance review for %s", name),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}

func (h *PromptHandlers) gateOverview(args map[string]string) (*mcp.GetPromptResult, error) {
	objectType, err := models.ParseObjectType(args["object_type"])
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Explain these %s stage gates to a sales team in plain language:\n\n", objectType))
	for _, r := range h.svc.Rules(objectType) {
		text.WriteString(fmt.Sprintf("%s (%s -> %s)\n", r.Name, r.FromStage, r.ToStage))
		for _, f := range r.RequiredFields {
			text.WriteString(fmt.Sprintf("  - %s: %s\n", f.Label, f.Type))
		}
		for _, c := range r.Conditions {
			text.WriteString(fmt.Sprintf("  - condition: %s\n", c.ErrorMessage))
		}
		for _, d := range r.Dependencies {
			text.WriteString(fmt.Sprintf("  - dependency: %s\n", d.Message))
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("%s stage gate overview", objectType),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}
