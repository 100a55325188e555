// ABOUTME: MCP resource handlers exposing the rule catalog and scorecards
// ABOUTME: Serves gate://rules/{contact,deal} and gate://scorecards as JSON
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "gate://"

type ResourceHandlers struct {
	svc *governance.Service
}

func NewResourceHandlers(svc *governance.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// Resources lists what ReadResource can serve.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			Name:        "contact_rules",
			Title:       "Contact lifecycle gates",
			Description: "Active stage-gate rules for contact lifecycle stages",
			MIMEType:    "application/json",
			URI:         resourceScheme + "rules/contact",
		},
		{
			Name:        "deal_rules",
			Title:       "Deal pipeline gates",
			Description: "Active stage-gate rules for deal pipeline stages",
			MIMEType:    "application/json",
			URI:         resourceScheme + "rules/deal",
		},
		{
			Name:        "scorecards",
			Title:       "Rep scorecards",
			Description: "Every rep's compliance scorecard, highest score first",
			MIMEType:    "application/json",
			URI:         resourceScheme + "scorecards",
		},
	}
}

// ReadResource handles resource read requests.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch {
	case parts[0] == "rules" && len(parts) == 2:
		objectType, err := models.ParseObjectType(parts[1])
		if err != nil {
			return nil, fmt.Errorf("unknown resource: %s", uri)
		}
		list := h.svc.Rules(objectType)
		if list == nil {
			list = []models.StageGateRule{}
		}
		return jsonResource(uri, list)

	case parts[0] == "scorecards" && len(parts) == 1:
		cards, err := h.svc.Scorecards().GetAllScorecards(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch scorecards: %w", err)
		}
		out := make([]ScorecardOutput, len(cards))
		for i, sc := range cards {
			out[i] = scorecardToOutput(sc)
		}
		return jsonResource(uri, out)

	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
