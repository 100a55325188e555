// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_rule_graph tool for agents
package handlers

import (
	"context"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	catalog *rules.Catalog
}

func NewVizHandlers(catalog *rules.Catalog) *VizHandlers {
	return &VizHandlers{catalog: catalog}
}

type GenerateRuleGraphInput struct {
	ObjectType string `json:"object_type" jsonschema:"CRM object type: contact or deal"`
}

type GenerateRuleGraphOutput struct {
	ObjectType string `json:"object_type"`
	DOTSource  string `json:"dot_source"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateRuleGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateRuleGraphInput) (*mcp.CallToolResult, GenerateRuleGraphOutput, error) {
	objectType, err := models.ParseObjectType(input.ObjectType)
	if err != nil {
		return nil, GenerateRuleGraphOutput{}, err
	}
	g, err := viz.GenerateRuleGraph(ctx, h.catalog, objectType)
	if err != nil {
		return nil, GenerateRuleGraphOutput{}, err
	}
	return nil, GenerateRuleGraphOutput{
		ObjectType: string(objectType),
		DOTSource:  g.DOT,
		NodeCount:  g.Nodes,
		EdgeCount:  g.Edges,
	}, nil
}
