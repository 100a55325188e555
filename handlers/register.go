// ABOUTME: Registers every governance tool, resource and prompt on an MCP server
// ABOUTME: Shared by the mcp command and the handler tests
package handlers

import (
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register wires the governance surface onto server.
func Register(server *mcp.Server, svc *governance.Service) {
	validation := NewValidationHandlers(svc)
	scorecards := NewScorecardHandlers(svc.Scorecards())
	alertHandlers := NewAlertHandlers(svc)
	vizHandlers := NewVizHandlers(svc.Engine().Catalog())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_stage_transition",
		Description: "Validate a contact or deal stage change against the stage gates; records the outcome on the owner's scorecard when user_id is given",
	}, validation.ValidateStageTransition)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stage_rules",
		Description: "List the active stage-gate rules for contacts or deals",
	}, validation.GetStageRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "audit_record",
		Description: "Report every stage gate a record's current properties would fail, without moving it",
	}, validation.AuditRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_scorecard",
		Description: "Get a rep's compliance scorecard with its violations",
	}, scorecards.GetScorecard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_scorecards",
		Description: "List every rep's scorecard, highest compliance score first",
	}, scorecards.ListScorecards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_violations",
		Description: "List a rep's compliance violations newest first, optionally filtered",
	}, scorecards.GetViolations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_violation",
		Description: "Mark a compliance violation resolved",
	}, scorecards.ResolveViolation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_fields_compliance",
		Description: "Record a required-fields audit result on a rep's scorecard",
	}, scorecards.UpdateFieldsCompliance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_scorecard",
		Description: "Start a new weekly period on a rep's scorecard",
	}, scorecards.ResetScorecard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_alerts",
		Description: "List governance alerts for a portal or a rep, newest first",
	}, alertHandlers.GetAlerts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "acknowledge_alert",
		Description: "Acknowledge a governance alert",
	}, alertHandlers.AcknowledgeAlert)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_unacknowledged_alert_count",
		Description: "Count a rep's pending governance alerts",
	}, alertHandlers.GetUnacknowledgedAlertCount)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cleanup_alerts",
		Description: "Delete acknowledged alerts older than the retention period",
	}, alertHandlers.CleanupAlerts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_rule_graph",
		Description: "Render the stage gates for contacts or deals as GraphViz DOT",
	}, vizHandlers.GenerateRuleGraph)

	resources := NewResourceHandlers(svc)
	for _, r := range resources.Resources() {
		server.AddResource(r, resources.ReadResource)
	}

	prompts := NewPromptHandlers(svc)
	for _, p := range prompts.Prompts() {
		server.AddPrompt(p, prompts.GetPrompt)
	}
}
