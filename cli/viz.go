// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the compliance dashboard and rule graph generation
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/viz"
)

// DashboardCommand prints the team compliance dashboard.
func DashboardCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(out)
	portal := fs.String("portal", "", "Portal id (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	portalID := *portal
	if portalID == "" {
		portalID = svc.DefaultPortal()
	}

	stats, err := viz.GenerateDashboardStats(ctx, svc.Scorecards(), svc.Alerts(), portalID, svc.ComplianceThreshold())
	if err != nil {
		return err
	}
	fmt.Fprint(out, viz.RenderDashboard(stats))
	return nil
}

// VizRulesCommand writes the stage-gate graph for an object type as DOT.
func VizRulesCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("viz rules", flag.ContinueOnError)
	fs.SetOutput(out)
	objectType := fs.String("type", string(models.ObjectDeal), "Object type: contact or deal")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := models.ParseObjectType(*objectType)
	if err != nil {
		return err
	}
	graph, err := viz.GenerateRuleGraph(ctx, svc.Engine().Catalog(), t)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(graph.DOT), 0644)
	}
	fmt.Fprintln(out, graph.DOT)
	return nil
}
