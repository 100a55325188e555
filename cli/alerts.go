// ABOUTME: Governance alert CLI commands
// ABOUTME: Implements alerts, ack and cleanup
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
)

// AlertsCommand lists alerts for a user, or for a portal when no user is given.
func AlertsCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("alerts", flag.ContinueOnError)
	fs.SetOutput(out)
	user := fs.String("user", "", "List alerts for this user instead of the portal")
	portal := fs.String("portal", "", "Portal id (default from config)")
	unacked := fs.Bool("unacked", false, "Only unacknowledged alerts")
	severity := fs.String("severity", "", "Filter by severity")
	limit := fs.Int("limit", 0, "Maximum number of alerts (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := alerts.Filter{Severity: *severity, Limit: *limit}
	if *unacked {
		f := false
		filter.Acknowledged = &f
	}

	var list []*models.GovernanceAlert
	var err error
	if *user != "" {
		list, err = svc.Alerts().GetUserAlerts(ctx, *user, filter)
	} else {
		portalID := *portal
		if portalID == "" {
			portalID = svc.DefaultPortal()
		}
		list, err = svc.Alerts().GetPortalAlerts(ctx, portalID, filter)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No alerts"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTIME\tSEVERITY\tUSER\tTITLE\tACK")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t----\t-----\t---")
	for _, a := range list {
		ack := ""
		if a.Acknowledged {
			ack = "✓ " + a.AcknowledgedBy
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Timestamp.Format("2006-01-02 15:04"), a.Severity, a.UserID, a.Title, ack)
	}
	return w.Flush()
}

// AckCommand acknowledges an alert.
func AckCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ack", flag.ContinueOnError)
	fs.SetOutput(out)
	by := fs.String("by", "", "Who is acknowledging (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("alert id required")
	}
	if *by == "" {
		return fmt.Errorf("--by is required")
	}

	ok, err := svc.Alerts().AcknowledgeAlert(ctx, fs.Arg(0), *by)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("alert %s: %w", fs.Arg(0), ErrNotFound)
	}
	fmt.Fprintf(out, "%s %s\n", passStyle.Render("✓ acknowledged"), fs.Arg(0))
	return nil
}

// CleanupCommand removes old acknowledged alerts.
func CleanupCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	fs.SetOutput(out)
	days := fs.Int("days", 0, "Age in days (default: configured retention)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n, err := svc.CleanupAlerts(ctx, *days)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %d acknowledged alerts\n", n)
	return nil
}
