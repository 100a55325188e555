// ABOUTME: Stage-gate validation CLI commands
// ABOUTME: Implements validate, rules and audit
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validation"
)

// ValidateCommand checks one stage transition and records it when --user is set.
func ValidateCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(out)
	objectType := fs.String("type", "", "Object type: contact or deal (required)")
	objectID := fs.String("id", "", "Record id (required)")
	from := fs.String("from", "", "Current stage (required)")
	to := fs.String("to", "", "Target stage (required)")
	user := fs.String("user", "", "Owner id; records the outcome on their scorecard")
	userName := fs.String("user-name", "", "Owner display name")
	portal := fs.String("portal", "", "Portal for raised alerts")
	props := propsFlag{}
	fs.Var(props, "prop", "Record property as key=value (repeatable)")
	assoc := countsFlag{}
	fs.Var(assoc, "assoc", "Associated record count as type=n, e.g. deals=1 (repeatable; enables dependency checks)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tr := governance.TransitionRequest{
		PortalID: *portal,
		UserName: *userName,
		Request: models.ValidationRequest{
			ObjectType:   models.ObjectType(*objectType),
			ObjectID:     *objectID,
			CurrentStage: *from,
			TargetStage:  *to,
			Properties:   props,
			UserID:       *user,
		},
	}
	if len(assoc) > 0 {
		tr.Resolver = validation.AssociationCounts(assoc)
	}

	res, err := svc.ProcessTransition(ctx, tr)
	if err != nil {
		return err
	}

	if res.Validation.IsValid {
		fmt.Fprintf(out, "%s %s → %s\n", passStyle.Render("✓ allowed"), *from, *to)
	} else {
		fmt.Fprintf(out, "%s %s → %s\n", failStyle.Render("✗ blocked"), *from, *to)
	}
	for _, e := range res.Validation.Errors {
		fmt.Fprintf(out, "  %s %s %s\n", failStyle.Render("error"), e.Message, dimStyle.Render("("+e.Code+")"))
	}
	for _, w := range res.Validation.Warnings {
		fmt.Fprintf(out, "  %s %s %s\n", warnStyle.Render("warning"), w.Message, dimStyle.Render("("+w.Code+")"))
	}
	if res.Scorecard != nil {
		fmt.Fprintf(out, "  Score for %s: %.1f (%s)\n", res.Scorecard.UserID, res.Scorecard.ComplianceScore, res.Scorecard.Trend)
	}
	if res.Violation != nil {
		fmt.Fprintf(out, "  Violation logged: %s [%s]\n", res.Violation.ID, res.Violation.Severity)
	}
	for _, a := range res.Alerts {
		fmt.Fprintf(out, "  Alert raised: %s %s\n", a.ID, a.Title)
	}
	return nil
}

// RulesCommand lists the active stage gates.
func RulesCommand(svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rules", flag.ContinueOnError)
	fs.SetOutput(out)
	objectType := fs.String("type", "", "Object type: contact or deal (default both)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	types := []models.ObjectType{models.ObjectContact, models.ObjectDeal}
	if *objectType != "" {
		t, err := models.ParseObjectType(*objectType)
		if err != nil {
			return err
		}
		types = []models.ObjectType{t}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tID\tFROM\tTO\tFIELDS\tCONDITIONS\tDEPENDENCIES")
	_, _ = fmt.Fprintln(w, "----\t--\t----\t--\t------\t----------\t------------")
	for _, t := range types {
		for _, r := range svc.Rules(t) {
			fields := make([]string, len(r.RequiredFields))
			for i, f := range r.RequiredFields {
				fields[i] = f.Field
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				t, r.ID, r.FromStage, r.ToStage, strings.Join(fields, ","), len(r.Conditions), len(r.Dependencies))
		}
	}
	return w.Flush()
}

// AuditCommand lists every gate a record's properties would fail today.
func AuditCommand(svc *governance.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(out)
	objectType := fs.String("type", "", "Object type: contact or deal (required)")
	props := propsFlag{}
	fs.Var(props, "prop", "Record property as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := svc.Audit(models.ObjectType(*objectType), props)
	if err != nil {
		return err
	}
	if len(res.Warnings) == 0 {
		fmt.Fprintln(out, passStyle.Render("✓ record satisfies every gate"))
		return nil
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d gates would block this record", len(res.Warnings))))
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  %s %s\n", warnStyle.Render(w.Field), w.Message)
	}
	return nil
}
