// ABOUTME: Scorecard and violation CLI commands
// ABOUTME: Implements scorecards, violations, resolve, fields and reset
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
)

// ScorecardsCommand lists every scorecard, or shows one in detail when a
// user id is given.
func ScorecardsCommand(ctx context.Context, svc *scorecard.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scorecards", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		sc, err := svc.GetScorecard(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if sc == nil {
			return fmt.Errorf("scorecard for %s: %w", fs.Arg(0), ErrNotFound)
		}
		printScorecard(out, sc)
		return nil
	}

	list, err := svc.GetAllScorecards(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No scorecards yet"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "USER\tNAME\tSCORE\tTREND\tTRANSITIONS\tINVALID\tVIOLATIONS")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t-----\t-----------\t-------\t----------")
	for _, sc := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%d\t%d\t%d\n",
			sc.UserID, sc.UserName, sc.ComplianceScore, sc.Trend,
			sc.Metrics.TotalStageTransitions, sc.Metrics.InvalidAttempts, len(sc.Violations))
	}
	return w.Flush()
}

func printScorecard(out io.Writer, sc *models.RepScorecard) {
	name := sc.UserID
	if sc.UserName != "" {
		name = fmt.Sprintf("%s (%s)", sc.UserName, sc.UserID)
	}
	m := sc.Metrics
	fmt.Fprintln(out, titleStyle.Render(name))
	fmt.Fprintf(out, "Period:       %s to %s\n", sc.Period.Start.Format("2006-01-02"), sc.Period.End.Format("2006-01-02"))
	fmt.Fprintf(out, "Score:        %.1f (%s)\n", sc.ComplianceScore, sc.Trend)
	fmt.Fprintf(out, "Transitions:  %d total, %d valid, %d invalid\n", m.TotalStageTransitions, m.ValidTransitions, m.InvalidAttempts)
	fmt.Fprintf(out, "Staged right: %d deals, %d contacts\n", m.DealsStagedCorrectly, m.ContactsStagedCorrectly)
	fmt.Fprintf(out, "Fields:       %.1f%% compliant\n", m.RequiredFieldsCompliance)
	if len(sc.Violations) == 0 {
		return
	}
	fmt.Fprintf(out, "\nViolations (%d):\n", len(sc.Violations))
	for _, v := range sc.Violations {
		printViolation(out, v)
	}
}

func printViolation(out io.Writer, v models.ComplianceViolation) {
	status := "open"
	if v.Resolved {
		status = "resolved"
	}
	fmt.Fprintf(out, "  %s %s %s %s/%s %s→%s %s\n",
		v.Timestamp.Format("2006-01-02 15:04"),
		severityStyle(v.Severity).Render(v.Severity),
		v.ID, v.ObjectType, v.ObjectID, v.FromStage, v.ToStage,
		dimStyle.Render(status))
	if len(v.MissingFields) > 0 {
		fmt.Fprintf(out, "    missing: %s\n", strings.Join(v.MissingFields, ", "))
	}
}

// ViolationsCommand lists a user's violations newest first.
func ViolationsCommand(ctx context.Context, svc *scorecard.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("violations", flag.ContinueOnError)
	fs.SetOutput(out)
	openOnly := fs.Bool("open", false, "Only unresolved violations")
	resolvedOnly := fs.Bool("resolved", false, "Only resolved violations")
	objectType := fs.String("type", "", "Filter by object type")
	limit := fs.Int("limit", 0, "Maximum number of violations (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("user id required")
	}
	if *openOnly && *resolvedOnly {
		return fmt.Errorf("--open and --resolved are mutually exclusive")
	}

	filter := scorecard.ViolationFilter{ObjectType: models.ObjectType(*objectType), Limit: *limit}
	if *openOnly || *resolvedOnly {
		resolved := *resolvedOnly
		filter.Resolved = &resolved
	}

	list, err := svc.GetUserViolations(ctx, fs.Arg(0), filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No violations"))
		return nil
	}
	for _, v := range list {
		printViolation(out, v)
	}
	return nil
}

// ResolveCommand marks one violation resolved.
func ResolveCommand(ctx context.Context, svc *scorecard.Service, args []string, out io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: resolve <user-id> <violation-id>")
	}
	ok, err := svc.ResolveViolation(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("violation %s for %s: %w", args[1], args[0], ErrNotFound)
	}
	fmt.Fprintf(out, "%s %s\n", passStyle.Render("✓ resolved"), args[1])
	return nil
}

// FieldsCommand records a required-fields audit result.
func FieldsCommand(ctx context.Context, svc *scorecard.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fields", flag.ContinueOnError)
	fs.SetOutput(out)
	total := fs.Int("total", 0, "Fields audited (required)")
	compliant := fs.Int("compliant", 0, "Fields that passed")
	name := fs.String("name", "", "User display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("user id required")
	}
	if *total < 0 || *compliant < 0 || *compliant > *total {
		return fmt.Errorf("compliant must be between 0 and total")
	}

	sc, err := svc.UpdateFieldsCompliance(ctx, fs.Arg(0), *name, *total, *compliant)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Fields compliance for %s: %.1f%%\n", sc.UserID, sc.Metrics.RequiredFieldsCompliance)
	return nil
}

// ResetCommand starts a new weekly period on a scorecard.
func ResetCommand(ctx context.Context, svc *scorecard.Service, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("user id required")
	}
	ok, err := svc.ResetScorecardForNewPeriod(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("scorecard for %s: %w", args[0], ErrNotFound)
	}
	fmt.Fprintf(out, "%s scorecard for %s\n", passStyle.Render("✓ reset"), args[0])
	return nil
}
