// ABOUTME: Charm KV sync CLI commands
// ABOUTME: Implements sync status, sync now and sync wipe for the charm backend
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/charm"
)

// SyncCommand dispatches sync subcommands. c is nil unless the charm backend
// is active.
func SyncCommand(c *charm.Client, args []string, out io.Writer) error {
	if c == nil {
		return fmt.Errorf("sync requires the charm backend (set GATE_BACKEND=charm or --backend charm)")
	}
	if len(args) == 0 {
		return fmt.Errorf("sync requires a subcommand: status, now, wipe")
	}

	switch args[0] {
	case "status":
		return syncStatus(c, out)
	case "now":
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Fprintln(out, passStyle.Render("✓ synced"))
		return nil
	case "wipe":
		return syncWipe(c, args[1:], out)
	}
	return fmt.Errorf("unknown sync subcommand: %s", args[0])
}

func syncStatus(c *charm.Client, out io.Writer) error {
	st := c.Status()
	fmt.Fprintln(out, titleStyle.Render("Charm Sync Status"))
	fmt.Fprintln(out, "─────────────────")
	fmt.Fprintf(out, "Server:    %s\n", st.Host)
	fmt.Fprintf(out, "Auto-sync: %v\n", st.AutoSync)
	if st.Connected {
		fmt.Fprintf(out, "Status:    %s\n", passStyle.Render("connected"))
		fmt.Fprintf(out, "ID:        %s\n", st.AccountID)
	} else {
		fmt.Fprintf(out, "Status:    %s\n", warnStyle.Render("not connected"))
	}
	fmt.Fprintf(out, "Keys:      %d\n", st.Keys)
	return nil
}

func syncWipe(c *charm.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync wipe", flag.ContinueOnError)
	fs.SetOutput(out)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		fmt.Fprintln(out, warnStyle.Render("WARNING: This deletes every scorecard, violation and alert in the store!"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To confirm, run:")
		fmt.Fprintln(out, "  lifecycle-gate sync wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Fprintln(out, passStyle.Render("✓ All data wiped"))
	return nil
}
