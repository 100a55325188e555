// ABOUTME: Web dashboard subcommand
// ABOUTME: Serves the compliance dashboard over HTTP until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/web"
)

// ServeCommand starts the web dashboard.
func ServeCommand(ctx context.Context, svc *governance.Service, args []string, out io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(out)
	port := fs.Int("port", 8080, "Port to listen on")
	host := fs.String("host", "localhost", "Interface to bind")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv, err := web.NewServer(svc, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Dashboard at http://%s:%d\n", *host, *port)
	return srv.Start(ctx, fmt.Sprintf("%s:%d", *host, *port))
}
