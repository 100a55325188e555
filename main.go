// ABOUTME: Entry point for the lifecycle gate MCP server, CLI and TUI
// ABOUTME: Loads config, opens the storage backend and routes to a command
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/cli"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/config"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/tui"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	backend := flag.String("backend", "", "Storage backend: memory, sqlite or charm (default from GATE_BACKEND)")
	dbPath := flag.String("db-path", "", "SQLite database path (default: ~/.local/share/lifecycle-gate/gate.db)")
	rulesFile := flag.String("rules", "", "YAML rule file replacing the built-in gates")
	portal := flag.String("portal", "", "Default portal id for alerts")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("lifecycle-gate version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *rulesFile != "" {
		cfg.RulesFile = *rulesFile
	}
	if *portal != "" {
		cfg.PortalID = *portal
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := cli.OpenBackend(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend", "backend", cfg.Backend, "err", err)
	}

	err = run(ctx, b, args[0], args[1:], logger)
	_ = b.Close()
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, errUsage):
		printUsage()
		os.Exit(1)
	case err != nil:
		logger.Error(err.Error())
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func run(ctx context.Context, b *cli.Backend, command string, args []string, logger *log.Logger) error {
	svc := b.Service
	out := os.Stdout

	switch command {
	case "mcp":
		return cli.MCPCommand(ctx, svc, version, logger)
	case "tui":
		operator := os.Getenv("USER")
		if operator == "" {
			operator = "tui"
		}
		return tui.Run(ctx, svc, operator)
	case "serve":
		return cli.ServeCommand(ctx, svc, args, out, logger)

	case "validate":
		return cli.ValidateCommand(ctx, svc, args, out)
	case "rules":
		return cli.RulesCommand(svc, args, out)
	case "audit":
		return cli.AuditCommand(svc, args, out)

	case "scorecards":
		return cli.ScorecardsCommand(ctx, svc.Scorecards(), args, out)
	case "violations":
		return cli.ViolationsCommand(ctx, svc.Scorecards(), args, out)
	case "resolve":
		return cli.ResolveCommand(ctx, svc.Scorecards(), args, out)
	case "fields":
		return cli.FieldsCommand(ctx, svc.Scorecards(), args, out)
	case "reset":
		return cli.ResetCommand(ctx, svc.Scorecards(), args, out)

	case "alerts":
		return cli.AlertsCommand(ctx, svc, args, out)
	case "ack":
		return cli.AckCommand(ctx, svc, args, out)
	case "cleanup":
		return cli.CleanupCommand(ctx, svc, args, out)

	case "dashboard":
		return cli.DashboardCommand(ctx, svc, args, out)
	case "viz":
		if len(args) == 0 || args[0] != "rules" {
			fmt.Println("Error: viz requires a subcommand (rules)")
			return errUsage
		}
		return cli.VizRulesCommand(ctx, svc, args[1:], out)

	case "sync":
		return cli.SyncCommand(b.Stores.Charm, args, out)
	}

	fmt.Printf("Unknown command: %s\n\n", command)
	return errUsage
}

func printUsage() {
	fmt.Printf(`lifecycle-gate v%s - CRM stage-gate governance

USAGE:
  lifecycle-gate [global flags] <command> [flags] [args]

GLOBAL FLAGS:
  --version              Show version and exit
  --backend <name>       memory, sqlite or charm (env GATE_BACKEND, default sqlite)
  --db-path <path>       SQLite path (env GATE_DB_PATH, default ~/.local/share/lifecycle-gate/gate.db)
  --rules <file>         YAML rule file (env GATE_RULES_FILE)
  --portal <id>          Default portal for alerts (env GATE_PORTAL_ID)
  --log-level <level>    debug, info, warn or error (env GATE_LOG_LEVEL)

SERVERS:
  lifecycle-gate mcp     Start the MCP server on stdio
  lifecycle-gate tui     Browse scorecards, alerts and gates interactively
  lifecycle-gate serve [--host <h>] [--port <n>]   Web dashboard (default localhost:8080)

VALIDATION:
  lifecycle-gate validate   Check a stage transition
    --type <contact|deal>     Object type (required)
    --id <id>                 Record id (required)
    --from <stage>            Current stage (required)
    --to <stage>              Target stage (required)
    --prop key=value          Record property (repeatable; JSON values keep their type)
    --assoc type=n            Associated record count, enables dependency checks (repeatable)
    --user <id>               Owner; records the outcome on their scorecard
    --user-name <name>        Owner display name
    --portal <id>             Portal for raised alerts

  lifecycle-gate rules [--type <contact|deal>]   List the active gates
  lifecycle-gate audit --type <t> --prop k=v...  List every gate a record would fail

SCORECARDS:
  lifecycle-gate scorecards [user-id]            List scorecards, or show one
  lifecycle-gate violations [flags] <user-id>    List violations newest first
    --open | --resolved       Filter by resolution
    --type <contact|deal>     Filter by object type
    --limit <n>               Max results
  lifecycle-gate resolve <user-id> <violation-id>
  lifecycle-gate fields --total <n> --compliant <n> <user-id>
  lifecycle-gate reset <user-id>                 Start a new weekly period

ALERTS:
  lifecycle-gate alerts [--user <id>] [--unacked] [--severity <s>] [--limit <n>]
  lifecycle-gate ack --by <name> <alert-id>
  lifecycle-gate cleanup [--days <n>]            Delete old acknowledged alerts

VISUALIZATION:
  lifecycle-gate dashboard                       Team compliance summary
  lifecycle-gate viz rules [--type <t>] [--output <file>]   Gate graph as DOT

SYNC (charm backend):
  lifecycle-gate sync status | now | wipe --confirm

EXAMPLES:
  # Would this deal be allowed into presentationscheduled?
  lifecycle-gate validate --type deal --id 42 --from qualifiedtobuy --to presentationscheduled \
    --prop amount=5000 --prop closedate=2026-12-01 --prop dealtype=newbusiness --user rep-7

  # Render the deal gates
  lifecycle-gate viz rules --type deal --output deals.dot && dot -Tpng deals.dot -o deals.png

`, version)
}
