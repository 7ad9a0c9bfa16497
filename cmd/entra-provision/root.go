package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath    string
	tenantID      string
	logPath       string
	groupID       string
	skipExisting  bool
	dryRun        bool
	throttleDelay float64
	jsonOutput    bool
}

func newRootCmd() *cobra.Command {
	var g globalOptions

	cmd := &cobra.Command{
		Use:           "entra-provision",
		Short:         "Bulk invite guests or create members in a Microsoft Entra External tenant from a CSV/XLSX file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML run file with default run options")
	pf.StringVar(&g.tenantID, "tenant-id", "", "Tenant id or domain (default: ENTRA_TENANT_ID)")
	pf.StringVar(&g.logPath, "log-path", "", "Result log path (default: ./<pipeline>-results-<timestamp>.csv)")
	pf.StringVar(&g.groupID, "group-id", "", "Group object id every processed user is added to")
	pf.BoolVar(&g.skipExisting, "skip-existing", false, "Look users up first and skip the ones that already exist")
	pf.BoolVar(&g.dryRun, "dry-run", false, "Report what would happen without creating, inviting or adding to groups")
	pf.Float64Var(&g.throttleDelay, "throttle-delay", 0, "Seconds to wait between processed rows")
	pf.BoolVar(&g.jsonOutput, "json", false, "Print the run summary as one JSON line on stdout")

	cmd.AddCommand(newInviteCmd(&g))
	cmd.AddCommand(newCreateCmd(&g))
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(code)
	}
}
