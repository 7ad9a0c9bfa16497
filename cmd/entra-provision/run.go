package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/entra-ops/entra-provision/pkg/configuration"
	"github.com/entra-ops/entra-provision/pkg/graphdir"
	"github.com/entra-ops/entra-provision/pkg/metrics"
	"github.com/entra-ops/entra-provision/pkg/provisioning"
	"github.com/entra-ops/entra-provision/pkg/tabular"
	"github.com/entra-ops/entra-provision/pkg/tracing"
)

type runOptions = configuration.RunOptions

const pushTimeout = 10 * time.Second

var connectDirectory = func(ctx context.Context, opts graphdir.AuthOptions) (provisioning.Directory, error) {
	return graphdir.Connect(ctx, opts)
}

// resolveRunOptions layers defaults, the --config run file, the persistent
// flags and finally the subcommand flags. Only flags set on the command line
// override the run file.
func resolveRunOptions(cmd *cobra.Command, g *globalOptions, apply func(o *runOptions)) (runOptions, error) {
	opts := configuration.DefaultRunOptions()
	if g.configPath != "" {
		var err error
		opts, err = configuration.ReadRunFile(g.configPath, opts)
		if err != nil {
			return opts, withCode(exitUsage, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("tenant-id") {
		opts.TenantID = g.tenantID
	}
	if flags.Changed("log-path") {
		opts.LogPath = g.logPath
	}
	if flags.Changed("group-id") {
		opts.AddToGroupID = g.groupID
	}
	if flags.Changed("skip-existing") {
		opts.SkipExisting = g.skipExisting
	}
	if flags.Changed("dry-run") {
		opts.DryRun = g.dryRun
	}
	if flags.Changed("throttle-delay") {
		opts.ThrottleDelaySeconds = g.throttleDelay
	}
	if apply != nil {
		apply(&opts)
	}

	if err := opts.Validate(); err != nil {
		return opts, withCode(exitUsage, err)
	}
	return opts, nil
}

func runPipeline(cmd *cobra.Command, pipeline provisioning.Pipeline, g *globalOptions, opts runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := configuration.Load(configuration.DefaultEnvFiles)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer cfg.Unload()

	runID := uuid.New()
	log := cfg.Logger().WithFields(logrus.Fields{
		"run_id":   runID.String(),
		"pipeline": string(pipeline),
	})

	// The input is checked before any session exists.
	rows, err := tabular.Load(opts.CSVPath, provisioning.RequiredColumns(pipeline))
	if err != nil {
		return withCode(exitInput, err)
	}
	log.WithFields(logrus.Fields{"path": opts.CSVPath, "rows": len(rows)}).Info("entra-provision: input loaded")

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Enabled:     cfg.OpenTelemetry.Enabled,
		Endpoint:    cfg.OpenTelemetry.TempoURL,
		ServiceName: cfg.OpenTelemetry.ServiceName,
	})
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.WithError(err).Warn("entra-provision: flushing traces failed")
		}
	}()

	tenantID := opts.TenantID
	if tenantID == "" {
		tenantID = cfg.Entra.TenantID
	}
	dir, err := connectDirectory(ctx, graphdir.AuthOptions{
		TenantID:     tenantID,
		ClientID:     cfg.Entra.ClientID,
		ClientSecret: cfg.Entra.ClientSecret,
		Logger:       log,
	})
	if err != nil {
		return withCode(exitConnect, err)
	}
	defer func() {
		if err := dir.Close(); err != nil {
			log.WithError(err).Warn("entra-provision: closing directory session failed")
		}
	}()

	m := provisioning.NewMetrics(nil)
	runner, err := provisioning.NewRunner(dir, runID, provisioning.Options{
		Pipeline:              pipeline,
		SkipExisting:          opts.SkipExisting,
		DryRun:                opts.DryRun,
		DefaultGroupID:        opts.AddToGroupID,
		ThrottleDelay:         opts.ThrottleDelay(),
		SendInvitationMessage: opts.SendInvitationMessage,
		CustomMessage:         opts.CustomMessage,
		RedirectURL:           opts.RedirectURL,
		DomainSuffix:          opts.DomainSuffix,
		Logger:                log,
		Metrics:               m,
	})
	if err != nil {
		return withCode(exitUsage, err)
	}

	report, runErr := runner.Run(ctx, rows)
	if report == nil {
		return withCode(exitUsage, runErr)
	}

	logPath := opts.LogPath
	if logPath == "" {
		logPath = provisioning.DefaultLogPath(".", pipeline, report.StartedAt)
	}
	if err := provisioning.WriteResultLog(logPath, pipeline, report.Results); err != nil {
		return withCode(exitLogWrite, errors.Wrap(err, "write result log"))
	}

	pushMetrics(cfg.Pushgateway, report, m, log)

	if err := printSummary(cmd.OutOrStdout(), g.jsonOutput, report, opts.DryRun, logPath, runErr != nil); err != nil {
		return err
	}
	if runErr != nil {
		return withCode(exitInterrupted, errors.Wrap(runErr, "run interrupted, partial result log written"))
	}
	return nil
}

func pushMetrics(opts configuration.PushgatewayOptions, report *provisioning.Report, m *provisioning.Metrics, log *logrus.Entry) {
	pusher := metrics.NewPusher(opts.URL, opts.Job)
	if pusher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := pusher.
		Grouping("run_id", report.RunID.String()).
		Grouping("pipeline", string(report.Pipeline)).
		Push(ctx, m.Registry)
	if err != nil {
		log.WithError(err).Warn("entra-provision: metrics push failed")
		return
	}
	log.WithField("url", opts.URL).Debug("entra-provision: metrics pushed")
}
