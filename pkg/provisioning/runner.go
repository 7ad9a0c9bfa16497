package provisioning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/entra-ops/entra-provision/pkg/tabular"
)

// Runner drives one batch: rows in file order, one at a time, with the
// configured delay between rows that reached the directory.
type Runner struct {
	dir   Directory
	opts  Options
	runID uuid.UUID
}

func NewRunner(dir Directory, runID uuid.UUID, opts Options) (*Runner, error) {
	if dir == nil {
		return nil, invalidConfig("directory is required")
	}
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.Logger = opts.Logger.WithField("run_id", runID.String())
	return &Runner{dir: dir, opts: opts, runID: runID}, nil
}

// Run processes rows and returns the report. When ctx ends mid-batch the
// partial report is returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context, rows []tabular.RawRow) (*Report, error) {
	if ctx == nil {
		return nil, invalidConfig("ctx is required")
	}

	proc, err := NewProcessor(r.dir, r.opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     r.runID,
		Pipeline:  r.opts.Pipeline,
		StartedAt: r.opts.Now(),
		Summary:   newSummary(),
	}
	log := r.opts.Logger.WithField("pipeline", string(r.opts.Pipeline))
	log.WithFields(logrus.Fields{
		"rows":          len(rows),
		"dry_run":       r.opts.DryRun,
		"skip_existing": r.opts.SkipExisting,
	}).Info("provisioning: run started")

	runErr := r.loop(ctx, proc, rows, report)

	report.Rejected = proc.Rejected()
	report.FinishedAt = r.opts.Now()

	fields := logrus.Fields{
		"rejected_malformed": report.Rejected.Malformed,
		"rejected_duplicate": report.Rejected.Duplicate,
	}
	for st, n := range report.Summary {
		fields[string(st)] = n
	}
	if runErr != nil {
		log.WithFields(fields).WithError(runErr).Warn("provisioning: run interrupted")
		return report, runErr
	}
	log.WithFields(fields).Info("provisioning: run finished")
	return report, nil
}

func (r *Runner) loop(ctx context.Context, proc *Processor, rows []tabular.RawRow, report *Report) error {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := proc.Process(ctx, row)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				continue
			}
			return err
		}

		report.Results = append(report.Results, *res)
		report.Summary[res.Status]++

		if r.opts.ThrottleDelay > 0 && i < len(rows)-1 {
			if err := r.opts.Sleep(ctx, r.opts.ThrottleDelay); err != nil {
				return err
			}
		}
	}
	return nil
}
