package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

type runSummary struct {
	RunID             string         `json:"run_id"`
	Pipeline          string         `json:"pipeline"`
	DryRun            bool           `json:"dry_run"`
	Interrupted       bool           `json:"interrupted"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        time.Time      `json:"finished_at"`
	Results           int            `json:"results"`
	Counts            map[string]int `json:"counts"`
	RejectedMalformed int            `json:"rejected_malformed"`
	RejectedDuplicate int            `json:"rejected_duplicate"`
	LogPath           string         `json:"log_path"`
}

func newRunSummary(report *provisioning.Report, dryRun bool, logPath string, interrupted bool) runSummary {
	counts := make(map[string]int, len(report.Summary))
	for st, n := range report.Summary {
		counts[string(st)] = n
	}
	return runSummary{
		RunID:             report.RunID.String(),
		Pipeline:          string(report.Pipeline),
		DryRun:            dryRun,
		Interrupted:       interrupted,
		StartedAt:         report.StartedAt.UTC(),
		FinishedAt:        report.FinishedAt.UTC(),
		Results:           len(report.Results),
		Counts:            counts,
		RejectedMalformed: report.Rejected.Malformed,
		RejectedDuplicate: report.Rejected.Duplicate,
		LogPath:           logPath,
	}
}

func printSummary(w io.Writer, asJSON bool, report *provisioning.Report, dryRun bool, logPath string, interrupted bool) error {
	s := newRunSummary(report, dryRun, logPath, interrupted)
	if asJSON {
		return writeJSONLine(w, s)
	}

	fmt.Fprintf(w, "%s run %s", s.Pipeline, s.RunID)
	if s.DryRun {
		fmt.Fprint(w, " (dry run)")
	}
	if s.Interrupted {
		fmt.Fprint(w, " (interrupted)")
	}
	fmt.Fprintln(w)
	for _, st := range provisioning.Statuses {
		fmt.Fprintf(w, "  %-16s %d\n", st, s.Counts[string(st)])
	}
	fmt.Fprintf(w, "  %-16s %d malformed, %d duplicate\n", "Rejected", s.RejectedMalformed, s.RejectedDuplicate)
	fmt.Fprintf(w, "Result log: %s\n", s.LogPath)
	return nil
}

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitLogWrite, fmt.Errorf("json encode: %w", err))
	}
	return nil
}
