package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/fileingest/internal/config"
	"github.com/nao1215/fileingest/internal/database"
	"github.com/nao1215/fileingest/internal/report"
)

// errJobNotFound is returned when --job names a job that is not stored.
var errJobNotFound = errors.New("job not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored ingest jobs",
		Long: `History lists the ingest jobs stored in the case database, most recent first.
With --job it prints the stored report of a single job, including the module
errors recorded for it.

Examples:
  fileingest history
  fileingest history --job 0b9f1c9e-5d7e-4c55-9d35-0b2f8d1a6f41 -m`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the case database")
	cmd.Flags().String("job", "",
		"Print the stored report of this job")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	jobID, err := cmd.Flags().GetString("job")
	if err != nil {
		return err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	return showHistory(cmd.Context(), cfg, jobID, cmd.OutOrStdout())
}

// showHistory prints the job list, or one job report when jobID is set.
func showHistory(ctx context.Context, cfg *config.Config, jobID string, out io.Writer) error {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			fmt.Fprintln(out, "No case database yet. Run \"fileingest ingest\" first.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	w := newHistoryWriter(cfg, out)

	if jobID == "" {
		jobs, err := db.ListJobs(ctx)
		if err != nil {
			return err
		}
		_, err = w.WriteHistory(jobs)
		return err
	}

	r, err := db.GetJobReport(ctx, jobID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: %s", errJobNotFound, jobID)
	}

	if len(r.Failures) == 0 {
		failures, err := db.ModuleErrors(ctx, jobID)
		if err != nil {
			return err
		}
		r.Failures = failures
	}

	_, err = w.Write(r)
	return err
}

func newHistoryWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithShowEmpty(true))
	}
}
