package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/config"
	"github.com/nao1215/fileingest/internal/database"
	"github.com/nao1215/fileingest/internal/event"
	"github.com/nao1215/fileingest/internal/ingest"
	filelog "github.com/nao1215/fileingest/internal/log"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/modules"
	"github.com/nao1215/fileingest/internal/pipeline"
	"github.com/nao1215/fileingest/internal/report"
)

// errDataSourceFailed is returned when at least one data source could not be ingested.
var errDataSourceFailed = errors.New("data source ingest failed")

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [directory]...",
		Short: "Run the file ingest pipeline over one or more directories",
		Long: `Ingest adds every directory as a data source to the case database and runs
each regular file below it through the file ingest pipeline.

The modules of the pipeline post artifacts for:
- Files whose hash is in a known-bad hash set
- Identifying EXIF metadata in images (device, author, GPS position)
- Search engine queries found in URLs inside text and HTML files
- Email addresses found in text content
- Private keys and credentials found in text content

Examples:
  # Ingest a single directory
  fileingest ingest /cases/evidence

  # Ingest two directories with 8 file workers each
  fileingest ingest -w 8 /cases/laptop /cases/usb-stick

  # Skip a module and write a Markdown report, with a summary on the terminal
  fileingest ingest --disable "EXIF Metadata" -m -o report.md -s /cases/evidence

  # Use a custom module order
  fileingest ingest --pipeline-config order.yaml /cases/evidence`,
		Args: cobra.ArbitraryArgs,
		RunE: runIngestCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Settings file path (default: .fileingest in current or home directory)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the case database")

	cmd.Flags().IntP("jobs", "b", config.DefaultBatchSize,
		"Number of data sources ingested concurrently")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of file pipelines per data source")
	cmd.Flags().Int64("max-file-size", 0,
		"Maximum bytes content-based modules read from one file (0: settings file or 32MB)")

	cmd.Flags().String("pipeline-config", "",
		"YAML file with the file ingest pipeline order")
	cmd.Flags().StringSlice("disable", nil,
		"Module display names that must not run (repeatable)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("summary", "s", false,
		"Also print a plain-text summary to stdout when --output is set")

	return cmd
}

// runIngestCmd executes the ingest command.
func runIngestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runIngest(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the redacting logger selected by the --log-json flag.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	asJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		asJSON, _ = cmd.Root().PersistentFlags().GetBool("log-json") //nolint:errcheck // missing flag means text logs
	}
	if asJSON {
		return filelog.NewJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return filelog.NewLogger(cmd.ErrOrStderr(), verbose)
}

// buildConfig creates a Config from cobra command flags and the settings file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	cfg.BatchSize, err = cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, err
	}
	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize, err = cmd.Flags().GetInt64("max-file-size")
	if err != nil {
		return nil, err
	}
	cfg.PipelineConfigPath, err = cmd.Flags().GetString("pipeline-config")
	if err != nil {
		return nil, err
	}
	cfg.DisabledModules, err = cmd.Flags().GetStringSlice("disable")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.ReportSummary, err = cmd.Flags().GetBool("summary")
	if err != nil {
		return nil, err
	}

	cfg.Settings, err = loadSettings(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	cfg.Roots = args
	return cfg, nil
}

// loadSettings loads the settings file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise default settings are used when no file is found.
func loadSettings(explicitPath string) (*config.Settings, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return config.NewSettings(), nil
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file %s: %w", path, err)
	}
	return settings, nil
}

// applyPipelineOrder installs the configured module order as the
// process-wide pipeline configuration. A pipeline config file wins over the
// order from the settings file.
func applyPipelineOrder(cfg *config.Config) error {
	if cfg.PipelineConfigPath != "" {
		if err := config.LoadPipelines(cfg.PipelineConfigPath); err != nil {
			return fmt.Errorf("failed to load pipeline config %s: %w", cfg.PipelineConfigPath, err)
		}
		return nil
	}
	if cfg.Settings != nil && len(cfg.Settings.FileIngestPipeline) > 0 {
		config.SetPipelines(&config.PipelinesConfiguration{
			FileIngestPipeline: cfg.Settings.FileIngestPipeline,
		})
	}
	return nil
}

// newTemplateFactory returns the factory that builds the module catalog of one job.
func newTemplateFactory(cfg *config.Config, hashes *database.CaseDB, logger *slog.Logger) ingest.TemplateFactory {
	return func(board blackboard.Blackboard) []pipeline.ModuleTemplate {
		deps := modules.Deps{Blackboard: board, Logger: logger}
		if hashes != nil {
			deps.Hashes = hashes
		}
		return modules.Catalog(cfg, deps)
	}
}

// runIngest executes the ingest over cfg.Roots.
func runIngest(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	if len(cfg.Roots) == 0 {
		return config.ErrNoDataSource
	}

	if err := applyPipelineOrder(cfg); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger.Info("starting ingest",
		"roots", cfg.Roots,
		"jobs", cfg.BatchSize,
		"workers", cfg.Workers,
		"db", db.Path(),
	)

	var progress event.Counter
	bus := event.NewBus(event.LogSubscriber(logger), progress.Handle)

	mgr := ingest.NewManager(
		newTemplateFactory(cfg, db, logger),
		ingest.WithLogger(logger),
		ingest.WithNotifier(bus),
		ingest.WithStore(db),
		ingest.WithJobConcurrency(cfg.BatchSize),
		ingest.WithWorkers(cfg.Workers),
	)

	fmt.Fprintf(stderr, "Ingesting %d data source(s)...\n", len(cfg.Roots))
	start := time.Now()

	reports, runErr := mgr.Run(ctx, cfg.Roots)

	fmt.Fprintf(stderr, "Ingest finished in %s (%d files)\n\n",
		time.Since(start).Round(time.Millisecond), progress.FilesDone())

	if err := outputReports(cfg, reports, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	failed := 0
	for _, r := range reports {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errDataSourceFailed, failed, len(cfg.Roots))
	}
	return nil
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// openReportOutput returns the report destination and a function that closes it.
func openReportOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports name files of the evidence, so only the owner may read them.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// outputReports writes every job report in the requested format.
func outputReports(cfg *config.Config, reports []*model.IngestReport, stdout io.Writer) (err error) {
	output, closeFn, err := openReportOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var w report.Writer = newReportWriter(cfg, output)
	if cfg.ReportSummary && cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}
	for _, r := range reports {
		if _, err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
