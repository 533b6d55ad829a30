package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/datasource"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Default concurrency limits.
const (
	DefaultJobConcurrency = 2
	DefaultWorkers        = 4
)

// Store persists case data. The case database implements it.
type Store interface {
	blackboard.Blackboard
	AddDataSource(ctx context.Context, ds *model.DataSource) error
	AddFile(ctx context.Context, f *model.File) error
	SaveJob(ctx context.Context, report *model.IngestReport) error
	SaveModuleErrors(ctx context.Context, jobID string, failures []model.ModuleFailure) error
}

// TemplateFactory builds the module templates of one job. Modules must post
// their artifacts to board so that the job report can count them.
type TemplateFactory func(board blackboard.Blackboard) []pipeline.ModuleTemplate

// Manager runs ingest jobs.
//
// Design decision: Jobs fan out with errgroup.SetLimit like batch scans do,
// while files inside a job go through a channel to a fixed set of pipeline
// workers. Module instances are never shared between workers, so modules do
// not need to be safe for concurrent use.
type Manager struct {
	store     Store
	templates TemplateFactory
	logger    *slog.Logger
	notifier  pipeline.Notifier
	ordering  pipeline.OrderingSource
	jobs      int
	workers   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNotifier sets the receiver of module and file notifications.
func WithNotifier(n pipeline.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithOrdering overrides the source of the module order.
func WithOrdering(o pipeline.OrderingSource) Option {
	return func(m *Manager) {
		m.ordering = o
	}
}

// WithStore sets the case database. Without a store, artifacts are kept in
// memory and nothing is persisted.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithJobConcurrency sets how many data sources are ingested at once.
func WithJobConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.jobs = n
		}
	}
}

// WithWorkers sets the number of file pipelines per job.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// NewManager creates a Manager that builds modules with templates.
func NewManager(templates TemplateFactory, opts ...Option) *Manager {
	m := &Manager{
		templates: templates,
		jobs:      DefaultJobConcurrency,
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Run ingests every root directory and returns the reports in root order.
//
// A root that cannot be used yields a report with Error set. Roots not yet
// started when ctx is done are skipped and the context error is returned.
func (m *Manager) Run(ctx context.Context, roots []string) ([]*model.IngestReport, error) {
	reports := make([]*model.IngestReport, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.jobs)

	for i, root := range roots {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			src, err := datasource.NewLocalDirectory(root, datasource.WithLogger(m.logger))
			if err != nil {
				m.logger.Warn("cannot ingest data source", "root", root, "error", err)
				r := model.NewIngestReport("", model.NewDataSource(root))
				r.Error = err.Error()
				r.FinishedAt = time.Now()
				reports[i] = r
				return nil
			}
			reports[i] = m.RunJob(ctx, src)
			return nil
		})
	}

	err := g.Wait()

	out := make([]*model.IngestReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, err
}

// RunJob ingests one data source. Cancelling ctx cancels the job: no
// further files are handed out, files in flight stop before their next
// module, and modules are shut down with cancelled set.
func (m *Manager) RunJob(ctx context.Context, src *datasource.LocalDirectory) *model.IngestReport {
	ds := src.DataSource()
	job := pipeline.NewIngestJob(ctx, ds)
	defer job.Release()

	run := newJobRun(m, job)
	logger := m.logger.With("job", job.ID(), "data_source", ds.Name)
	logger.Info("ingest job started", "root", ds.RootPath)

	persist := context.WithoutCancel(ctx)
	if m.store != nil {
		if err := m.store.AddDataSource(persist, ds); err != nil {
			run.report.Error = err.Error()
			run.report.FinishedAt = time.Now()
			logger.Error("failed to add data source", "error", err)
			return run.report
		}
	}

	run.startUp()
	run.enumerate(src)
	run.shutDown()

	m.save(persist, run.report, logger)
	logger.Info("ingest job finished",
		"status", run.report.Status(),
		"files", run.report.FilesProcessed,
		"artifacts", run.report.TotalArtifacts(),
		"failures", len(run.report.Failures),
		"elapsed", run.report.Duration(),
	)
	return run.report
}

// save stores the job report and its module failures.
func (m *Manager) save(ctx context.Context, report *model.IngestReport, logger *slog.Logger) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveJob(ctx, report); err != nil {
		logger.Error("failed to save job", "error", err)
	}
	if err := m.store.SaveModuleErrors(ctx, report.JobID, report.Failures); err != nil {
		logger.Error("failed to save module errors", "error", err)
	}
}

// jobRun holds the state of one running job.
type jobRun struct {
	m         *Manager
	job       *pipeline.IngestJob
	board     blackboard.Blackboard
	pipelines []*pipeline.FilePipeline

	mu     sync.Mutex
	report *model.IngestReport

	nextFileID atomic.Int64
}

func newJobRun(m *Manager, job *pipeline.IngestJob) *jobRun {
	r := &jobRun{
		m:      m,
		job:    job,
		report: model.NewIngestReport(job.ID(), job.DataSource()),
	}

	var base blackboard.Blackboard = blackboard.NewMemory()
	if m.store != nil {
		base = m.store
	}
	r.board = blackboard.NewRecorder(base, func(a *model.Artifact) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.report.CountArtifact(a)
	})

	var templates []pipeline.ModuleTemplate
	if m.templates != nil {
		templates = m.templates(r.board)
	}
	opts := []pipeline.Option{pipeline.WithLogger(m.logger)}
	if m.notifier != nil {
		opts = append(opts, pipeline.WithNotifier(m.notifier))
	}
	if m.ordering != nil {
		opts = append(opts, pipeline.WithOrdering(m.ordering))
	}
	for range m.workers {
		r.pipelines = append(r.pipelines, pipeline.New(job, templates, opts...))
	}
	return r
}

// startUp starts every pipeline. Start-up errors are recorded but do not
// fail the job. Every worker starts the same templates, so a module that
// fails is recorded once per job.
func (r *jobRun) startUp() {
	failed := make(map[string]bool)
	for _, p := range r.pipelines {
		var errs []pipeline.ModuleError
		for _, e := range p.StartUp() {
			if failed[e.Module] {
				continue
			}
			failed[e.Module] = true
			errs = append(errs, e)
		}
		r.record(errs, nil)
	}
	r.report.Modules = r.pipelines[0].ModuleNames()
}

// enumerate walks the data source and feeds the pipeline workers.
func (r *jobRun) enumerate(src *datasource.LocalDirectory) {
	ctx := r.job.Context()
	files := make(chan *model.File, len(r.pipelines))

	var g errgroup.Group
	for _, p := range r.pipelines {
		g.Go(func() error {
			r.work(p, files)
			return nil
		})
	}

	walkErr := src.Walk(ctx, func(f *model.File) error {
		if r.job.IsCancelled() {
			return context.Canceled
		}
		if err := r.addFile(ctx, f); err != nil {
			return err
		}
		select {
		case files <- f:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(files)
	_ = g.Wait()

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !r.job.IsCancelled() {
		r.report.Error = walkErr.Error()
	}
}

// addFile registers the file in the case database, or numbers it locally
// without a store.
func (r *jobRun) addFile(ctx context.Context, f *model.File) error {
	if r.m.store == nil {
		f.ID = r.nextFileID.Add(1)
		return nil
	}
	return r.m.store.AddFile(ctx, f)
}

// work runs files through one pipeline until the channel is closed.
// Files received after cancellation are released without processing.
func (r *jobRun) work(p *pipeline.FilePipeline, files <-chan *model.File) {
	for f := range files {
		if r.job.IsCancelled() {
			_ = f.Close()
			continue
		}
		errs := p.Process(f)

		r.mu.Lock()
		r.report.FilesProcessed++
		r.mu.Unlock()
		r.record(errs, f)
	}
}

// shutDown shuts every pipeline down with the job's cancellation state.
func (r *jobRun) shutDown() {
	cancelled := r.job.IsCancelled()
	for _, p := range r.pipelines {
		r.record(p.ShutDown(cancelled), nil)
	}
	r.report.Cancelled = cancelled
	r.report.FinishedAt = time.Now()
}

// record adds module errors to the report.
func (r *jobRun) record(errs []pipeline.ModuleError, f *model.File) {
	if len(errs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range errs {
		r.report.AddFailure(toFailure(e, f))
	}
}

// toFailure converts a module error into its stored form.
func toFailure(e pipeline.ModuleError, f *model.File) model.ModuleFailure {
	failure := model.ModuleFailure{
		Module: e.Module,
		Phase:  string(e.Phase),
		FileID: e.FileID,
	}
	if e.Err != nil {
		failure.Message = e.Err.Error()
	}
	if f != nil {
		failure.FilePath = f.UniquePath()
	}
	return failure
}
