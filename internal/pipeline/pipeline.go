package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/fileingest/internal/config"
	"github.com/nao1215/fileingest/internal/model"
)

// OrderingSource provides the configured module order as a list of class
// identifiers.
type OrderingSource interface {
	FileIngestPipelineOrder() []string
}

// OrderingFunc adapts a function to OrderingSource.
type OrderingFunc func() []string

// FileIngestPipelineOrder implements OrderingSource.
func (f OrderingFunc) FileIngestPipelineOrder() []string {
	return f()
}

// defaultOrdering reads the process-wide pipeline configuration at start-up.
var defaultOrdering = OrderingFunc(func() []string {
	return config.Pipelines().FileIngestPipelineOrder()
})

// FilePipeline runs files through an ordered chain of file modules.
type FilePipeline struct {
	// job is the job the pipeline works for.
	job Job

	// templates are the module factories, in catalog order.
	templates []ModuleTemplate

	// modules is the ordered sequence of started modules.
	// It is fixed once StartUp returns.
	modules []*moduleDecorator

	// started is set by the first StartUp call.
	started bool

	ordering OrderingSource
	notifier Notifier
	logger   *slog.Logger
}

// Option is a function that configures a FilePipeline.
type Option func(*FilePipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *FilePipeline) {
		p.logger = logger
	}
}

// WithNotifier sets the receiver of module and file notifications.
func WithNotifier(n Notifier) Option {
	return func(p *FilePipeline) {
		p.notifier = n
	}
}

// WithOrdering replaces the process-wide pipeline configuration as the
// source of the module order.
func WithOrdering(o OrderingSource) Option {
	return func(p *FilePipeline) {
		p.ordering = o
	}
}

// New creates a pipeline for job from the given templates.
// No module is created until StartUp is called.
func New(job Job, templates []ModuleTemplate, opts ...Option) *FilePipeline {
	p := &FilePipeline{
		job:       job,
		templates: templates,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.notifier == nil {
		p.notifier = nopNotifier{}
	}
	if p.ordering == nil {
		p.ordering = defaultOrdering
	}

	return p
}

// StartUp creates and starts one module per template and fixes the module
// order.
//
// ModuleStarted fires as each module starts, in template order. A module that
// fails to start is recorded as one ModuleError and left out of the pipeline. Started modules are ordered by the configured class
// identifiers first; modules whose class is not configured follow in template
// order. Calling StartUp again has no effect.
func (p *FilePipeline) StartUp() []ModuleError {
	if p.started {
		return nil
	}
	p.started = true

	var errs []ModuleError
	lookup := make(map[string]*moduleDecorator, len(p.templates))
	keys := make([]string, 0, len(p.templates))

	for _, tmpl := range p.templates {
		if tmpl == nil || !tmpl.CanProduceFileModule() {
			continue
		}

		name := tmpl.DisplayName()
		d, err := p.startModule(tmpl, name)
		if err != nil {
			p.logger.Warn("module failed to start",
				"module", name,
				"job", p.jobID(),
				"error", err,
			)
			errs = append(errs, ModuleError{Module: name, Phase: PhaseStartUp, Err: err})
			continue
		}

		p.logger.Debug("module started",
			"module", name,
			"class", d.className,
			"job", p.jobID(),
		)
		p.notifier.FireModuleEvent(ModuleStarted, name)

		key := d.className
		for n := 2; ; n++ {
			if _, dup := lookup[key]; !dup {
				break
			}
			key = fmt.Sprintf("%s#%d", d.className, n)
		}
		lookup[key] = d
		keys = append(keys, key)
	}

	modules := make([]*moduleDecorator, 0, len(lookup))
	for _, class := range p.ordering.FileIngestPipelineOrder() {
		if d, ok := lookup[class]; ok {
			modules = append(modules, d)
			delete(lookup, class)
		}
	}
	for _, key := range keys {
		if d, ok := lookup[key]; ok {
			modules = append(modules, d)
			delete(lookup, key)
		}
	}
	p.modules = modules

	return errs
}

// startModule creates a module from tmpl and starts it.
func (p *FilePipeline) startModule(tmpl ModuleTemplate, name string) (d *moduleDecorator, err error) {
	defer recoverPanic(&err)

	m := tmpl.CreateFileModule()
	if m == nil {
		return nil, ErrNilModule
	}
	d = newModuleDecorator(m, name)
	if err := d.startUp(NewJobContext(p.job, name)); err != nil {
		return nil, err
	}
	return d, nil
}

// Process runs file through every started module in order.
//
// The job's cancellation flag is checked before every module after the first;
// once it is set the remaining modules are skipped for this file. A module
// failure is recorded and the next module still runs. The file is always
// closed and reported as done before Process returns. Only the failures for
// this file are returned.
func (p *FilePipeline) Process(file *model.File) []ModuleError {
	var errs []ModuleError
	ctx := p.context()

	for i, d := range p.modules {
		if i > 0 && p.job != nil && p.job.IsCancelled() {
			p.logger.Debug("job cancelled, skipping remaining modules",
				"file", file.UniquePath(),
				"skipped", len(p.modules)-i,
			)
			break
		}

		if err := d.process(ctx, file); err != nil {
			p.logger.Warn("module failed to process file",
				"module", d.displayName,
				"file", file.UniquePath(),
				"error", err,
			)
			errs = append(errs, ModuleError{
				Module: d.displayName,
				Phase:  PhaseProcess,
				FileID: file.ID,
				Err:    err,
			})
		}
	}

	if err := file.Close(); err != nil {
		p.logger.Warn("failed to close file",
			"file", file.UniquePath(),
			"error", err,
		)
	}
	p.notifier.FireFileDone(file.ID)

	return errs
}

// ShutDown shuts every started module down, in pipeline order.
// Every module is shut down even if an earlier one fails, and ModuleCompleted
// is fired for each of them.
func (p *FilePipeline) ShutDown(cancelled bool) []ModuleError {
	var errs []ModuleError

	for _, d := range p.modules {
		if err := p.shutDownModule(d, cancelled); err != nil {
			p.logger.Warn("module failed to shut down",
				"module", d.displayName,
				"job", p.jobID(),
				"error", err,
			)
			errs = append(errs, ModuleError{Module: d.displayName, Phase: PhaseShutDown, Err: err})
		}
	}

	return errs
}

func (p *FilePipeline) shutDownModule(d *moduleDecorator, cancelled bool) error {
	defer p.notifier.FireModuleEvent(ModuleCompleted, d.displayName)
	return d.shutDown(cancelled)
}

// ModuleNames returns the display names of the started modules in order.
func (p *FilePipeline) ModuleNames() []string {
	names := make([]string, len(p.modules))
	for i, d := range p.modules {
		names[i] = d.displayName
	}
	return names
}

// ModuleClassNames returns the class identifiers of the started modules in order.
func (p *FilePipeline) ModuleClassNames() []string {
	names := make([]string, len(p.modules))
	for i, d := range p.modules {
		names[i] = d.className
	}
	return names
}

// ModuleCount returns the number of started modules.
func (p *FilePipeline) ModuleCount() int {
	return len(p.modules)
}

func (p *FilePipeline) jobID() string {
	if p.job == nil {
		return ""
	}
	return p.job.ID()
}

func (p *FilePipeline) context() context.Context {
	if p.job == nil || p.job.Context() == nil {
		return context.Background()
	}
	return p.job.Context()
}
