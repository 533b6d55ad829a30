package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nao1215/fileingest/internal/model"
)

// Job is the ingest job a pipeline works for.
// The pipeline only reads from it; it does not own the job.
type Job interface {
	// ID returns the unique job identifier.
	ID() string

	// DataSource returns the data source being ingested.
	DataSource() *model.DataSource

	// IsCancelled reports whether the job was cancelled.
	IsCancelled() bool

	// Context returns the context bound to the job's lifetime.
	Context() context.Context
}

// IngestJob is the Job implementation used by the ingest manager.
//
// The job counts as cancelled once Cancel is called or the parent context
// passed to NewIngestJob is done. Pipelines check it between module
// invocations.
type IngestJob struct {
	id         string
	dataSource *model.DataSource
	parent     context.Context
	ctx        context.Context
	cancel     context.CancelFunc
	cancelled  atomic.Bool
}

// NewIngestJob creates a job over ds bound to parent.
// Call Release when the job is finished.
func NewIngestJob(parent context.Context, ds *model.DataSource) *IngestJob {
	ctx, cancel := context.WithCancel(parent)
	return &IngestJob{
		id:         uuid.NewString(),
		dataSource: ds,
		parent:     parent,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ID implements Job.
func (j *IngestJob) ID() string {
	return j.id
}

// DataSource implements Job.
func (j *IngestJob) DataSource() *model.DataSource {
	return j.dataSource
}

// IsCancelled implements Job.
func (j *IngestJob) IsCancelled() bool {
	return j.cancelled.Load() || j.parent.Err() != nil
}

// Context implements Job.
func (j *IngestJob) Context() context.Context {
	return j.ctx
}

// Cancel sets the cancellation flag and cancels the job context.
func (j *IngestJob) Cancel() {
	j.cancelled.Store(true)
	j.cancel()
}

// Release frees the resources of the job context without marking the job
// as cancelled.
func (j *IngestJob) Release() {
	j.cancel()
}

// JobContext is handed to a module at start-up.
// It gives the module read access to the job it works for.
type JobContext struct {
	job    Job
	module string
}

// NewJobContext creates a job context for the named module.
func NewJobContext(job Job, module string) *JobContext {
	return &JobContext{job: job, module: module}
}

// JobID returns the identifier of the job.
func (jc *JobContext) JobID() string {
	if jc.job == nil {
		return ""
	}
	return jc.job.ID()
}

// DataSource returns the data source being ingested.
func (jc *JobContext) DataSource() *model.DataSource {
	if jc.job == nil {
		return nil
	}
	return jc.job.DataSource()
}

// IsJobCancelled reports whether the job was cancelled.
func (jc *JobContext) IsJobCancelled() bool {
	return jc.job != nil && jc.job.IsCancelled()
}

// Context returns the job context, or context.Background without a job.
func (jc *JobContext) Context() context.Context {
	if jc.job == nil || jc.job.Context() == nil {
		return context.Background()
	}
	return jc.job.Context()
}

// ModuleName returns the display name of the module the context was made for.
func (jc *JobContext) ModuleName() string {
	return jc.module
}
