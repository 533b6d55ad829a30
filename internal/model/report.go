package model

import (
	"sort"
	"time"
)

// ModuleFailure is the serializable form of a module error recorded during a job.
type ModuleFailure struct {
	// Module is the display name of the failing module.
	Module string `json:"module"`

	// Phase is the lifecycle phase that failed ("startup", "process", "shutdown").
	Phase string `json:"phase"`

	// FileID is the file being processed. Zero for start-up and shut-down failures.
	FileID int64 `json:"file_id,omitempty"`

	// FilePath is the path of the file inside the data source, when known.
	FilePath string `json:"file_path,omitempty"`

	// Message is the error text.
	Message string `json:"message"`
}

// IngestReport is the summary of one ingest job over a data source.
//
// Design decision: We keep a single flat struct that is stored as JSON in the
// case database, so that history output does not depend on the artifact
// tables still containing the rows of old jobs.
type IngestReport struct {
	// JobID is the unique identifier of the job.
	JobID string `json:"job_id"`

	// DataSource is the data source name.
	DataSource string `json:"data_source"`

	// RootPath is the directory that was enumerated.
	RootPath string `json:"root_path"`

	// StartedAt is when the job started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the job finished, including module shutdown.
	FinishedAt time.Time `json:"finished_at"`

	// FilesProcessed counts files that entered the pipeline.
	FilesProcessed int `json:"files_processed"`

	// Cancelled is true if the job was cancelled before all files were processed.
	Cancelled bool `json:"cancelled"`

	// Modules lists the module display names in pipeline order.
	Modules []string `json:"modules"`

	// Failures holds every module failure of the job.
	Failures []ModuleFailure `json:"failures,omitempty"`

	// ArtifactCounts counts posted artifacts by type.
	ArtifactCounts map[ArtifactType]int `json:"artifact_counts"`

	// SeverityCounts counts posted artifacts by severity name.
	SeverityCounts map[string]int `json:"severity_counts"`

	// Error is a job-level error such as an enumeration failure.
	Error string `json:"error,omitempty"`
}

// NewIngestReport creates an empty report for a job over the given data source.
func NewIngestReport(jobID string, ds *DataSource) *IngestReport {
	r := &IngestReport{
		JobID:          jobID,
		StartedAt:      time.Now(),
		Modules:        make([]string, 0),
		ArtifactCounts: make(map[ArtifactType]int),
		SeverityCounts: make(map[string]int),
	}
	if ds != nil {
		r.DataSource = ds.Name
		r.RootPath = ds.RootPath
	}
	return r
}

// AddFailure records a module failure.
func (r *IngestReport) AddFailure(f ModuleFailure) {
	r.Failures = append(r.Failures, f)
}

// CountArtifact records a posted artifact in the type and severity counters.
func (r *IngestReport) CountArtifact(a *Artifact) {
	if r.ArtifactCounts == nil {
		r.ArtifactCounts = make(map[ArtifactType]int)
	}
	if r.SeverityCounts == nil {
		r.SeverityCounts = make(map[string]int)
	}
	r.ArtifactCounts[a.Type]++
	r.SeverityCounts[a.Severity.String()]++
}

// TotalArtifacts returns the number of artifacts posted during the job.
func (r *IngestReport) TotalArtifacts() int {
	total := 0
	for _, n := range r.ArtifactCounts {
		total += n
	}
	return total
}

// HasFailures reports whether any module failed during the job.
func (r *IngestReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// FailuresByPhase returns the failures recorded for one lifecycle phase.
func (r *IngestReport) FailuresByPhase(phase string) []ModuleFailure {
	var out []ModuleFailure
	for _, f := range r.Failures {
		if f.Phase == phase {
			out = append(out, f)
		}
	}
	return out
}

// ArtifactTypes returns the artifact types with at least one artifact,
// sorted by name for stable output.
func (r *IngestReport) ArtifactTypes() []ArtifactType {
	types := make([]ArtifactType, 0, len(r.ArtifactCounts))
	for t, n := range r.ArtifactCounts {
		if n > 0 {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Duration returns the wall-clock duration of the job.
func (r *IngestReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status returns a one-word status for display.
func (r *IngestReport) Status() string {
	switch {
	case r.Error != "":
		return "failed"
	case r.Cancelled:
		return "cancelled"
	case r.HasFailures():
		return "completed with errors"
	default:
		return "completed"
	}
}

// JobRecord contains summary information about a stored job.
// It is used for listing job history without loading the full report.
type JobRecord struct {
	JobID          string    `json:"job_id"`
	DataSource     string    `json:"data_source"`
	RootPath       string    `json:"root_path"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Status         string    `json:"status"`
	FilesProcessed int       `json:"files_processed"`
	ArtifactCount  int       `json:"artifact_count"`
}
