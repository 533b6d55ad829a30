package report

import (
	"io"

	"github.com/nao1215/fileingest/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report of one ingest job.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.IngestReport) (int, error)

	// WriteHistory outputs a list of stored jobs.
	WriteHistory(jobs []model.JobRecord) (int, error)
}

// MultiWriter writes every report to several Writers, for example a report
// file and a terminal summary.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.IngestReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the job list to all configured Writers.
func (m *MultiWriter) WriteHistory(jobs []model.JobRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(jobs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// severityCount returns the number of artifacts of one severity.
func severityCount(report *model.IngestReport, s model.Severity) int {
	return report.SeverityCounts[s.String()]
}

const timeLayout = "2006-01-02 15:04:05 MST"

var (
	_ Writer = (*MultiWriter)(nil)
	_ Writer = (*SimpleWriter)(nil)
	_ Writer = (*MarkdownWriter)(nil)
	_ Writer = (*JSONWriter)(nil)
)
