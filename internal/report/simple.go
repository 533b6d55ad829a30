package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/fileingest/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so that output can be piped to files or other tools unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to report are shown.
	showEmpty bool

	// verbose enables artifact type descriptions in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the job report in human-readable format.
func (w *SimpleWriter) Write(report *model.IngestReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeArtifacts(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs the stored jobs as an aligned table.
func (w *SimpleWriter) WriteHistory(jobs []model.JobRecord) (int, error) {
	var sb strings.Builder
	if len(jobs) == 0 {
		sb.WriteString("No ingest jobs recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-36s  %-20s  %-22s  %7s  %9s\n", "JOB", "DATA SOURCE", "STATUS", "FILES", "ARTIFACTS")
	for _, j := range jobs {
		fmt.Fprintf(&sb, "%-36s  %-20s  %-22s  %7d  %9d\n",
			j.JobID, truncateString(j.DataSource, 20), j.Status, j.FilesProcessed, j.ArtifactCount)
	}
	return w.output.Write([]byte(sb.String()))
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

// writeHeader writes the report header with job information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.IngestReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                        FILE INGEST REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Job:            %s\n", report.JobID)
	fmt.Fprintf(sb, "Data Source:    %s (%s)\n", report.DataSource, report.RootPath)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Files:          %d\n", report.FilesProcessed)

	switch {
	case report.Error != "":
		fmt.Fprintf(sb, "Status:         FAILED - %s\n", report.Error)
	case report.Cancelled:
		sb.WriteString("Status:         CANCELLED (partial results)\n")
	default:
		fmt.Fprintf(sb, "Status:         %s\n", strings.ToUpper(report.Status()))
	}

	if len(report.Modules) > 0 {
		fmt.Fprintf(sb, "Modules:        %s\n", strings.Join(report.Modules, ", "))
	}
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.IngestReport) {
	rule(sb, "-")
	sb.WriteString("SEVERITY SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, s := range model.AllSeverities() {
		fmt.Fprintf(sb, "  %-9s %d\n", s.String()+":", severityCount(report, s))
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d artifacts\n\n", report.TotalArtifacts())
}

// writeArtifacts writes the artifact counts per type.
func (w *SimpleWriter) writeArtifacts(sb *strings.Builder, report *model.IngestReport) {
	types := report.ArtifactTypes()
	if len(types) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-")
	sb.WriteString("ARTIFACTS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if len(types) == 0 {
		sb.WriteString("  No artifacts posted\n\n")
		return
	}
	for _, t := range types {
		info := model.GetArtifactInfo(t)
		fmt.Fprintf(sb, "  [+] %-22s %d\n", info.Title, report.ArtifactCounts[t])
		if w.verbose {
			fmt.Fprintf(sb, "      %s\n", info.Description)
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes module failures grouped by lifecycle phase.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.IngestReport) {
	if !report.HasFailures() && !w.showEmpty {
		return
	}

	rule(sb, "-")
	sb.WriteString("MODULE ERRORS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if !report.HasFailures() {
		sb.WriteString("  No module errors\n\n")
		return
	}
	for _, phase := range []string{"startup", "process", "shutdown"} {
		failures := report.FailuresByPhase(phase)
		if len(failures) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[%s]\n", strings.ToUpper(phase))
		for _, f := range failures {
			fmt.Fprintf(sb, "  * %s: %s\n", f.Module, f.Message)
			if f.FilePath != "" {
				fmt.Fprintf(sb, "    File: %s\n", f.FilePath)
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by fileingest\n")
	rule(sb, "=")
}
