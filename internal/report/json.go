package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/fileingest/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version wraps reports with the tool version when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps every job report in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is a job report with output metadata.
//
// Design decision: We wrap the report rather than adding fields to
// IngestReport so that the stored form stays independent of the tool
// version that printed it.
type JSONReport struct {
	// Version is the fileingest version that generated this output.
	Version string `json:"version"`

	// Status is the one-word job status.
	Status string `json:"status"`

	// Report is the job report.
	Report *model.IngestReport `json:"report"`
}

// Write outputs the job report in JSON format.
func (w *JSONWriter) Write(report *model.IngestReport) (int, error) {
	if w.version == "" {
		return w.writeJSON(report)
	}
	return w.writeJSON(&JSONReport{Version: w.version, Status: report.Status(), Report: report})
}

// WriteHistory outputs the stored jobs as a JSON array.
func (w *JSONWriter) WriteHistory(jobs []model.JobRecord) (int, error) {
	if jobs == nil {
		jobs = []model.JobRecord{}
	}
	return w.writeJSON(jobs)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
