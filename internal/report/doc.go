// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Markdown output with a severity chart for sharing
//   - JSONWriter: Structured JSON output for tool integration
//
// Design decision: We separate report writing from report data structures
// (which are in the model package). Adding an output format never touches
// the ingest code.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
