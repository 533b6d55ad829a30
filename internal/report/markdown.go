package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/fileingest/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-written escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the job report in Markdown format.
func (w *MarkdownWriter) Write(report *model.IngestReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeArtifacts(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the stored jobs as a Markdown table.
func (w *MarkdownWriter) WriteHistory(jobs []model.JobRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Ingest History")
	md.PlainText("")

	if len(jobs) == 0 {
		md.PlainText("No ingest jobs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = []string{
			"`" + j.JobID + "`",
			j.DataSource,
			j.StartedAt.Format(timeLayout),
			j.Status,
			strconv.Itoa(j.FilesProcessed),
			strconv.Itoa(j.ArtifactCount),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Job", "Data Source", "Started", "Status", "Files", "Artifacts"},
		Rows:   rows,
	})
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with job information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.IngestReport) {
	md.H1("File Ingest Report")
	md.PlainText("")

	modules := "-"
	if len(report.Modules) > 0 {
		modules = strings.Join(report.Modules, ", ")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Job", "`" + report.JobID + "`"},
			{"Data Source", report.DataSource},
			{"Root Path", "`" + report.RootPath + "`"},
			{"Started", report.StartedAt.Format(timeLayout)},
			{"Files Processed", strconv.Itoa(report.FilesProcessed)},
			{"Modules", modules},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.IngestReport) string {
	switch {
	case report.Error != "":
		return "❌ Failed - " + report.Error
	case report.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case report.HasFailures():
		return "⚠️ Completed with module errors"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.IngestReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	labels := map[model.Severity]string{
		model.SeverityCritical: "🔴 Critical",
		model.SeverityHigh:     "🟠 High",
		model.SeverityMedium:   "🟡 Medium",
		model.SeverityLow:      "🔵 Low",
		model.SeverityInfo:     "⚪ Info",
	}
	rows := make([][]string, 0, 6)
	for _, s := range model.AllSeverities() {
		rows = append(rows, []string{labels[s], strconv.Itoa(severityCount(report, s))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.TotalArtifacts()) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Severity", "Count"}, Rows: rows})
	md.PlainText("")

	if report.TotalArtifacts() > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.IngestReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Artifact Severity Distribution"),
		piechart.WithShowData(true),
	)

	for _, s := range model.AllSeverities() {
		if n := severityCount(report, s); n > 0 {
			label := s.String()
			chart.LabelAndIntValue(label[:1]+strings.ToLower(label[1:]), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.IngestReport) {
	critical := severityCount(report, model.SeverityCritical)
	high := severityCount(report, model.SeverityHigh)
	medium := severityCount(report, model.SeverityMedium)

	switch {
	case critical > 0:
		md.Cautionf("%d critical artifact(s) found. Review them first.", critical)
	case high > 0:
		md.Warningf("%d high severity artifact(s) found.", high)
	case medium > 0:
		md.Importantf("%d medium severity artifact(s) found.", medium)
	case report.TotalArtifacts() > 0:
		md.Note("Only low severity and informational artifacts found.")
	default:
		md.Tip("No artifacts were posted for this data source.")
	}
	md.PlainText("")
}

// writeArtifacts writes the artifact counts per type.
func (w *MarkdownWriter) writeArtifacts(md *markdown.Markdown, report *model.IngestReport) {
	md.H2("Artifacts")
	md.PlainText("")

	types := report.ArtifactTypes()
	if len(types) == 0 {
		md.PlainText("No artifacts posted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(types))
	for i, t := range types {
		info := model.GetArtifactInfo(t)
		rows[i] = []string{info.Title, "`" + string(t) + "`", strconv.Itoa(report.ArtifactCounts[t])}
	}
	md.Table(markdown.TableSet{Header: []string{"Type", "Identifier", "Count"}, Rows: rows})
	md.PlainText("")

	for _, t := range types {
		info := model.GetArtifactInfo(t)
		md.Details(info.Title, info.Description)
	}
	md.PlainText("")
}

// writeFailures writes the module errors table.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.IngestReport) {
	if !report.HasFailures() {
		return
	}

	md.H2("Module Errors")
	md.PlainText("")

	rows := make([][]string, len(report.Failures))
	for i, f := range report.Failures {
		file := f.FilePath
		if file == "" {
			file = "-"
		}
		rows[i] = []string{f.Module, f.Phase, truncateString(file, 40), truncateString(f.Message, 60)}
	}
	md.Table(markdown.TableSet{Header: []string{"Module", "Phase", "File", "Error"}, Rows: rows})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by fileingest*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
