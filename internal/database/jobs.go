package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/fileingest/internal/model"
)

// SaveJob stores the report of a job. Saving a job again replaces the
// stored report.
func (cdb *CaseDB) SaveJob(ctx context.Context, report *model.IngestReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	_, err = cdb.db.ExecContext(ctx, `
	INSERT INTO jobs (job_id, data_source, root_path, started_at, finished_at, status,
		files_processed, artifact_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(job_id) DO UPDATE SET
		finished_at = excluded.finished_at,
		status = excluded.status,
		files_processed = excluded.files_processed,
		artifact_count = excluded.artifact_count,
		report_json = excluded.report_json
	`,
		report.JobID,
		report.DataSource,
		report.RootPath,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Status(),
		report.FilesProcessed,
		report.TotalArtifacts(),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", report.JobID, err)
	}
	return nil
}

// GetJobReport retrieves the report of a job.
// It returns nil if the job does not exist.
func (cdb *CaseDB) GetJobReport(ctx context.Context, jobID string) (*model.IngestReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM jobs WHERE job_id = ?`, jobID,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job report: %w", err)
	}

	var report model.IngestReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ListJobs returns the stored jobs, most recent first.
func (cdb *CaseDB) ListJobs(ctx context.Context) ([]model.JobRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT job_id, data_source, root_path, started_at, finished_at, status,
		files_processed, artifact_count
	FROM jobs
	ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var records []model.JobRecord
	for rows.Next() {
		var r model.JobRecord
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&r.JobID, &r.DataSource, &r.RootPath, &startedAt, &finishedAt,
			&r.Status, &r.FilesProcessed, &r.ArtifactCount); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		r.FinishedAt = parseTimestamp(finishedAt.String)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveModuleErrors stores the module failures of a job in one transaction.
func (cdb *CaseDB) SaveModuleErrors(ctx context.Context, jobID string, failures []model.ModuleFailure) (err error) {
	if len(failures) == 0 {
		return nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, f := range failures {
		var fileID sql.NullInt64
		if f.FileID != 0 {
			fileID = sql.NullInt64{Int64: f.FileID, Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO ingest_errors (job_id, module, phase, file_id, file_path, message)
		VALUES (?, ?, ?, ?, ?, ?)
		`, jobID, f.Module, f.Phase, fileID, f.FilePath, f.Message); err != nil {
			return fmt.Errorf("failed to insert module error: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit module errors: %w", err)
	}
	return nil
}

// ModuleErrors returns the module failures recorded for a job, in insertion order.
func (cdb *CaseDB) ModuleErrors(ctx context.Context, jobID string) ([]model.ModuleFailure, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT module, phase, file_id, file_path, message
	FROM ingest_errors
	WHERE job_id = ?
	ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query module errors: %w", err)
	}
	defer rows.Close()

	var failures []model.ModuleFailure
	for rows.Next() {
		var f model.ModuleFailure
		var fileID sql.NullInt64
		var filePath sql.NullString
		if err := rows.Scan(&f.Module, &f.Phase, &fileID, &filePath, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan module error: %w", err)
		}
		f.FileID = fileID.Int64
		f.FilePath = filePath.String
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// formatTimestamp formats t for storage. The zero time is stored as an
// empty string.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
