package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the loaders, and allow
// callers to use errors.Is() for programmatic error handling.
var (
	// ErrNoDataSource is returned when no directory to ingest is specified.
	ErrNoDataSource = errors.New("no data source specified: provide at least one directory")

	// ErrInvalidBatchSize is returned when the number of concurrent jobs is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidWorkers is returned when the number of file workers is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxFileSize is returned when the max file size is negative.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be non-negative")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidSettings is returned when the settings file does not match its schema.
	ErrInvalidSettings = errors.New("invalid settings file")

	// ErrInvalidPipelineConfig is returned when a pipeline configuration cannot be parsed.
	ErrInvalidPipelineConfig = errors.New("invalid pipeline configuration")
)
