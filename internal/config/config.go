package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBatchSize is the number of data sources ingested at the same time.
	// Each job already runs several file workers, so a small value keeps disk
	// contention reasonable.
	DefaultBatchSize = 2

	// DefaultWorkers is the number of file pipelines per job.
	// Every worker owns its own module instances.
	DefaultWorkers = 4

	// DefaultMaxFileSize limits how many bytes content-based modules read from
	// a single file. Hashing always covers the whole file.
	DefaultMaxFileSize = 32 * 1024 * 1024 // 32MB

	// AppName is the application name used for XDG directory paths.
	AppName = "fileingest"
)

// Config holds all run options for fileingest.
// This struct is populated from CLI flags and passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct, as the number of options is
// small. Module settings live in the separate Settings file structure because
// they come from the .fileingest file rather than from flags.
type Config struct {
	// Roots is the list of directories to ingest, one data source each.
	Roots []string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// BatchSize is the number of data sources ingested concurrently.
	BatchSize int

	// Workers is the number of file pipelines per data source.
	Workers int

	// MaxFileSize is the maximum number of bytes content-based modules read
	// from one file. Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// ConfigFilePath is the path to the settings file.
	// If empty, the tool searches for .fileingest in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Settings holds the module settings loaded from the settings file.
	Settings *Settings

	// PipelineConfigPath is an optional YAML file with the module order.
	// When empty, the order from the settings file or the built-in default is used.
	PipelineConfigPath string

	// DisabledModules lists module display names that must not run.
	DisabledModules []string

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ReportSummary also prints the plain-text report to stdout when the
	// report goes to ReportFile.
	ReportSummary bool

	// DBDir is the directory holding the case database.
	// Defaults to XDG data directory (~/.local/share/fileingest on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero.
func NewConfig() *Config {
	return &Config{
		BatchSize:   DefaultBatchSize,
		Workers:     DefaultWorkers,
		MaxFileSize: DefaultMaxFileSize,
		DBDir:       XDGDataDir(),
		Settings:    NewSettings(),
	}
}

// XDGDataDir returns the XDG data directory for fileingest.
// On Linux: ~/.local/share/fileingest
// On macOS: ~/Library/Application Support/fileingest
// On Windows: %LOCALAPPDATA%\fileingest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fileingest.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// EffectiveMaxFileSize returns MaxFileSize, then the settings file value,
// then the default.
func (c *Config) EffectiveMaxFileSize() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	if c.Settings != nil && c.Settings.MaxFileSize > 0 {
		return c.Settings.MaxFileSize
	}
	return DefaultMaxFileSize
}

// IsDisabled reports whether the module with the given display name is
// disabled by flag or by the settings file.
func (c *Config) IsDisabled(displayName string) bool {
	for _, name := range c.DisabledModules {
		if name == displayName {
			return true
		}
	}
	if c.Settings != nil {
		for _, name := range c.Settings.Disabled {
			if name == displayName {
				return true
			}
		}
	}
	return false
}

// Validate checks if the configuration is valid.
// It returns the first error found.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return ErrNoDataSource
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}

	return nil
}
