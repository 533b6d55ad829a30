package model

import "strings"

// Severity represents how significant an artifact is for the examiner.
// It allows sorting and filtering artifacts by their investigative weight.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates artifacts recorded for completeness.
	// Examples: file timestamps taken from image metadata.
	SeverityInfo Severity = iota

	// SeverityLow indicates artifacts that rarely matter on their own.
	// Examples: editing software names in EXIF data.
	SeverityLow

	// SeverityMedium indicates artifacts that usually deserve a look.
	// Examples: search queries, email addresses at free providers, camera models.
	SeverityMedium

	// SeverityHigh indicates artifacts that directly tie content to a person or
	// a device. Examples: known-bad hash matches, device serial numbers.
	SeverityHigh

	// SeverityCritical indicates artifacts that are significant on sight.
	// Examples: unencrypted private keys, GPS coordinates.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a severity name back into a Severity.
// Matching is case-insensitive; unknown names yield SeverityInfo and false.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INFO":
		return SeverityInfo, true
	case "LOW":
		return SeverityLow, true
	case "MEDIUM":
		return SeverityMedium, true
	case "HIGH":
		return SeverityHigh, true
	case "CRITICAL":
		return SeverityCritical, true
	default:
		return SeverityInfo, false
	}
}

// AllSeverities returns every severity from the most to the least significant.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
	}
}
