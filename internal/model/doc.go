// Package model defines the core data structures used throughout fileingest.
//
// This package contains the following main types:
//   - DataSource: A directory tree (disk image mount, export folder) being ingested
//   - File: One discovered file, with a lazily opened read handle
//   - Artifact: A result posted by an analysis module about a file
//   - IngestReport: The summary of one ingest job over a data source
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The pipeline, the analysis modules, the case database and the
// report writers all use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
