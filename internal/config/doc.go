// Package config provides configuration structures and utilities for fileingest.
// It defines the run options set from CLI flags, the .fileingest settings file
// that configures the analysis modules, and the process-wide ordering of the
// file ingest pipeline.
package config
