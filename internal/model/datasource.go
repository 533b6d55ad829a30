package model

import (
	"path/filepath"
	"time"
)

// DataSource is the root of the content being ingested.
// Every File belongs to exactly one DataSource.
type DataSource struct {
	// ID is the case database identifier. Zero until persisted.
	ID int64 `json:"id"`

	// Name is the human-readable name, the base name of RootPath by default.
	Name string `json:"name"`

	// RootPath is the absolute path of the directory that is enumerated.
	RootPath string `json:"root_path"`

	// AddedAt is when the data source was added to the case.
	AddedAt time.Time `json:"added_at"`
}

// NewDataSource creates a DataSource rooted at the given directory.
// The path is made absolute when possible so that stored paths stay valid
// regardless of the working directory of later invocations.
func NewDataSource(root string) *DataSource {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &DataSource{
		Name:     filepath.Base(abs),
		RootPath: abs,
		AddedAt:  time.Now(),
	}
}
