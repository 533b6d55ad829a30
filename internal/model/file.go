package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"
)

// ErrFileClosed is returned when content is requested from a File after Close.
var ErrFileClosed = errors.New("file handle already released")

// FileHashes holds the content hashes of a file as lower-case hex strings.
type FileHashes struct {
	MD5     string `json:"md5,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
	BLAKE2b string `json:"blake2b,omitempty"`
}

// File is a single file discovered in a data source.
//
// The underlying OS handle is opened lazily on the first read and shared by
// every reader handed out by NewReader. Each reader is an independent
// io.SectionReader, so modules that inspect the same file one after another
// never observe each other's read offsets. Close releases the handle; the
// pipeline calls it once every module has seen the file.
type File struct {
	// ID is the case database identifier of the file.
	ID int64 `json:"id"`

	// DataSourceID is the identifier of the owning data source.
	DataSourceID int64 `json:"data_source_id"`

	// Name is the base name of the file.
	Name string `json:"name"`

	// ParentPath is the slash-separated directory of the file relative to the
	// data source root, always starting with "/".
	ParentPath string `json:"parent_path"`

	// LocalPath is the path used to open the file on this machine.
	LocalPath string `json:"-"`

	// Size is the file size in bytes at enumeration time.
	Size int64 `json:"size"`

	// ModTime is the last modification time at enumeration time.
	ModTime time.Time `json:"mod_time"`

	mu     sync.Mutex
	handle *os.File
	closed bool
}

// UniquePath returns the path of the file inside its data source.
func (f *File) UniquePath() string {
	return path.Join(f.ParentPath, f.Name)
}

// Extension returns the lower-cased extension without the leading dot.
func (f *File) Extension() string {
	idx := strings.LastIndexByte(f.Name, '.')
	if idx < 0 || idx == len(f.Name)-1 {
		return ""
	}
	return strings.ToLower(f.Name[idx+1:])
}

// open returns the shared handle, opening it on first use.
func (f *File) open() (*os.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrFileClosed
	}
	if f.handle == nil {
		h, err := os.Open(f.LocalPath) //nolint:gosec // path comes from data source enumeration
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.UniquePath(), err)
		}
		f.handle = h
	}
	return f.handle, nil
}

// NewReader returns a reader positioned at the start of the file content.
func (f *File) NewReader() (io.Reader, error) {
	h, err := f.open()
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(h, 0, f.Size), nil
}

// ReadContent reads at most limit bytes of the file content.
// A limit of zero or less reads the whole file.
func (f *File) ReadContent(limit int64) ([]byte, error) {
	r, err := f.NewReader()
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		r = io.LimitReader(r, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.UniquePath(), err)
	}
	return data, nil
}

// Close releases the OS handle held by the file. It is safe to call more
// than once; only the first call can return an error.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	if f.handle == nil {
		return nil
	}
	err := f.handle.Close()
	f.handle = nil
	return err
}

// IsClosed reports whether Close has been called.
func (f *File) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
