// Package datasource enumerates the files of a data source.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/nao1215/fileingest/internal/model"
)

// ErrNotDirectory is returned when a data source root is not a directory.
var ErrNotDirectory = errors.New("data source root is not a directory")

// LocalDirectory is a data source backed by a directory on the local disk.
type LocalDirectory struct {
	dataSource *model.DataSource
	logger     *slog.Logger
}

// Option configures a LocalDirectory.
type Option func(*LocalDirectory)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *LocalDirectory) {
		d.logger = logger
	}
}

// NewLocalDirectory creates a data source for the directory root.
func NewLocalDirectory(root string, opts ...Option) (*LocalDirectory, error) {
	ds := model.NewDataSource(root)

	info, err := os.Stat(ds.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat data source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, ds.RootPath)
	}

	d := &LocalDirectory{dataSource: ds}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// DataSource returns the data source description.
// Callers may set its ID once it is stored in the case database.
func (d *LocalDirectory) DataSource() *model.DataSource {
	return d.dataSource
}

// Walk calls fn for every regular file under the root, in lexical order.
//
// Symbolic links are not followed. Entries that cannot be read are logged and
// skipped. Walk stops with ctx.Err() once ctx is done, and with the error
// returned by fn if fn fails.
func (d *LocalDirectory) Walk(ctx context.Context, fn func(*model.File) error) error {
	root := d.dataSource.RootPath

	// godirwalk routes callback errors through ErrorCallback as well, so the
	// error returned by fn is kept here to tell it apart from filesystem errors.
	var callbackErr error

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !de.IsRegular() {
				return nil
			}

			info, err := os.Lstat(osPathname)
			if err != nil {
				d.logger.Warn("skipping unreadable file", "file", osPathname, "error", err)
				return nil
			}

			rel, err := filepath.Rel(root, filepath.Dir(osPathname))
			if err != nil {
				callbackErr = err
				return err
			}
			if err := fn(&model.File{
				DataSourceID: d.dataSource.ID,
				Name:         de.Name(),
				ParentPath:   path.Join("/", filepath.ToSlash(rel)),
				LocalPath:    osPathname,
				Size:         info.Size(),
				ModTime:      info.ModTime(),
			}); err != nil {
				callbackErr = err
				return err
			}
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			if ctx.Err() != nil || callbackErr != nil {
				return godirwalk.Halt
			}
			d.logger.Warn("skipping unreadable entry", "path", osPathname, "error", err)
			return godirwalk.SkipNode
		},
		FollowSymbolicLinks: false,
		Unsorted:            false,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if callbackErr != nil {
		return callbackErr
	}
	return err
}
