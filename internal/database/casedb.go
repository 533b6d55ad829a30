package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/fileingest/internal/model"
)

// DBFileName is the file name of the case database inside its directory.
const DBFileName = "case.db"

// ErrDatabaseNotFound is returned by Open when the database does not exist
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("case database not found")

// CaseDB provides SQLite-based storage for a forensic case.
type CaseDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CaseDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the case database in dbDir.
func Open(dbDir string, opts Options) (*CaseDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	// Foreign keys are set per connection through the DSN.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CaseDB{
		db:     db,
		dbPath: dbPath,
	}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the path of the database file.
func (cdb *CaseDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CaseDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CaseDB) createTables(ctx context.Context) error {
	schema := `
	-- Data sources are the roots that were ingested
	CREATE TABLE IF NOT EXISTS data_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		root_path TEXT NOT NULL,
		added_at TEXT NOT NULL
	);

	-- Files enumerated from a data source
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data_source_id INTEGER NOT NULL REFERENCES data_sources(id),
		name TEXT NOT NULL,
		parent_path TEXT NOT NULL,
		size INTEGER NOT NULL,
		mod_time TEXT,
		md5 TEXT,
		sha256 TEXT,
		blake2b TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_files_ds ON files(data_source_id);
	CREATE INDEX IF NOT EXISTS idx_files_md5 ON files(md5);
	CREATE INDEX IF NOT EXISTS idx_files_sha256 ON files(sha256);

	-- Artifacts posted by analysis modules
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL REFERENCES files(id),
		type TEXT NOT NULL,
		module TEXT NOT NULL,
		severity INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type);
	CREATE INDEX IF NOT EXISTS idx_artifacts_file ON artifacts(file_id);

	-- Typed values of an artifact, in posting order
	CREATE TABLE IF NOT EXISTS attributes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artifact_id INTEGER NOT NULL REFERENCES artifacts(id),
		type TEXT NOT NULL,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attributes_artifact ON attributes(artifact_id);

	-- One summary per ingest job
	CREATE TABLE IF NOT EXISTS jobs (
		job_id TEXT PRIMARY KEY,
		data_source TEXT NOT NULL,
		root_path TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		files_processed INTEGER NOT NULL,
		artifact_count INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	-- Module errors recorded during a job
	CREATE TABLE IF NOT EXISTS ingest_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		module TEXT NOT NULL,
		phase TEXT NOT NULL,
		file_id INTEGER,
		file_path TEXT,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_errors_job ON ingest_errors(job_id);
	`

	_, err := cdb.db.ExecContext(ctx, schema)
	return err
}

// AddDataSource stores a data source and sets its ID.
func (cdb *CaseDB) AddDataSource(ctx context.Context, ds *model.DataSource) error {
	if ds.AddedAt.IsZero() {
		ds.AddedAt = time.Now()
	}

	result, err := cdb.db.ExecContext(ctx,
		`INSERT INTO data_sources (name, root_path, added_at) VALUES (?, ?, ?)`,
		ds.Name, ds.RootPath, formatTimestamp(ds.AddedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add data source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read data source id: %w", err)
	}
	ds.ID = id
	return nil
}

// AddFile stores a file and sets its ID.
func (cdb *CaseDB) AddFile(ctx context.Context, f *model.File) error {
	result, err := cdb.db.ExecContext(ctx,
		`INSERT INTO files (data_source_id, name, parent_path, size, mod_time) VALUES (?, ?, ?, ?, ?)`,
		f.DataSourceID, f.Name, f.ParentPath, f.Size, formatTimestamp(f.ModTime),
	)
	if err != nil {
		return fmt.Errorf("failed to add file %s: %w", f.UniquePath(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read file id: %w", err)
	}
	f.ID = id
	return nil
}

// SetFileHashes stores the content hashes of a file.
func (cdb *CaseDB) SetFileHashes(ctx context.Context, fileID int64, h model.FileHashes) error {
	_, err := cdb.db.ExecContext(ctx,
		`UPDATE files SET md5 = ?, sha256 = ?, blake2b = ? WHERE id = ?`,
		h.MD5, h.SHA256, h.BLAKE2b, fileID,
	)
	if err != nil {
		return fmt.Errorf("failed to set hashes of file %d: %w", fileID, err)
	}
	return nil
}

// GetFileHashes returns the stored hashes of a file.
// It returns nil if the file does not exist.
func (cdb *CaseDB) GetFileHashes(ctx context.Context, fileID int64) (*model.FileHashes, error) {
	var md5, sha256, blake2b sql.NullString
	err := cdb.db.QueryRowContext(ctx,
		`SELECT md5, sha256, blake2b FROM files WHERE id = ?`, fileID,
	).Scan(&md5, &sha256, &blake2b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hashes of file %d: %w", fileID, err)
	}
	return &model.FileHashes{MD5: md5.String, SHA256: sha256.String, BLAKE2b: blake2b.String}, nil
}

// CountFiles returns the number of files stored for a data source.
func (cdb *CaseDB) CountFiles(ctx context.Context, dataSourceID int64) (int, error) {
	var n int
	err := cdb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files WHERE data_source_id = ?`, dataSourceID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

// PostArtifact stores an artifact with its attributes in one transaction
// and sets its ID.
func (cdb *CaseDB) PostArtifact(ctx context.Context, a *model.Artifact) (err error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
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

	result, err := tx.ExecContext(ctx,
		`INSERT INTO artifacts (file_id, type, module, severity, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.FileID, string(a.Type), a.Module, int(a.Severity), formatTimestamp(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read artifact id: %w", err)
	}

	for _, attr := range a.Attributes {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO attributes (artifact_id, type, value) VALUES (?, ?, ?)`,
			id, string(attr.Type), attr.Value,
		); err != nil {
			return fmt.Errorf("failed to insert attribute: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifact: %w", err)
	}
	a.ID = id
	return nil
}

// ArtifactsByType returns all artifacts of a type with their attributes,
// ordered by ID.
func (cdb *CaseDB) ArtifactsByType(ctx context.Context, artifactType model.ArtifactType) ([]*model.Artifact, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, file_id, type, module, severity, created_at
	FROM artifacts
	WHERE type = ?
	ORDER BY id
	`, string(artifactType))
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}

	var artifacts []*model.Artifact
	byID := make(map[int64]*model.Artifact)
	for rows.Next() {
		var a model.Artifact
		var typ, createdAt string
		var severity int
		if err := rows.Scan(&a.ID, &a.FileID, &typ, &a.Module, &severity, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Type = model.ArtifactType(typ)
		a.Severity = model.Severity(severity)
		a.CreatedAt = parseTimestamp(createdAt)
		artifacts = append(artifacts, &a)
		byID[a.ID] = &a
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// The single connection must be released before the next query.
	_ = rows.Close()

	if len(artifacts) == 0 {
		return artifacts, nil
	}

	attrRows, err := cdb.db.QueryContext(ctx, `
	SELECT attributes.artifact_id, attributes.type, attributes.value
	FROM attributes
	JOIN artifacts ON artifacts.id = attributes.artifact_id
	WHERE artifacts.type = ?
	ORDER BY attributes.artifact_id, attributes.id
	`, string(artifactType))
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var artifactID int64
		var typ, value string
		if err := attrRows.Scan(&artifactID, &typ, &value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		if a, ok := byID[artifactID]; ok {
			a.Attributes = append(a.Attributes, model.Attribute{Type: model.AttributeType(typ), Value: value})
		}
	}

	return artifacts, attrRows.Err()
}

// ArtifactCountsByType returns the number of stored artifacts per type.
func (cdb *CaseDB) ArtifactCountsByType(ctx context.Context) (map[model.ArtifactType]int, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM artifacts GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count artifacts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.ArtifactType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan artifact count: %w", err)
		}
		counts[model.ArtifactType(typ)] = n
	}
	return counts, rows.Err()
}
