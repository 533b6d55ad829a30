// Package hashlookup computes file hashes and matches them against a
// known-bad hash set.
package hashlookup

import (
	"context"
	"crypto/md5" //nolint:gosec // MD5 is required to match published hash sets
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Name is the display name of the module.
const Name = "Hash Lookup"

// HashStore stores computed file hashes. The case database implements it.
type HashStore interface {
	SetFileHashes(ctx context.Context, fileID int64, h model.FileHashes) error
}

// Options configures the module.
type Options struct {
	// Blackboard receives the posted artifacts.
	Blackboard blackboard.Blackboard

	// Store receives the computed hashes. Nil skips storing them.
	Store HashStore

	// Logger is the base logger. Nil discards logs.
	Logger *slog.Logger

	// SetName is the name reported for hash set hits.
	SetName string

	// KnownBad lists MD5 or SHA-256 hashes of known-bad files.
	KnownBad []string

	// HashSetFiles lists files holding additional known-bad hashes.
	HashSetFiles []string

	// Disabled stops the template from producing modules.
	Disabled bool
}

// NewTemplate returns the template that creates hash lookup modules.
// Modules created by one template share a single loaded hash set.
func NewTemplate(opts Options) *pipeline.FuncTemplate {
	load := sync.OnceValues(func() (HashSet, error) {
		return LoadHashSet(opts.KnownBad, opts.HashSetFiles)
	})
	return &pipeline.FuncTemplate{
		Name:     Name,
		Disabled: opts.Disabled,
		Factory: func() pipeline.FileModule {
			m := New(opts)
			m.load = load
			return m
		},
	}
}

// Module hashes every file and reports known-bad matches.
type Module struct {
	opts   Options
	load   func() (HashSet, error)
	set    HashSet
	logger *slog.Logger
	hashed int
	hits   int
}

// New creates a module instance that loads its own hash set at start-up.
func New(opts Options) *Module {
	return &Module{
		opts: opts,
		load: func() (HashSet, error) { return LoadHashSet(opts.KnownBad, opts.HashSetFiles) },
	}
}

// StartUp implements pipeline.FileModule. An unreadable or invalid hash set
// is a start-up error.
func (m *Module) StartUp(jc *pipeline.JobContext) error {
	if m.opts.Blackboard == nil {
		return blackboard.ErrNotConfigured
	}
	m.logger = m.opts.Logger
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.logger = m.logger.With("module", Name, "job", jc.JobID())

	set, err := m.load()
	if err != nil {
		return err
	}
	m.set = set
	m.logger.Debug("hash set loaded", "entries", len(set))
	return nil
}

// Process implements pipeline.FileModule.
func (m *Module) Process(ctx context.Context, file *model.File) (pipeline.ProcessResult, error) {
	hashes, err := hashFile(file)
	if err != nil {
		return pipeline.ResultError, err
	}
	m.hashed++

	if m.opts.Store != nil {
		if err := m.opts.Store.SetFileHashes(ctx, file.ID, hashes); err != nil {
			return pipeline.ResultError, fmt.Errorf("failed to store hashes: %w", err)
		}
	}

	if !m.set.Contains(hashes.MD5, hashes.SHA256) {
		return pipeline.ResultOK, nil
	}
	m.hits++
	a := model.NewArtifact(file.ID, model.ArtifactHashSetHit, Name)
	a.Severity = model.SeverityHigh
	a.AddAttribute(model.AttrSetName, m.opts.SetName)
	a.AddAttribute(model.AttrHashMD5, hashes.MD5)
	a.AddAttribute(model.AttrHashSHA256, hashes.SHA256)
	if err := m.opts.Blackboard.PostArtifact(ctx, a); err != nil {
		return pipeline.ResultError, fmt.Errorf("failed to post hash set hit: %w", err)
	}
	return pipeline.ResultOK, nil
}

// ShutDown implements pipeline.FileModule.
func (m *Module) ShutDown(cancelled bool) error {
	m.logger.Debug("hash lookup finished", "hashed", m.hashed, "hits", m.hits, "cancelled", cancelled)
	return nil
}

// hashFile reads the file once and computes all hashes.
func hashFile(file *model.File) (model.FileHashes, error) {
	r, err := file.NewReader()
	if err != nil {
		return model.FileHashes{}, err
	}

	md5h := md5.New() //nolint:gosec // see import
	sha := sha256.New()
	b2, err := blake2b.New256(nil)
	if err != nil {
		return model.FileHashes{}, err
	}
	if _, err := io.Copy(io.MultiWriter(md5h, sha, b2), r); err != nil {
		return model.FileHashes{}, fmt.Errorf("failed to hash %s: %w", file.UniquePath(), err)
	}
	return model.FileHashes{
		MD5:     hex.EncodeToString(md5h.Sum(nil)),
		SHA256:  hex.EncodeToString(sha.Sum(nil)),
		BLAKE2b: hex.EncodeToString(b2.Sum(nil)),
	}, nil
}

var _ pipeline.FileModule = (*Module)(nil)
