// Package secretkey finds private key and credential material in text files.
package secretkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/modules/content"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Name is the display name of the module.
const Name = "Key Material"

// maxMatchesPerPattern bounds the work spent on one pattern in one file.
const maxMatchesPerPattern = 5

// Options configures the module.
type Options struct {
	// Blackboard receives the posted artifacts.
	Blackboard blackboard.Blackboard

	// Logger is the base logger. Nil discards logs.
	Logger *slog.Logger

	// MaxFileSize limits how much of each file is scanned.
	MaxFileSize int64

	// Disabled stops the template from producing modules.
	Disabled bool
}

// NewTemplate returns the template that creates key material modules.
func NewTemplate(opts Options) *pipeline.FuncTemplate {
	return &pipeline.FuncTemplate{
		Name:     Name,
		Disabled: opts.Disabled,
		Factory:  func() pipeline.FileModule { return New(opts) },
	}
}

// Module scans text files for key material.
//
// Design decision: The module reports one artifact per pattern and file,
// carrying a sanitized excerpt of the first match. The actual secret is
// never copied into the case database.
type Module struct {
	opts     Options
	patterns []*keyPattern
	logger   *slog.Logger
	found    int
}

// New creates a module instance.
func New(opts Options) *Module {
	return &Module{opts: opts, patterns: defaultPatterns()}
}

// StartUp implements pipeline.FileModule.
func (m *Module) StartUp(jc *pipeline.JobContext) error {
	if m.opts.Blackboard == nil {
		return blackboard.ErrNotConfigured
	}
	m.logger = m.opts.Logger
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.logger = m.logger.With("module", Name, "job", jc.JobID())
	return nil
}

// Process implements pipeline.FileModule.
func (m *Module) Process(ctx context.Context, file *model.File) (pipeline.ProcessResult, error) {
	if !content.IsText(file) {
		return pipeline.ResultOK, nil
	}
	text, err := content.ReadText(file, m.opts.MaxFileSize)
	if err != nil {
		return pipeline.ResultError, err
	}

	for _, p := range m.patterns {
		matches := p.pattern.FindAllString(text, maxMatchesPerPattern)
		if len(matches) == 0 {
			continue
		}

		a := model.NewArtifact(file.ID, model.ArtifactEncryptionKey, Name)
		a.Severity = p.severity
		a.AddAttribute(model.AttrKeyType, p.name)
		a.AddAttribute(model.AttrText, sanitizeKeyValue(matches[0], p.name))
		a.AddAttribute(model.AttrDescription, p.title+": "+p.description)
		if err := m.opts.Blackboard.PostArtifact(ctx, a); err != nil {
			return pipeline.ResultError, fmt.Errorf("failed to post key artifact: %w", err)
		}
		m.found++
	}
	return pipeline.ResultOK, nil
}

// ShutDown implements pipeline.FileModule.
func (m *Module) ShutDown(cancelled bool) error {
	m.logger.Debug("key material scan finished", "matches", m.found, "cancelled", cancelled)
	return nil
}

// sanitizeKeyValue returns a representation of a match that does not expose
// the key itself.
func sanitizeKeyValue(value, keyType string) string {
	if strings.Contains(value, "-----BEGIN") {
		first, _, _ := strings.Cut(value, "\n")
		return first + "..."
	}
	if strings.HasPrefix(keyType, "aws") && len(value) > 10 {
		return value[:10] + "...[REDACTED]"
	}
	if len(value) > 20 {
		return value[:20] + "...[REDACTED]"
	}
	return value
}

var _ pipeline.FileModule = (*Module)(nil)
