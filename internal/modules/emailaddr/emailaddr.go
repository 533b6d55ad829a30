// Package emailaddr finds email addresses in text files.
//
// Email addresses are strong identity artifacts: personal and corporate
// domains tie content to a person or an employer, while free providers are
// less specific but still worth a look.
package emailaddr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/modules/content"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Name is the display name of the module.
const Name = "Email Addresses"

// emailRegex matches email addresses in text.
var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// defaultFreeProviders are generic mail services. Addresses at these
// domains are rated lower than personal or corporate domains.
var defaultFreeProviders = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"protonmail.com", "proton.me", "tutanota.com", "tutamail.com",
	"aol.com", "icloud.com", "mail.com", "yandex.com",
}

// Options configures the module.
type Options struct {
	// Blackboard receives the posted artifacts.
	Blackboard blackboard.Blackboard

	// Logger is the base logger. Nil discards logs.
	Logger *slog.Logger

	// MaxFileSize limits how much of each file is scanned.
	MaxFileSize int64

	// FreeProviders extends the built-in list of free mail providers.
	FreeProviders []string

	// IgnoreDomains lists domains whose addresses are not reported.
	IgnoreDomains []string

	// Disabled stops the template from producing modules.
	Disabled bool
}

// NewTemplate returns the template that creates email address modules.
func NewTemplate(opts Options) *pipeline.FuncTemplate {
	return &pipeline.FuncTemplate{
		Name:     Name,
		Disabled: opts.Disabled,
		Factory:  func() pipeline.FileModule { return New(opts) },
	}
}

// Module scans text files for email addresses.
type Module struct {
	opts   Options
	free   map[string]bool
	ignore map[string]bool
	logger *slog.Logger
	found  int
}

// New creates a module instance.
func New(opts Options) *Module {
	return &Module{opts: opts}
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

	m.free = domainSet(defaultFreeProviders, m.opts.FreeProviders)
	m.ignore = domainSet(m.opts.IgnoreDomains)
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

	seen := make(map[string]bool)
	for _, match := range emailRegex.FindAllString(text, -1) {
		email := strings.ToLower(match)
		if seen[email] {
			continue
		}
		seen[email] = true

		domain := domainOf(email)
		if m.ignore[domain] {
			continue
		}

		a := model.NewArtifact(file.ID, model.ArtifactEmailAddress, Name)
		a.Severity = m.assessSeverity(domain)
		a.AddAttribute(model.AttrEmail, email)
		a.AddAttribute(model.AttrDomain, domain)
		if err := m.opts.Blackboard.PostArtifact(ctx, a); err != nil {
			return pipeline.ResultError, fmt.Errorf("failed to post email artifact: %w", err)
		}
		m.found++
	}
	return pipeline.ResultOK, nil
}

// ShutDown implements pipeline.FileModule.
func (m *Module) ShutDown(cancelled bool) error {
	m.logger.Debug("email address scan finished", "addresses", m.found, "cancelled", cancelled)
	return nil
}

// assessSeverity rates an address by its domain.
//
// Design decision: Personal domains (john@johndoe.com) and corporate
// domains identify a person or employer directly, so they rate HIGH.
// Free providers rate MEDIUM.
func (m *Module) assessSeverity(domain string) model.Severity {
	if m.free[domain] {
		return model.SeverityMedium
	}
	return model.SeverityHigh
}

func domainOf(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return domain
}

func domainSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, d := range list {
			d = strings.ToLower(strings.TrimSpace(d))
			if d != "" {
				set[d] = true
			}
		}
	}
	return set
}

var _ pipeline.FileModule = (*Module)(nil)
