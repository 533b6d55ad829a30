// Package searchquery recovers web search queries from search engine URLs
// found in text files.
//
// Engines are described by an XML rule set. Each rule names the engine, a
// substring that identifies its URLs and the tokens the query follows. The
// built-in rules cover the common engines; a rule file can replace them.
package searchquery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/modules/content"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Name is the display name of the module.
const Name = "Search Engine Queries"

// Options configures the module.
type Options struct {
	// Blackboard receives the posted artifacts.
	Blackboard blackboard.Blackboard

	// Logger is the base logger. Nil discards logs.
	Logger *slog.Logger

	// RulesFile replaces the built-in rules when set.
	RulesFile string

	// MaxFileSize limits how much of each file is scanned.
	MaxFileSize int64

	// Disabled stops the template from producing modules.
	Disabled bool
}

// NewTemplate returns the template that creates search query modules.
// Modules created by one template share the parsed rules and the per-engine
// totals, which are logged when the last module shuts down.
func NewTemplate(opts Options) *pipeline.FuncTemplate {
	load := sync.OnceValues(func() (*RuleSet, error) { return LoadRules(opts.RulesFile) })
	totals := newTally()
	return &pipeline.FuncTemplate{
		Name:     Name,
		Disabled: opts.Disabled,
		Factory: func() pipeline.FileModule {
			m := New(opts)
			m.load = load
			m.totals = totals
			return m
		},
	}
}

// Module extracts search queries from URLs in text files.
type Module struct {
	opts   Options
	load   func() (*RuleSet, error)
	rules  *RuleSet
	totals *tally
	counts map[string]int
	logger *slog.Logger
}

// New creates a module instance with its own rules and totals.
func New(opts Options) *Module {
	return &Module{
		opts:   opts,
		load:   func() (*RuleSet, error) { return LoadRules(opts.RulesFile) },
		totals: newTally(),
	}
}

// StartUp implements pipeline.FileModule. A missing or invalid rule file is
// a start-up error.
func (m *Module) StartUp(jc *pipeline.JobContext) error {
	if m.opts.Blackboard == nil {
		return blackboard.ErrNotConfigured
	}
	m.logger = m.opts.Logger
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.logger = m.logger.With("module", Name, "job", jc.JobID())

	rules, err := m.load()
	if err != nil {
		return err
	}
	m.rules = rules
	m.counts = make(map[string]int, len(rules.Engines))
	m.totals.acquire(rules.Names())
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

	var urls []string
	if content.IsHTML(file) {
		urls = extractHTMLURLs(text)
	} else {
		urls = extractTextURLs(text)
	}

	seen := make(map[string]bool)
	for _, u := range urls {
		engine := m.rules.EngineFor(u)
		if engine == nil {
			continue
		}
		query := engine.ExtractQuery(u)
		if query == "" || seen[query] {
			continue
		}
		seen[query] = true

		a := model.NewArtifact(file.ID, model.ArtifactWebSearchQuery, Name)
		a.AddAttribute(model.AttrDomain, domainOf(u, engine))
		a.AddAttribute(model.AttrText, query)
		a.AddAttribute(model.AttrURL, u)
		a.AddAttribute(model.AttrEngine, engine.Name)
		if err := m.opts.Blackboard.PostArtifact(ctx, a); err != nil {
			return pipeline.ResultError, fmt.Errorf("failed to post search query: %w", err)
		}
		m.counts[engine.Name]++
	}
	return pipeline.ResultOK, nil
}

// ShutDown implements pipeline.FileModule.
func (m *Module) ShutDown(cancelled bool) error {
	if m.rules == nil {
		return nil
	}
	if totals, last := m.totals.release(m.counts); last {
		args := make([]any, 0, 2*len(totals)+2)
		for _, t := range totals {
			args = append(args, t.engine, t.count)
		}
		args = append(args, "cancelled", cancelled)
		m.logger.Info("search engine totals", args...)
	}
	return nil
}

// Counts returns the number of queries this instance found per engine.
func (m *Module) Counts() map[string]int {
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// domainOf returns the host of the URL, or the engine's domain substring
// when the URL does not parse.
func domainOf(rawURL string, e *Engine) string {
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return e.DomainSubstring
}

// engineTotal is the query count of one engine.
type engineTotal struct {
	engine string
	count  int
}

// tally sums the per-engine counts of the module instances of one job.
type tally struct {
	mu     sync.Mutex
	refs   int
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

// acquire registers a started module instance.
func (t *tally) acquire(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs++
	if t.order == nil {
		t.order = names
	}
}

// release adds an instance's counts. It reports the totals in rule order
// when the last registered instance is released.
func (t *tally) release(counts map[string]int) ([]engineTotal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range counts {
		t.counts[k] += v
	}
	t.refs--
	if t.refs > 0 {
		return nil, false
	}

	out := make([]engineTotal, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, engineTotal{engine: name, count: t.counts[name]})
	}
	if len(out) == 0 {
		names := make([]string, 0, len(t.counts))
		for name := range t.counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, engineTotal{engine: name, count: t.counts[name]})
		}
	}
	return out, true
}

var _ pipeline.FileModule = (*Module)(nil)
