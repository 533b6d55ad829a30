package searchquery

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// noQuery marks a URL of a known engine that carries no query.
const noQuery = "NoQuery"

// ErrInvalidRules is returned for rule files that cannot be used.
var ErrInvalidRules = errors.New("invalid search engine rules")

//go:embed search_engines.xml
var defaultRulesXML []byte

// SplitToken tells where the query starts in an engine's URLs.
type SplitToken struct {
	// Plain is searched for in the URL to select the token.
	Plain string

	// Regex is the expression the URL is split on.
	Regex string

	re *regexp.Regexp
}

// Engine is one search engine rule.
type Engine struct {
	// Name is the engine name reported in artifacts.
	Name string

	// DomainSubstring selects the URLs that belong to the engine.
	DomainSubstring string

	// Splits are tried in document order.
	Splits []SplitToken
}

// RuleSet is an ordered list of engines.
type RuleSet struct {
	Engines []*Engine
}

type xmlRules struct {
	Engines []xmlEngine `xml:"SearchEngine"`
}

type xmlEngine struct {
	Engine          string     `xml:"engine,attr"`
	DomainSubstring string     `xml:"domainSubstring,attr"`
	Splits          []xmlSplit `xml:"splitToken"`
}

type xmlSplit struct {
	Plain string `xml:"plainToken,attr"`
	Regex string `xml:"regexToken,attr"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() (*RuleSet, error) {
	return ParseRules(bytes.NewReader(defaultRulesXML))
}

// LoadRules reads a rule file. An empty path yields the built-in rules.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	f, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open search engine rules: %w", err)
	}
	defer f.Close()
	return ParseRules(f)
}

// ParseRules parses a rule document.
//
// Every engine needs a name, a domain substring and at least one split token
// with a valid regular expression. The first engine listed for a domain wins
// at lookup time, so order in the document matters.
func ParseRules(r io.Reader) (*RuleSet, error) {
	var doc xmlRules
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	if len(doc.Engines) == 0 {
		return nil, fmt.Errorf("%w: no SearchEngine elements", ErrInvalidRules)
	}

	rs := &RuleSet{Engines: make([]*Engine, 0, len(doc.Engines))}
	for i, xe := range doc.Engines {
		if xe.Engine == "" || xe.DomainSubstring == "" {
			return nil, fmt.Errorf("%w: engine %d needs engine and domainSubstring attributes", ErrInvalidRules, i+1)
		}
		if len(xe.Splits) == 0 {
			return nil, fmt.Errorf("%w: engine %q has no splitToken", ErrInvalidRules, xe.Engine)
		}
		e := &Engine{Name: xe.Engine, DomainSubstring: xe.DomainSubstring}
		for _, xs := range xe.Splits {
			if xs.Plain == "" || xs.Regex == "" {
				return nil, fmt.Errorf("%w: engine %q has an empty splitToken", ErrInvalidRules, xe.Engine)
			}
			re, err := regexp.Compile(xs.Regex)
			if err != nil {
				return nil, fmt.Errorf("%w: engine %q: %w", ErrInvalidRules, xe.Engine, err)
			}
			e.Splits = append(e.Splits, SplitToken{Plain: xs.Plain, Regex: xs.Regex, re: re})
		}
		rs.Engines = append(rs.Engines, e)
	}
	return rs, nil
}

// EngineFor returns the first engine whose domain substring occurs in the
// URL, or nil.
func (rs *RuleSet) EngineFor(rawURL string) *Engine {
	for _, e := range rs.Engines {
		if strings.Contains(rawURL, e.DomainSubstring) {
			return e
		}
	}
	return nil
}

// Names returns the engine names in rule order.
func (rs *RuleSet) Names() []string {
	names := make([]string, 0, len(rs.Engines))
	for _, e := range rs.Engines {
		names = append(names, e.Name)
	}
	return names
}

// ExtractQuery returns the search query carried by a URL of this engine.
// It returns "" when the URL holds no query.
func (e *Engine) ExtractQuery(rawURL string) string {
	q := noQuery
	for _, s := range e.Splits {
		if strings.Contains(rawURL, s.Plain) {
			q = splitQuery(rawURL, s.re)
			break
		}
	}
	if q == noQuery {
		return ""
	}
	if decoded, err := url.QueryUnescape(q); err == nil {
		q = decoded
	}
	q = strings.TrimSpace(norm.NFC.String(q))
	if q == noQuery {
		return ""
	}
	return q
}

// splitQuery splits the URL on the token and keeps the last part up to the
// next '&'.
func splitQuery(rawURL string, re *regexp.Regexp) string {
	parts := re.Split(rawURL, -1)
	if len(parts) < 2 {
		return noQuery
	}
	last := parts[len(parts)-1]
	if before, _, found := strings.Cut(last, "&"); found {
		return before
	}
	return last
}
