package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestParseSettings tests decoding and schema validation of settings documents.
func TestParseSettings(t *testing.T) {
	t.Parallel()

	t.Run("decodes a full document", func(t *testing.T) {
		t.Parallel()

		doc := `
searchQuery:
  rulesFile: /etc/fileingest/engines.xml
hashLookup:
  setName: contraband
  knownBad:
    - d41d8cd98f00b204e9800998ecf8427e
  hashSetFiles:
    - /etc/fileingest/bad.txt
email:
  ignoreDomains: [example.com]
maxFileSize: 1024
disabled: [Key Material]
fileIngestPipeline: [a.Module, b.Module]
`
		s, err := ParseSettings([]byte(doc))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.SearchQuery.RulesFile != "/etc/fileingest/engines.xml" {
			t.Errorf("unexpected rules file %q", s.SearchQuery.RulesFile)
		}
		if s.HashLookup.SetName != "contraband" || len(s.HashLookup.KnownBad) != 1 {
			t.Errorf("unexpected hash lookup settings %+v", s.HashLookup)
		}
		if s.MaxFileSize != 1024 {
			t.Errorf("expected max file size 1024, got %d", s.MaxFileSize)
		}
		if len(s.FileIngestPipeline) != 2 || s.FileIngestPipeline[0] != "a.Module" {
			t.Errorf("unexpected pipeline order %v", s.FileIngestPipeline)
		}
	})

	t.Run("empty document yields defaults", func(t *testing.T) {
		t.Parallel()
		s, err := ParseSettings(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.HashLookup.SetName != DefaultHashSetName {
			t.Errorf("expected default set name, got %q", s.HashLookup.SetName)
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()
		_, err := ParseSettings([]byte("hashLookp:\n  setName: x\n"))
		if !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("rejects malformed digests", func(t *testing.T) {
		t.Parallel()
		_, err := ParseSettings([]byte("hashLookup:\n  knownBad: [nothex]\n"))
		if !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("rejects negative max file size", func(t *testing.T) {
		t.Parallel()
		_, err := ParseSettings([]byte("maxFileSize: -5\n"))
		if !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		t.Parallel()
		_, err := ParseSettings([]byte("disabled: [unterminated\n"))
		if !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})
}

// TestLoadSettings tests loading settings from disk.
func TestLoadSettings(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("reads an existing file", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(p, []byte("disabled: [Email Addresses]\n"), 0600); err != nil {
			t.Fatal(err)
		}
		s, err := LoadSettings(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s.Disabled) != 1 || s.Disabled[0] != "Email Addresses" {
			t.Errorf("unexpected disabled list %v", s.Disabled)
		}
	})
}

// TestFindConfigFile tests the explicit path lookup of FindConfigFile.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns an existing explicit path", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(p, []byte{}, 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(p); got != p {
			t.Errorf("expected %q, got %q", p, got)
		}
	})

	t.Run("returns empty for a missing explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}
