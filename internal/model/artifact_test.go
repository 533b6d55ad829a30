package model

import "testing"

// TestNewArtifact tests the Artifact constructor.
func TestNewArtifact(t *testing.T) {
	t.Parallel()

	a := NewArtifact(42, ArtifactHashSetHit, "Hash Lookup")

	if a.FileID != 42 {
		t.Errorf("got file id %d, expected 42", a.FileID)
	}
	if a.Severity != SeverityHigh {
		t.Errorf("got severity %v, expected default HIGH for hash set hits", a.Severity)
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

// TestArtifactAttributes tests adding and reading attributes.
func TestArtifactAttributes(t *testing.T) {
	t.Parallel()

	t.Run("skips empty values", func(t *testing.T) {
		t.Parallel()
		a := NewArtifact(1, ArtifactWebSearchQuery, "m")
		a.AddAttribute(AttrDomain, "")
		if len(a.Attributes) != 0 {
			t.Errorf("expected no attributes, got %d", len(a.Attributes))
		}
	})

	t.Run("returns first value of a type", func(t *testing.T) {
		t.Parallel()
		a := NewArtifact(1, ArtifactWebSearchQuery, "m")
		a.AddAttribute(AttrText, "first")
		a.AddAttribute(AttrText, "second")

		got, ok := a.Attribute(AttrText)
		if !ok || got != "first" {
			t.Errorf("got %q/%v, expected first/true", got, ok)
		}
		if _, ok := a.Attribute(AttrURL); ok {
			t.Error("expected missing attribute to report false")
		}
	})
}

// TestGetArtifactInfo tests the artifact metadata lookup.
func TestGetArtifactInfo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		artifactType ArtifactType
		expected     Severity
	}{
		{ArtifactWebSearchQuery, SeverityMedium},
		{ArtifactHashSetHit, SeverityHigh},
		{ArtifactEXIFMetadata, SeverityLow},
		{ArtifactEmailAddress, SeverityMedium},
		{ArtifactEncryptionKey, SeverityCritical},
		{ArtifactType("custom"), SeverityInfo},
	}

	for _, tc := range testCases {
		t.Run(string(tc.artifactType), func(t *testing.T) {
			t.Parallel()
			info := GetArtifactInfo(tc.artifactType)
			if info.Severity != tc.expected {
				t.Errorf("got %v, expected %v", info.Severity, tc.expected)
			}
			if info.Title == "" {
				t.Error("expected non-empty title")
			}
		})
	}
}
