package searchquery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/pipeline"
)

func newFile(t *testing.T, name, data string) *model.File {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	f := &model.File{ID: 11, Name: name, ParentPath: "/", LocalPath: p, Size: int64(len(data))}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func startUp(t *testing.T, m pipeline.FileModule) error {
	t.Helper()
	job := pipeline.NewIngestJob(context.Background(), nil)
	t.Cleanup(job.Release)
	return m.StartUp(pipeline.NewJobContext(job, Name))
}

func TestModule_Process(t *testing.T) {
	t.Parallel()

	t.Run("html bookmarks", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := New(Options{Blackboard: board})
		if err := startUp(t, m); err != nil {
			t.Fatal(err)
		}

		doc := `<html><body>
<a href="https://www.google.com/search?q=golang+tips&amp;hl=en">tips</a>
<a href="https://www.google.com/search?q=golang+tips&amp;start=10">page 2</a>
<a href="https://example.com/?q=ignored">other</a>
<p>seen at https://www.bing.com/search?q=sqlite+wal</p>
</body></html>`
		res, err := m.Process(context.Background(), newFile(t, "bookmarks.html", doc))
		if err != nil || res != pipeline.ResultOK {
			t.Fatalf("Process() = %v, %v", res, err)
		}

		got := board.ByType(model.ArtifactWebSearchQuery)
		if len(got) != 2 {
			t.Fatalf("expected 2 distinct queries, got %d", len(got))
		}
		if v, _ := got[0].Attribute(model.AttrText); v != "golang tips" {
			t.Errorf("unexpected first query %q", v)
		}
		if v, _ := got[0].Attribute(model.AttrDomain); v != "www.google.com" {
			t.Errorf("unexpected domain %q", v)
		}
		if v, _ := got[1].Attribute(model.AttrEngine); v != "Bing" {
			t.Errorf("unexpected engine %q", v)
		}
		counts := m.Counts()
		if counts["Google"] != 1 || counts["Bing"] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
		if err := m.ShutDown(false); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("plain text history", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := New(Options{Blackboard: board})
		if err := startUp(t, m); err != nil {
			t.Fatal(err)
		}

		data := "2024-01-01 https://duckduckgo.com/?q=privacy+tools\n2024-01-02 https://www.google.com/maps\n"
		if _, err := m.Process(context.Background(), newFile(t, "history.log", data)); err != nil {
			t.Fatal(err)
		}
		got := board.Artifacts()
		if len(got) != 1 {
			t.Fatalf("expected 1 artifact, got %d", len(got))
		}
		if v, _ := got[0].Attribute(model.AttrText); v != "privacy tools" {
			t.Errorf("unexpected query %q", v)
		}
	})

	t.Run("skips non-text files", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := New(Options{Blackboard: board})
		if err := startUp(t, m); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Process(context.Background(), newFile(t, "cache.bin", "https://www.google.com/search?q=x")); err != nil {
			t.Fatal(err)
		}
		if len(board.Artifacts()) != 0 {
			t.Error("expected no artifacts")
		}
	})
}

func TestModule_StartUpInvalidRules(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "rules.xml")
	if err := os.WriteFile(p, []byte("<SearchEngines/>"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := startUp(t, New(Options{Blackboard: blackboard.NewMemory(), RulesFile: p}))
	if !errors.Is(err, ErrInvalidRules) {
		t.Errorf("expected ErrInvalidRules, got %v", err)
	}
}

func TestTally(t *testing.T) {
	t.Parallel()

	tl := newTally()
	tl.acquire([]string{"Google", "Bing"})
	tl.acquire([]string{"Google", "Bing"})

	if _, last := tl.release(map[string]int{"Google": 2}); last {
		t.Fatal("first release must not be the last")
	}
	totals, last := tl.release(map[string]int{"Google": 1, "Bing": 4})
	if !last {
		t.Fatal("expected the last release")
	}
	want := []engineTotal{{engine: "Google", count: 3}, {engine: "Bing", count: 4}}
	if len(totals) != len(want) {
		t.Fatalf("got %v, expected %v", totals, want)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("total %d: got %v, expected %v", i, totals[i], want[i])
		}
	}
}

func TestExtractURLs(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		got := extractTextURLs(`see "https://a.example/x?q=1" and http://b.example/ and https://a.example/x?q=1`)
		want := []string{"https://a.example/x?q=1", "http://b.example/"}
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		doc := `<a href="/relative">r</a><a href="HTTPS://A.example/">a</a><form action="https://f.example/s?q=1"></form><!-- https://c.example/ -->`
		got := extractHTMLURLs(doc)
		want := []string{"HTTPS://A.example/", "https://f.example/s?q=1", "https://c.example/"}
		if len(got) != len(want) {
			t.Fatalf("got %v, expected %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("url %d: got %q, expected %q", i, got[i], want[i])
			}
		}
	})
}
