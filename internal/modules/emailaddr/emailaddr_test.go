package emailaddr

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
	f := &model.File{ID: 7, Name: name, ParentPath: "/", LocalPath: p, Size: int64(len(data))}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func startModule(t *testing.T, opts Options) *Module {
	t.Helper()
	job := pipeline.NewIngestJob(context.Background(), model.NewDataSource(t.TempDir()))
	t.Cleanup(job.Release)
	m := New(opts)
	if err := m.StartUp(pipeline.NewJobContext(job, Name)); err != nil {
		t.Fatalf("StartUp() error = %v", err)
	}
	return m
}

func TestModule_Process(t *testing.T) {
	t.Parallel()

	t.Run("posts one artifact per distinct address", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := startModule(t, Options{Blackboard: board})

		f := newFile(t, "notes.txt", "Contact Alice@Example.org or alice@example.org, backup bob@gmail.com")
		res, err := m.Process(context.Background(), f)
		if err != nil || res != pipeline.ResultOK {
			t.Fatalf("Process() = %v, %v", res, err)
		}

		got := board.ByType(model.ArtifactEmailAddress)
		if len(got) != 2 {
			t.Fatalf("expected 2 artifacts, got %d", len(got))
		}
		if v, _ := got[0].Attribute(model.AttrEmail); v != "alice@example.org" {
			t.Errorf("expected lower-cased address, got %q", v)
		}
		if got[0].Severity != model.SeverityHigh {
			t.Errorf("expected HIGH for a custom domain, got %v", got[0].Severity)
		}
		if got[1].Severity != model.SeverityMedium {
			t.Errorf("expected MEDIUM for a free provider, got %v", got[1].Severity)
		}
		if got[0].FileID != 7 || got[0].Module != Name {
			t.Errorf("unexpected artifact origin: %+v", got[0])
		}
	})

	t.Run("honours configured domains", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := startModule(t, Options{
			Blackboard:    board,
			FreeProviders: []string{"Corp.Example"},
			IgnoreDomains: []string{"example.com"},
		})

		f := newFile(t, "list.csv", "noreply@example.com,ops@corp.example")
		if _, err := m.Process(context.Background(), f); err != nil {
			t.Fatal(err)
		}
		got := board.Artifacts()
		if len(got) != 1 {
			t.Fatalf("expected 1 artifact, got %d", len(got))
		}
		if got[0].Severity != model.SeverityMedium {
			t.Errorf("expected MEDIUM, got %v", got[0].Severity)
		}
	})

	t.Run("skips binary files", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := startModule(t, Options{Blackboard: board})

		f := newFile(t, "photo.jpg", "someone@example.org")
		if _, err := m.Process(context.Background(), f); err != nil {
			t.Fatal(err)
		}
		if len(board.Artifacts()) != 0 {
			t.Error("expected no artifacts for a non-text file")
		}
	})

	t.Run("unreadable file is an error", func(t *testing.T) {
		t.Parallel()
		m := startModule(t, Options{Blackboard: blackboard.NewMemory()})
		f := &model.File{Name: "gone.txt", ParentPath: "/", LocalPath: filepath.Join(t.TempDir(), "gone.txt")}

		res, err := m.Process(context.Background(), f)
		if err == nil || res != pipeline.ResultError {
			t.Errorf("expected an error result, got %v, %v", res, err)
		}
	})
}

func TestModule_StartUpWithoutBlackboard(t *testing.T) {
	t.Parallel()

	job := pipeline.NewIngestJob(context.Background(), nil)
	defer job.Release()

	err := New(Options{}).StartUp(pipeline.NewJobContext(job, Name))
	if !errors.Is(err, blackboard.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewTemplate(t *testing.T) {
	t.Parallel()

	if !NewTemplate(Options{}).CanProduceFileModule() {
		t.Error("expected an enabled template")
	}
	if NewTemplate(Options{Disabled: true}).CanProduceFileModule() {
		t.Error("expected a disabled template")
	}
	if got := pipeline.ClassNameOf(NewTemplate(Options{}).CreateFileModule()); got != "github.com/nao1215/fileingest/internal/modules/emailaddr.Module" {
		t.Errorf("unexpected class name %q", got)
	}
}
