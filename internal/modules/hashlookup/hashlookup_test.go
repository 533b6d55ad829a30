package hashlookup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/pipeline"
)

const (
	abcMD5    = "900150983cd24fb0d6963f7d28e17f72"
	abcSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

type memoryStore struct {
	mu     sync.Mutex
	hashes map[int64]model.FileHashes
}

func (s *memoryStore) SetFileHashes(_ context.Context, fileID int64, h model.FileHashes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes == nil {
		s.hashes = make(map[int64]model.FileHashes)
	}
	s.hashes[fileID] = h
	return nil
}

func newFile(t *testing.T, name, data string) *model.File {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	f := &model.File{ID: 5, Name: name, ParentPath: "/", LocalPath: p, Size: int64(len(data))}
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

	t.Run("stores hashes and reports a hit", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		store := &memoryStore{}
		m := New(Options{Blackboard: board, Store: store, SetName: "known-bad", KnownBad: []string{abcMD5}})
		if err := startUp(t, m); err != nil {
			t.Fatal(err)
		}

		res, err := m.Process(context.Background(), newFile(t, "abc.bin", "abc"))
		if err != nil || res != pipeline.ResultOK {
			t.Fatalf("Process() = %v, %v", res, err)
		}

		got := store.hashes[5]
		if got.MD5 != abcMD5 || got.SHA256 != abcSHA256 {
			t.Errorf("unexpected hashes %+v", got)
		}
		if len(got.BLAKE2b) != 64 {
			t.Errorf("expected a 256-bit BLAKE2b digest, got %q", got.BLAKE2b)
		}

		hits := board.ByType(model.ArtifactHashSetHit)
		if len(hits) != 1 {
			t.Fatalf("expected 1 hit, got %d", len(hits))
		}
		if v, _ := hits[0].Attribute(model.AttrSetName); v != "known-bad" {
			t.Errorf("unexpected set name %q", v)
		}
		if hits[0].Severity != model.SeverityHigh {
			t.Errorf("expected HIGH, got %v", hits[0].Severity)
		}
	})

	t.Run("sha256 entries match too", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := New(Options{Blackboard: board, KnownBad: []string{"  " + "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"}})
		if err := startUp(t, m); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Process(context.Background(), newFile(t, "abc.txt", "abc")); err != nil {
			t.Fatal(err)
		}
		if len(board.Artifacts()) != 1 {
			t.Errorf("expected 1 hit, got %d", len(board.Artifacts()))
		}
	})

	t.Run("unknown file posts nothing", func(t *testing.T) {
		t.Parallel()
		board := blackboard.NewMemory()
		m := New(Options{Blackboard: board, KnownBad: []string{abcMD5}})
		if err := startUp(t, m); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Process(context.Background(), newFile(t, "other.txt", "abcd")); err != nil {
			t.Fatal(err)
		}
		if len(board.Artifacts()) != 0 {
			t.Error("expected no artifacts")
		}
	})
}

func TestModule_StartUpErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{name: "no blackboard", opts: Options{}, want: blackboard.ErrNotConfigured},
		{name: "invalid inline hash", opts: Options{Blackboard: blackboard.NewMemory(), KnownBad: []string{"xyz"}}, want: ErrInvalidHash},
		{name: "missing hash set file", opts: Options{Blackboard: blackboard.NewMemory(), HashSetFiles: []string{"/nonexistent/set.txt"}}, want: os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := startUp(t, New(tt.opts)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadHashSet(t *testing.T) {
	t.Parallel()

	t.Run("reads md5sum style files", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "set.txt")
		data := "# known bad\n\n" + abcMD5 + "  abc.bin\n" + abcSHA256 + ",abc\n"
		if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}

		set, err := LoadHashSet(nil, []string{p})
		if err != nil {
			t.Fatalf("LoadHashSet() error = %v", err)
		}
		if len(set) != 2 {
			t.Errorf("expected 2 entries, got %d", len(set))
		}
		if !set.Contains("", abcSHA256) {
			t.Error("expected the sha256 entry")
		}
	})

	t.Run("reports the bad line", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "set.txt")
		if err := os.WriteFile(p, []byte(abcMD5+"\nnot-a-hash\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadHashSet(nil, []string{p})
		if !errors.Is(err, ErrInvalidHash) {
			t.Errorf("expected ErrInvalidHash, got %v", err)
		}
	})
}

func TestNewTemplate_SharesHashSet(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "set.txt")
	if err := os.WriteFile(p, []byte(abcMD5+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tmpl := NewTemplate(Options{Blackboard: blackboard.NewMemory(), HashSetFiles: []string{p}})

	first := tmpl.CreateFileModule()
	if err := startUp(t, first); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	second := tmpl.CreateFileModule()
	if err := startUp(t, second); err != nil {
		t.Errorf("expected the cached hash set, got %v", err)
	}
}
