package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/fileingest/internal/model"
)

func TestIsText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text bool
		html bool
	}{
		{name: "index.HTML", text: true, html: true},
		{name: "page.htm", text: true, html: true},
		{name: "notes.txt", text: true},
		{name: "history.plist", text: true},
		{name: "photo.jpg"},
		{name: "README"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := &model.File{Name: tt.name}
			if got := IsText(f); got != tt.text {
				t.Errorf("IsText() = %v, expected %v", got, tt.text)
			}
			if got := IsHTML(f); got != tt.html {
				t.Errorf("IsHTML() = %v, expected %v", got, tt.html)
			}
		})
	}
}

func TestReadText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "mixed.txt")
	data := []byte("user\x00name@example.org and more")
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}

	f := &model.File{Name: "mixed.txt", ParentPath: "/", LocalPath: p, Size: int64(len(data))}
	defer f.Close()

	got, err := ReadText(f, 0)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if got != "user name@example.org and more" {
		t.Errorf("unexpected text %q", got)
	}

	got, err = ReadText(f, 4)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if got != "user" {
		t.Errorf("expected limited read, got %q", got)
	}
}
