package exifmeta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/pipeline"
)

func TestBuildArtifact(t *testing.T) {
	t.Parallel()

	t.Run("collects tags and takes the highest severity", func(t *testing.T) {
		t.Parallel()
		entries := []exif.ExifTag{
			{TagName: "Make", Formatted: "Canon"},
			{TagName: "Model", Formatted: "EOS 5D"},
			{TagName: "Software", Formatted: "GIMP 2.10"},
			{TagName: "BodySerialNumber", Formatted: "0123456789"},
			{TagName: "ImageWidth", Formatted: "4000"},
		}
		a := buildArtifact(9, entries)
		if a == nil {
			t.Fatal("expected an artifact")
		}
		if a.FileID != 9 || a.Type != model.ArtifactEXIFMetadata {
			t.Errorf("unexpected artifact %+v", a)
		}
		if a.Severity != model.SeverityHigh {
			t.Errorf("expected HIGH, got %v", a.Severity)
		}
		if len(a.Attributes) != 4 {
			t.Errorf("expected 4 attributes, got %d", len(a.Attributes))
		}
		if v, _ := a.Attribute(model.AttrSerial); v != "0123456789" {
			t.Errorf("unexpected serial %q", v)
		}
	})

	t.Run("gps coordinates carry their reference", func(t *testing.T) {
		t.Parallel()
		entries := []exif.ExifTag{
			{TagName: "GPSLatitudeRef", Formatted: "N"},
			{TagName: "GPSLatitude", Formatted: "[35/1 41/1 2200/100]"},
			{TagName: "GPSLongitudeRef", Formatted: "E"},
			{TagName: "GPSLongitude", Formatted: "[139/1 41/1 3000/100]"},
		}
		a := buildArtifact(1, entries)
		if a == nil {
			t.Fatal("expected an artifact")
		}
		if a.Severity != model.SeverityCritical {
			t.Errorf("expected CRITICAL, got %v", a.Severity)
		}
		if v, _ := a.Attribute(model.AttrGeoLat); v != "[35/1 41/1 2200/100] N" {
			t.Errorf("unexpected latitude %q", v)
		}
		if v, _ := a.Attribute(model.AttrGeoLong); v != "[139/1 41/1 3000/100] E" {
			t.Errorf("unexpected longitude %q", v)
		}
	})

	t.Run("uninteresting tags yield nothing", func(t *testing.T) {
		t.Parallel()
		entries := []exif.ExifTag{
			{TagName: "ImageWidth", Formatted: "640"},
			{TagName: "Orientation", Formatted: "1"},
			{TagName: "Make", Formatted: ""},
		}
		if a := buildArtifact(1, entries); a != nil {
			t.Errorf("expected nil, got %+v", a)
		}
	})
}

func TestModule_Process(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{name: "jpeg without exif", file: "photo.JPG", data: []byte{0xFF, 0xD8, 0xFF, 0xD9}},
		{name: "not an image", file: "notes.txt", data: []byte("Make: Canon")},
		{name: "garbage tiff", file: "scan.tif", data: []byte("not really a tiff")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(p, tt.data, 0o600); err != nil {
				t.Fatal(err)
			}
			f := &model.File{ID: 1, Name: tt.file, ParentPath: "/", LocalPath: p, Size: int64(len(tt.data))}
			defer f.Close()

			board := blackboard.NewMemory()
			job := pipeline.NewIngestJob(context.Background(), nil)
			defer job.Release()
			m := New(Options{Blackboard: board})
			if err := m.StartUp(pipeline.NewJobContext(job, Name)); err != nil {
				t.Fatal(err)
			}

			res, err := m.Process(context.Background(), f)
			if err != nil || res != pipeline.ResultOK {
				t.Errorf("Process() = %v, %v", res, err)
			}
			if len(board.Artifacts()) != 0 {
				t.Error("expected no artifacts")
			}
		})
	}
}

func TestModule_ProcessMissingImage(t *testing.T) {
	t.Parallel()

	board := blackboard.NewMemory()
	job := pipeline.NewIngestJob(context.Background(), nil)
	defer job.Release()
	m := New(Options{Blackboard: board})
	if err := m.StartUp(pipeline.NewJobContext(job, Name)); err != nil {
		t.Fatal(err)
	}

	f := &model.File{Name: "gone.jpeg", ParentPath: "/", LocalPath: filepath.Join(t.TempDir(), "gone.jpeg")}
	if res, err := m.Process(context.Background(), f); err == nil || res != pipeline.ResultError {
		t.Errorf("expected an error result, got %v, %v", res, err)
	}
}
