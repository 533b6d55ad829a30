package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/fileingest/internal/config"
	"github.com/nao1215/fileingest/internal/model"
)

func TestShowHistory(t *testing.T) {
	t.Parallel()

	t.Run("no database yet", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.DBDir = t.TempDir()

		var buf bytes.Buffer
		if err := showHistory(context.Background(), cfg, "", &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No case database yet") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("lists stored jobs", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t, createEvidence(t))
		if err := runIngest(context.Background(), cfg, discardLogger(), &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}

		cfg.JSONReport = true
		var buf bytes.Buffer
		if err := showHistory(context.Background(), cfg, "", &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var jobs []model.JobRecord
		if err := json.Unmarshal(buf.Bytes(), &jobs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(jobs) != 1 {
			t.Fatalf("expected 1 job, got %d", len(jobs))
		}
		if jobs[0].DataSource != "evidence" || jobs[0].FilesProcessed != 2 {
			t.Errorf("unexpected job: %+v", jobs[0])
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t, createEvidence(t))
		if err := runIngest(context.Background(), cfg, discardLogger(), &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}

		err := showHistory(context.Background(), cfg, "no-such-job", &bytes.Buffer{})
		if !errors.Is(err, errJobNotFound) {
			t.Errorf("expected errJobNotFound, got %v", err)
		}
	})
}

func TestRunHistoryCmdConflictingFormats(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db-dir", t.TempDir(), "-j", "-m"})

	if err := cmd.Execute(); !errors.Is(err, config.ErrConflictingReportFormats) {
		t.Errorf("expected ErrConflictingReportFormats, got %v", err)
	}
}
