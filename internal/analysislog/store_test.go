package analysislog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestWriter(t *testing.T) *SQLWriter {
	t.Helper()
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "analyses.db"))
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestSQLWriter_Write(t *testing.T) {
	w := newTestWriter(t)
	ctx := context.Background()

	entries := []Entry{
		{
			TraceID:          "trace-1",
			SessionID:        "sess-1",
			Op:               "seo",
			Model:            "gemini-2.0-flash",
			Provider:         "gemini",
			PromptTokens:     120,
			CompletionTokens: 80,
			TotalTokens:      200,
			CacheHit:         false,
			CreatedAt:        time.Now().UTC(),
		},
		{
			TraceID:   "trace-2",
			SessionID: "sess-1",
			Op:        "seo",
			Model:     "gemini-2.0-flash",
			Provider:  "gemini",
			CacheHit:  true,
		},
		{
			TraceID:      "trace-3",
			Op:           "gap",
			ErrorMessage: "provider request failed",
		},
	}
	for _, e := range entries {
		if err := w.Write(ctx, e); err != nil {
			t.Fatalf("Write(%s): %v", e.TraceID, err)
		}
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM analysis_logs").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != len(entries) {
		t.Errorf("row count = %d, want %d", count, len(entries))
	}

	var hit int
	var op string
	err := w.db.QueryRow("SELECT cache_hit, op FROM analysis_logs WHERE trace_id = ?", "trace-2").Scan(&hit, &op)
	if err != nil {
		t.Fatalf("query trace-2: %v", err)
	}
	if hit != 1 {
		t.Errorf("cache_hit = %d, want 1", hit)
	}
	if op != "seo" {
		t.Errorf("op = %q, want seo", op)
	}
}

func TestSQLWriter_WriteDefaultsCreatedAt(t *testing.T) {
	w := newTestWriter(t)

	if err := w.Write(context.Background(), Entry{Op: "keywords"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var created string
	if err := w.db.QueryRow("SELECT created_at FROM analysis_logs").Scan(&created); err != nil {
		t.Fatalf("query created_at: %v", err)
	}
	if created == "" {
		t.Error("expected created_at to be set")
	}
}

func TestNewSQLiteWriter_ReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analyses.db")

	w1, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := w1.Write(context.Background(), Entry{Op: "seo"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() { _ = w2.Close() }()

	var count int
	if err := w2.db.QueryRow("SELECT COUNT(*) FROM analysis_logs").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("row count after reopen = %d, want 1", count)
	}
}

func TestNoopWriter(t *testing.T) {
	if err := (NoopWriter{}).Write(context.Background(), Entry{Op: "seo"}); err != nil {
		t.Errorf("NoopWriter.Write returned %v", err)
	}
}
