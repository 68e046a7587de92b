package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sjawhar/interview-minutes/internal/ledger"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestSQLitePragmas(t *testing.T) {
	store := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "archive", "test.db"))

	var mode string
	if err := store.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode failed: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected journal_mode wal, got %q", mode)
	}

	var timeout int
	if err := store.DB().QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout failed: %v", err)
	}
	if timeout < 5000 {
		t.Fatalf("expected busy_timeout >= 5000, got %d", timeout)
	}
}

func TestSQLiteDefaultsToMemory(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, "")

	if err := store.CreateSession(ctx, "s1", "ippan", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "s1"); err != nil {
		t.Fatalf("expected session visible on the single in-memory connection: %v", err)
	}
}

func TestSQLiteSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, MemoryPath)

	startedAt := time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC)
	if err := store.CreateSession(ctx, "s1", "denryoku", startedAt); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := store.CreateSession(ctx, " ", "denryoku", startedAt); err == nil {
		t.Fatal("expected error for blank session id")
	}

	endedAt := startedAt.Add(30 * time.Minute)
	if err := store.EndSession(ctx, "s1", SessionCompleted, endedAt); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if err := store.EndSession(ctx, "s1", SessionReset, endedAt.Add(time.Hour)); err != nil {
		t.Fatalf("second EndSession failed: %v", err)
	}
	if err := store.EndSession(ctx, "missing", SessionReset, endedAt); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}

	sess, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess.Template != "denryoku" || sess.Status != SessionReset {
		t.Fatalf("unexpected session %#v", sess)
	}
	if sess.EndedAt == nil || !sess.EndedAt.Equal(endedAt) {
		t.Fatalf("expected first end time kept, got %v", sess.EndedAt)
	}
}

func TestSQLiteTranscripts(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, MemoryPath)

	startedAt := time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC)
	if err := store.CreateSession(ctx, "s1", "ippan", startedAt); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	for i, text := range []string{"first try", " second try ", "other"} {
		qid := 1
		if i == 2 {
			qid = 2
		}
		err := store.SaveTranscript(ctx, ledger.Transcript{
			SessionID:    "s1",
			Template:     "ippan",
			QuestionID:   qid,
			QuestionText: fmt.Sprintf("Q%d", qid),
			RawText:      text,
			CapturedAt:   startedAt.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveTranscript failed: %v", err)
		}
	}

	all, err := store.Transcripts(ctx, "s1")
	if err != nil {
		t.Fatalf("Transcripts failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 transcripts, got %d", len(all))
	}
	if all[1].RawText != "second try" {
		t.Fatalf("expected trimmed text, got %q", all[1].RawText)
	}

	latest, err := store.LatestTranscripts(ctx, "s1")
	if err != nil {
		t.Fatalf("LatestTranscripts failed: %v", err)
	}
	if len(latest) != 2 || latest[1].RawText != "second try" || latest[2].RawText != "other" {
		t.Fatalf("unexpected latest transcripts %#v", latest)
	}

	err = store.SaveTranscript(ctx, ledger.Transcript{SessionID: "unknown", Template: "ippan", QuestionID: 1, CapturedAt: startedAt})
	if err == nil {
		t.Fatal("expected foreign key error for unknown session")
	}
}

func TestSQLiteDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, MemoryPath)

	base := time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC)
	docs := []Document{
		{ID: "d1", Template: "ippan", Path: "outputs/a.docx", Consolidated: true, Questions: 5, CreatedAt: base},
		{ID: "d2", Template: "ippan", Path: "outputs/b.docx", RemoteID: "drive-1", Questions: 2, CreatedAt: base.Add(time.Hour)},
		{ID: "d3", Template: "hoken", Path: "outputs/c.docx", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, d := range docs {
		if err := store.RecordDocument(ctx, d); err != nil {
			t.Fatalf("RecordDocument(%s) failed: %v", d.ID, err)
		}
	}
	if err := store.RecordDocument(ctx, Document{Template: "ippan"}); err == nil {
		t.Fatal("expected error for missing id")
	}

	ippan, err := store.Documents(ctx, "ippan")
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(ippan) != 2 || ippan[0].ID != "d2" || ippan[1].ID != "d1" {
		t.Fatalf("expected newest first for ippan, got %#v", ippan)
	}
	if !ippan[1].Consolidated || ippan[1].Questions != 5 || ippan[0].RemoteID != "drive-1" {
		t.Fatalf("fields not round-tripped: %#v", ippan)
	}

	all, err := store.Documents(ctx, "")
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(all))
	}
}

func TestSQLiteConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, MemoryPath)

	startedAt := time.Now().UTC()
	if err := store.CreateSession(ctx, "s1", "ippan", startedAt); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = store.SaveTranscript(ctx, ledger.Transcript{
				SessionID:  "s1",
				Template:   "ippan",
				QuestionID: idx,
				RawText:    fmt.Sprintf("answer-%d", idx),
				CapturedAt: startedAt.Add(time.Duration(idx) * time.Second),
			})
			_, _ = store.GetSession(ctx, "s1")
		}(i)
	}
	wg.Wait()

	transcripts, err := store.Transcripts(ctx, "s1")
	if err != nil {
		t.Fatalf("Transcripts failed: %v", err)
	}
	if len(transcripts) != 20 {
		t.Fatalf("expected 20 transcripts, got %d", len(transcripts))
	}
}
