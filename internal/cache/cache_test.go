package cache

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgpai22/xcaption/internal/caption"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "captions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleEntry() Entry {
	return Entry{
		Source:   "yt-dlp",
		Language: "en",
		Captions: []caption.Caption{
			{Start: 1.2, End: 4.5, Text: "Hello", StartTimeString: "00:00:01,240", EndTimeString: "00:00:04,500"},
		},
		Stats: caption.Stats{Blocks: 2, Parsed: 1, ShortBlocks: 1},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := Key{VideoID: "abc123def45", Language: "en"}

	if _, ok, err := store.Get(ctx, key, time.Hour); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, key, sampleEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, key, time.Hour)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Source != "yt-dlp" || got.Language != "en" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if len(got.Captions) != 1 || got.Captions[0].StartTimeString != "00:00:01,240" {
		t.Errorf("unexpected captions: %+v", got.Captions)
	}
	if got.Stats.Dropped() != 1 {
		t.Errorf("stats not preserved: %+v", got.Stats)
	}

	// translated captions use a separate key
	if _, ok, _ := store.Get(ctx, Key{VideoID: "abc123def45", Language: "en", Target: "es"}, time.Hour); ok {
		t.Error("target language should be part of the key")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := Key{VideoID: "v", Language: "en"}

	if err := store.Put(ctx, key, sampleEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	replacement := sampleEntry()
	replacement.Source = "transcription"
	if err := store.Put(ctx, key, replacement); err != nil {
		t.Fatalf("Put replacement: %v", err)
	}

	got, ok, err := store.Get(ctx, key, 0)
	if err != nil || !ok || got.Source != "transcription" {
		t.Fatalf("expected replacement, got %+v ok=%v err=%v", got, ok, err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestGetExpiresStaleEntries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	key := Key{VideoID: "v", Language: "en"}

	if err := store.Put(ctx, key, sampleEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := store.Get(ctx, key, time.Hour); ok {
		t.Error("entry older than maxAge should miss")
	}
	if _, ok, _ := store.Get(ctx, key, 3*time.Hour); !ok {
		t.Error("entry within maxAge should hit")
	}
}

func TestPurge(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	old := sampleEntry()
	old.CreatedAt = now.Add(-48 * time.Hour)
	if err := store.Put(ctx, Key{VideoID: "old", Language: "en"}, old); err != nil {
		t.Fatalf("Put old: %v", err)
	}
	if err := store.Put(ctx, Key{VideoID: "new", Language: "en"}, sampleEntry()); err != nil {
		t.Fatalf("Put new: %v", err)
	}

	n, err := store.Purge(ctx, 24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("Purge = %d, %v; want 1", n, err)
	}
	n, err = store.Purge(ctx, 0)
	if err != nil || n != 1 {
		t.Fatalf("Purge all = %d, %v; want 1", n, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	_, err = Open(path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put(context.Background(), Key{VideoID: "v", Language: "en"}, sampleEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(1) FROM captions").Scan(&n); err != nil || n != 1 {
		t.Fatalf("expected persisted row, got %d %v", n, err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, ok, _ := reopened.Get(context.Background(), Key{VideoID: "v", Language: "en"}, 0); !ok {
		t.Error("expected entry after reopen")
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.db.lock")
	first, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}

	if _, err := AcquireLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = second.Release()
}
