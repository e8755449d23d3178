package storage_test

import (
	"context"
	"errors"
	"testing"

	"watchlog/internal/storage"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newMemoryStore(t)

	if err := storage.Set(ctx, source, "greeting", "hello"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := storage.Set(ctx, source, "count", 42); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	blob, err := source.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("create backup returned error: %v", err)
	}

	target := newMemoryStore(t)
	if err := storage.Set(ctx, target, "stale", true); err != nil {
		t.Fatalf("seed target failed: %v", err)
	}

	if err := target.RestoreFromBackup(ctx, blob); err != nil {
		t.Fatalf("restore returned error: %v", err)
	}

	greeting, err := storage.Get[string](ctx, target, "greeting")
	if err != nil || greeting == nil || *greeting != "hello" {
		t.Fatalf("expected restored greeting, got %v %v", greeting, err)
	}
	count, err := storage.Get[int](ctx, target, "count")
	if err != nil || count == nil || *count != 42 {
		t.Fatalf("expected restored count, got %v %v", count, err)
	}
	stale, err := storage.Get[bool](ctx, target, "stale")
	if err != nil {
		t.Fatalf("get stale returned error: %v", err)
	}
	if stale != nil {
		t.Fatalf("expected pre-restore data to be cleared")
	}
}

func TestRestoreRejectsInvalidBlobWithoutClearing(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	if err := storage.Set(ctx, store, "keep", "me"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for name, blob := range map[string][]byte{
		"not json":     []byte("definitely not json"),
		"missing data": []byte(`{"timestamp":"2026-01-02T00:00:00Z","schemaVersion":1}`),
	} {
		if err := store.RestoreFromBackup(ctx, blob); !errors.Is(err, storage.ErrInvalidBackup) {
			t.Fatalf("%s: expected ErrInvalidBackup, got %v", name, err)
		}
	}

	kept, err := storage.Get[string](ctx, store, "keep")
	if err != nil || kept == nil || *kept != "me" {
		t.Fatalf("expected existing data to survive failed restores, got %v %v", kept, err)
	}
}
