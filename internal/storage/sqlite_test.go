package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"watchlog/internal/storage"
)

func TestSQLiteBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "watchlog.db")

	backend, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}

	store := storage.NewStore(backend)
	if err := storage.Set(ctx, store, "greeting", "hello"); err != nil {
		t.Fatalf("set returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	backend, err = storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer backend.Close()

	store = storage.NewStore(backend)
	got, err := storage.Get[string](ctx, store, "greeting")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if got == nil || *got != "hello" {
		t.Fatalf("expected persisted value, got %v", got)
	}
}

func TestSQLiteBackendRejectsSecondInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlog.db")

	first, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}
	defer first.Close()

	if _, err := storage.OpenSQLite(path); !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("expected ErrLocked for second open, got %v", err)
	}
}

func TestSQLiteBackendKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "watchlog.db")

	backend, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}
	defer backend.Close()

	if err := backend.Write(ctx, "b", "2"); err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if err := backend.Write(ctx, "a", "1"); err != nil {
		t.Fatalf("write returned error: %v", err)
	}

	keys, err := backend.Keys(ctx)
	if err != nil {
		t.Fatalf("keys returned error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted keys [a b], got %v", keys)
	}

	if err := backend.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	_, ok, err := backend.Read(ctx, "a")
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected key to be deleted")
	}
}
