package storage_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"watchlog/internal/storage"
	"watchlog/internal/storage/mocks"
)

type payload struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Tags   []string `json:"tags,omitempty"`
	Nested struct {
		Flag bool `json:"flag"`
	} `json:"nested"`
}

func newMemoryStore(t *testing.T, opts ...storage.Option) *storage.Store {
	t.Helper()
	return storage.NewStore(storage.NewMemoryBackend(), opts...)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	want := payload{Name: "inception", Count: 3, Tags: []string{"a", "b"}}
	want.Nested.Flag = true

	if err := storage.Set(ctx, store, "test_key", want); err != nil {
		t.Fatalf("set returned error: %v", err)
	}

	got, err := storage.Get[payload](ctx, store, "test_key")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected value, got nil")
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("round trip mismatch: got %+v want %+v", *got, want)
	}
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	got, err := storage.Get[payload](ctx, store, "absent")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent key, got %+v", got)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	if _, err := storage.Get[payload](ctx, store, ""); !errors.Is(err, storage.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey from get, got %v", err)
	}
	if err := storage.Set(ctx, store, "", payload{}); !errors.Is(err, storage.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey from set, got %v", err)
	}
	if err := store.Remove(ctx, ""); !errors.Is(err, storage.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey from remove, got %v", err)
	}
}

func TestCorruptedValuePurgedAndNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	ctx := context.Background()

	// Exactly one read: corruption must not be retried.
	backend.EXPECT().Read(gomock.Any(), "broken").Return("{not json", true, nil).Times(1)
	backend.EXPECT().Delete(gomock.Any(), "broken").Return(nil).Times(1)

	store := storage.NewStore(backend, storage.WithRetries(3), storage.WithRetryDelay(time.Millisecond))

	_, err := storage.Get[payload](ctx, store, "broken")
	if !errors.Is(err, storage.ErrDataCorruption) {
		t.Fatalf("expected ErrDataCorruption, got %v", err)
	}
	if errors.Is(err, storage.ErrMaxRetriesExceeded) {
		t.Fatalf("corruption must not be reported as retry exhaustion: %v", err)
	}
}

func TestTransientReadFailureRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	ctx := context.Background()

	transient := errors.New("medium unavailable")
	gomock.InOrder(
		backend.EXPECT().Read(gomock.Any(), "flaky").Return("", false, transient),
		backend.EXPECT().Read(gomock.Any(), "flaky").Return("", false, transient),
		backend.EXPECT().Read(gomock.Any(), "flaky").Return(`{"name":"ok","count":1,"nested":{"flag":false}}`, true, nil),
	)

	store := storage.NewStore(backend, storage.WithRetries(3), storage.WithRetryDelay(time.Millisecond))

	got, err := storage.Get[payload](ctx, store, "flaky")
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if got == nil || got.Name != "ok" {
		t.Fatalf("unexpected value after retry: %+v", got)
	}
}

func TestMaxRetriesExceededWrapsLastError(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	ctx := context.Background()

	transient := errors.New("disk detached")
	// retries=2 means 3 attempts total.
	backend.EXPECT().Write(gomock.Any(), "doomed", gomock.Any()).Return(transient).Times(3)

	store := storage.NewStore(backend, storage.WithRetries(2), storage.WithRetryDelay(time.Millisecond))

	err := storage.Set(ctx, store, "doomed", payload{Name: "x"})
	if !errors.Is(err, storage.ErrMaxRetriesExceeded) {
		t.Fatalf("expected ErrMaxRetriesExceeded, got %v", err)
	}
	if !errors.Is(err, transient) {
		t.Fatalf("expected last underlying error to be preserved, got %v", err)
	}
}

func TestGetSetMultiple(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	values := map[string]payload{
		"a": {Name: "first", Count: 1},
		"b": {Name: "second", Count: 2},
	}
	if err := storage.SetMultiple(ctx, store, values); err != nil {
		t.Fatalf("set multiple returned error: %v", err)
	}

	got, err := storage.GetMultiple[payload](ctx, store, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("get multiple returned error: %v", err)
	}
	if got["a"] == nil || got["a"].Name != "first" {
		t.Fatalf("unexpected value for a: %+v", got["a"])
	}
	if got["b"] == nil || got["b"].Count != 2 {
		t.Fatalf("unexpected value for b: %+v", got["b"])
	}
	if got["missing"] != nil {
		t.Fatalf("expected nil for missing key, got %+v", got["missing"])
	}
}

func TestClearAndStorageInfo(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	if err := storage.Set(ctx, store, "one", 1); err != nil {
		t.Fatalf("set returned error: %v", err)
	}
	if err := storage.Set(ctx, store, "two", 2); err != nil {
		t.Fatalf("set returned error: %v", err)
	}

	info, err := store.StorageInfo(ctx)
	if err != nil {
		t.Fatalf("storage info returned error: %v", err)
	}
	if !info.Available {
		t.Fatalf("expected store to be available")
	}
	if info.KeyCount != 2 {
		t.Fatalf("expected 2 keys, got %d", info.KeyCount)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear returned error: %v", err)
	}
	keys, err := store.AllKeys(ctx)
	if err != nil {
		t.Fatalf("all keys returned error: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys after clear, got %v", keys)
	}
}
