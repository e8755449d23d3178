package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3
	// DefaultRetryDelay is the base backoff; attempt n waits n times this.
	DefaultRetryDelay = 100 * time.Millisecond

	// schemaVersionKey tracks the logical data schema version consumed by
	// MigrateData. It is internal to the store.
	schemaVersionKey = "schema_version"
)

// Store wraps a Backend with JSON serialization, a retry policy for transient
// medium failures, and corruption handling. Values are encoded to JSON before
// write and decoded on read; a decode failure is terminal for that key.
type Store struct {
	backend Backend
	retries uint
	delay   time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithRetries overrides the retry budget (attempts = retries + 1).
func WithRetries(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.retries = uint(n)
		}
	}
}

// WithRetryDelay overrides the base backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.delay = d
		}
	}
}

// NewStore creates a Store over the given backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		retries: DefaultRetries,
		delay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withRetry runs fn under the store's retry policy: retries+1 attempts with
// linearly increasing backoff. Corruption and invalid-input failures are never
// retried; everything else is assumed transient. Exhaustion surfaces
// ErrMaxRetriesExceeded wrapping the last underlying error.
func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	err := retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(s.retries+1),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return s.delay * time.Duration(n+1)
		}),
		retry.RetryIf(func(err error) bool {
			return !nonRetriable(err)
		}),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}
	if nonRetriable(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrMaxRetriesExceeded, err)
}

// purgeCorrupted deletes a key whose value failed to decode. Best effort: the
// corruption error is surfaced to the caller either way.
func (s *Store) purgeCorrupted(ctx context.Context, key string, cause error) {
	log.Printf("[storage] WARN: purging corrupted key %q: %v", key, cause)
	if err := s.backend.Delete(ctx, key); err != nil {
		log.Printf("[storage] WARN: failed to purge corrupted key %q: %v", key, err)
	}
}

// Get reads and decodes the value stored under key. A nil result with nil
// error means the key is absent. A decode failure purges the key and returns
// ErrDataCorruption.
func Get[T any](ctx context.Context, s *Store, key string) (*T, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	var (
		raw   string
		found bool
	)
	err := s.withRetry(ctx, "get "+key, func() error {
		var readErr error
		raw, found, readErr = s.backend.Read(ctx, key)
		return readErr
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		s.purgeCorrupted(ctx, key, err)
		return nil, fmt.Errorf("key %q: %w: %v", key, ErrDataCorruption, err)
	}
	return &value, nil
}

// Set encodes value to JSON and writes it under key.
func Set[T any](ctx context.Context, s *Store, key string, value T) error {
	if key == "" {
		return ErrInvalidKey
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	return s.withRetry(ctx, "set "+key, func() error {
		return s.backend.Write(ctx, key, string(encoded))
	})
}

// GetMultiple reads several keys at once. Absent keys map to nil entries.
func GetMultiple[T any](ctx context.Context, s *Store, keys []string) (map[string]*T, error) {
	out := make(map[string]*T, len(keys))
	for _, key := range keys {
		value, err := Get[T](ctx, s, key)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// SetMultiple writes every entry of the map.
func SetMultiple[T any](ctx context.Context, s *Store, values map[string]T) error {
	for key, value := range values {
		if err := Set(ctx, s, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the value stored under key, if any.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.withRetry(ctx, "remove "+key, func() error {
		return s.backend.Delete(ctx, key)
	})
}

// Clear wipes the entire store.
func (s *Store) Clear(ctx context.Context) error {
	return s.withRetry(ctx, "clear", func() error {
		return s.backend.DeleteAll(ctx)
	})
}

// AllKeys lists every stored key.
func (s *Store) AllKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.withRetry(ctx, "list keys", func() error {
		var listErr error
		keys, listErr = s.backend.Keys(ctx)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// IsAvailable reports whether the underlying medium is reachable.
func (s *Store) IsAvailable(ctx context.Context) bool {
	return s.backend.Ping(ctx) == nil
}

// Info describes the current state of the store.
type Info struct {
	Available bool     `json:"available"`
	KeyCount  int      `json:"keyCount"`
	Keys      []string `json:"keys"`
}

// StorageInfo returns a snapshot of availability and stored keys.
func (s *Store) StorageInfo(ctx context.Context) (Info, error) {
	info := Info{Available: s.IsAvailable(ctx)}
	if !info.Available {
		return info, nil
	}
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return info, err
	}
	info.Keys = keys
	info.KeyCount = len(keys)
	return info, nil
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
