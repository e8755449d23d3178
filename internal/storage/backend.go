package storage

import "context"

//go:generate mockgen -source=backend.go -destination=mocks/backend.go -package=mocks

// Backend is the raw durable medium underneath the Store: a flat mapping from
// string key to encoded string value. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Read returns the encoded value for key. ok is false when the key is
	// absent, which is not an error.
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	// Ping reports whether the medium is reachable.
	Ping(ctx context.Context) error
	Close() error
}
