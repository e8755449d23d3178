package storage

import "errors"

var (
	// ErrDataCorruption marks a stored value that failed to decode. The
	// offending key is purged as a side effect and the error is never retried.
	ErrDataCorruption = errors.New("stored value is corrupted")
	// ErrMaxRetriesExceeded wraps the last underlying error once the retry
	// budget for an operation is exhausted.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrInvalidKey rejects empty storage keys before any backend call.
	ErrInvalidKey = errors.New("storage key must not be empty")
	// ErrInvalidBackup rejects a restore payload that failed structural
	// validation. Existing data is left untouched.
	ErrInvalidBackup = errors.New("backup payload failed validation")
	// ErrMigration marks a failed data migration step. Earlier steps remain
	// applied and the stored schema version is not advanced past them.
	ErrMigration = errors.New("data migration failed")
	// ErrLocked indicates another process holds the data directory.
	ErrLocked = errors.New("data directory is locked by another instance")
)

// nonRetriable reports whether an error must not be retried: corrupted data
// stays corrupted and invalid input stays invalid.
func nonRetriable(err error) bool {
	return errors.Is(err, ErrDataCorruption) || errors.Is(err, ErrInvalidKey)
}
