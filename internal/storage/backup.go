package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Backup is a self-describing snapshot of the full store.
type Backup struct {
	Timestamp     time.Time                  `json:"timestamp"`
	SchemaVersion int                        `json:"schemaVersion"`
	Data          map[string]json.RawMessage `json:"data"`
}

// CreateBackup serializes the complete store into one blob.
func (s *Store) CreateBackup(ctx context.Context) ([]byte, error) {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	data, err := s.snapshotData(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot data: %w", err)
	}
	backup := Backup{
		Timestamp:     time.Now().UTC(),
		SchemaVersion: version,
		Data:          data,
	}
	blob, err := json.Marshal(backup)
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return blob, nil
}

// RestoreFromBackup replaces the entire store contents with the snapshot in
// blob. Validation happens before anything is cleared: a malformed blob leaves
// existing data untouched.
func (s *Store) RestoreFromBackup(ctx context.Context, blob []byte) error {
	var backup Backup
	if err := json.Unmarshal(blob, &backup); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if backup.Data == nil {
		return fmt.Errorf("%w: missing data map", ErrInvalidBackup)
	}

	if err := s.Clear(ctx); err != nil {
		return fmt.Errorf("clear before restore: %w", err)
	}
	if err := s.writeDataset(ctx, nil, backup.Data); err != nil {
		return fmt.Errorf("restore data: %w", err)
	}
	if backup.SchemaVersion > 0 {
		if err := Set(ctx, s, schemaVersionKey, backup.SchemaVersion); err != nil {
			return fmt.Errorf("restore schema version: %w", err)
		}
	}
	return nil
}
