package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
)

// Migration transforms the full stored dataset from one logical schema version
// to the next. Migrate receives every stored key mapped to its raw encoded
// value (the version marker excluded) and returns the replacement dataset.
type Migration struct {
	Version int
	Migrate func(data map[string]json.RawMessage) (map[string]json.RawMessage, error)
}

// SchemaVersion returns the stored logical schema version, defaulting to 0
// when none has been recorded yet.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	version, err := Get[int](ctx, s, schemaVersionKey)
	if err != nil {
		return 0, err
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}

// MigrateData applies every migration whose version exceeds the stored schema
// version, in ascending order, persisting the transformed dataset and the new
// version after each step. A failing step halts the chain: earlier steps stay
// applied and the stored version is not advanced past the last success.
func (s *Store) MigrateData(ctx context.Context, migrations []Migration) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	data, err := s.snapshotData(ctx)
	if err != nil {
		return fmt.Errorf("snapshot data for migration: %w", err)
	}

	for _, m := range pending {
		log.Printf("[storage] migrating data schema %d -> %d", current, m.Version)
		migrated, err := m.Migrate(data)
		if err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrMigration, m.Version, err)
		}
		if err := s.writeDataset(ctx, data, migrated); err != nil {
			return fmt.Errorf("%w: persist step %d: %v", ErrMigration, m.Version, err)
		}
		if err := Set(ctx, s, schemaVersionKey, m.Version); err != nil {
			return fmt.Errorf("%w: record version %d: %v", ErrMigration, m.Version, err)
		}
		data = migrated
		current = m.Version
	}
	return nil
}

// snapshotData reads the full dataset as raw encoded values, excluding the
// version marker itself.
func (s *Store) snapshotData(ctx context.Context) (map[string]json.RawMessage, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}
	data := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if key == schemaVersionKey {
			continue
		}
		var raw string
		var found bool
		err := s.withRetry(ctx, "get "+key, func() error {
			var readErr error
			raw, found, readErr = s.backend.Read(ctx, key)
			return readErr
		})
		if err != nil {
			return nil, err
		}
		if found {
			data[key] = json.RawMessage(raw)
		}
	}
	return data, nil
}

// writeDataset persists the new dataset and deletes keys the migration
// dropped. Values are already encoded, so they bypass Set's marshalling.
func (s *Store) writeDataset(ctx context.Context, previous, next map[string]json.RawMessage) error {
	for key, raw := range next {
		value := string(raw)
		err := s.withRetry(ctx, "set "+key, func() error {
			return s.backend.Write(ctx, key, value)
		})
		if err != nil {
			return err
		}
	}
	for key := range previous {
		if _, kept := next[key]; !kept {
			if err := s.Remove(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}
