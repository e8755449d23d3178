package collection

import (
	"encoding/json"
	"fmt"

	"watchlog/internal/storage"
)

// DataMigrations lists the logical storage migrations this build knows about.
// The store applies whichever ones exceed the installation's recorded schema
// version.
var DataMigrations = []storage.Migration{
	{Version: 1, Migrate: migrateLegacyStatusValues},
}

// migrateLegacyStatusValues rewrites the pre-1.0 "plan_to_watch" partition and
// status value to "will_watch" inside the collections record.
func migrateLegacyStatusValues(data map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	raw, ok := data[keyCollections]
	if !ok {
		return data, nil
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode collections record: %w", err)
	}

	if legacy, ok := record["plan_to_watch"]; ok {
		record["will_watch"] = legacy
		delete(record, "plan_to_watch")
	}

	for key, partitionRaw := range record {
		var items []map[string]any
		if err := json.Unmarshal(partitionRaw, &items); err != nil {
			continue
		}
		changed := false
		for _, item := range items {
			if item["status"] == "plan_to_watch" {
				item["status"] = "will_watch"
				changed = true
			}
		}
		if !changed {
			continue
		}
		encoded, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("encode partition %q: %w", key, err)
		}
		record[key] = encoded
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode collections record: %w", err)
	}
	data[keyCollections] = encoded
	return data, nil
}
