// Package devseed loads JSON seed files used to pre-populate mock jdb stores
// in development and testing.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry is one seeded key/value pair.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Load reads a seed file holding a JSON array of entries. Every entry must
// name a non-empty key; values may be empty strings.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: parse seed file %s: %w", path, err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("devseed: seed entry %d missing key", i)
		}
	}
	return entries, nil
}
