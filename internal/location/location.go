// Package location serves the read-only province → district → commune →
// villages hierarchy used by cascading dropdowns. The data is an opaque
// lookup table loaded from a JSON file at startup; nothing here owns or
// mutates it.
package location

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Hierarchy maps province → district → commune → villages.
type Hierarchy map[string]map[string]map[string][]string

// Index wraps the hierarchy with lookup helpers.
type Index struct {
	data Hierarchy
}

// Load reads the hierarchy file. A missing file yields an empty index
// rather than an error: the dropdowns simply stay empty.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{data: Hierarchy{}}, nil
		}
		return nil, fmt.Errorf("read locations: %w", err)
	}

	var data Hierarchy
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse locations: %w", err)
	}
	return &Index{data: data}, nil
}

// All returns the full hierarchy for clients that cache it whole.
func (i *Index) All() Hierarchy {
	return i.data
}

// Provinces lists the known provinces, sorted.
func (i *Index) Provinces() []string {
	return sortedKeys(i.data)
}

// Districts lists the districts of a province, sorted.
func (i *Index) Districts(province string) []string {
	return sortedKeys(i.data[province])
}

// Communes lists the communes of a district, sorted.
func (i *Index) Communes(province, district string) []string {
	return sortedKeys(i.data[province][district])
}

// Villages lists the villages of a commune.
func (i *Index) Villages(province, district, commune string) []string {
	return i.data[province][district][commune]
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
