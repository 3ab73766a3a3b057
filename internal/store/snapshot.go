package store

import (
	"slices"
	"time"

	"shoplist/internal/core"
)

// StorageKey is the namespace the snapshot is persisted under.
const StorageKey = "shopping-list-storage"

// DefaultCategories seeds the category set on first run.
var DefaultCategories = []string{"Groceries", "Electronics", "Clothing", "Health", "Home", "Other"}

// Snapshot is the persisted subset of the store state. Subscribers receive
// their own copy and may keep it.
type Snapshot struct {
	Items      []core.Item `json:"items"`
	Categories []string    `json:"categories"`
	DarkMode   bool        `json:"darkMode"`
	Filter     core.Filter `json:"filter"`
}

// DefaultSnapshot is the state of a fresh install.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Items:      []core.Item{},
		Categories: slices.Clone(DefaultCategories),
		DarkMode:   true,
		Filter:     core.DefaultFilter(),
	}
}

func (s Snapshot) clone() Snapshot {
	s.Items = cloneItems(s.Items)
	s.Categories = slices.Clone(s.Categories)
	if s.Categories == nil {
		s.Categories = []string{}
	}
	return s
}

func cloneItems(items []core.Item) []core.Item {
	out := make([]core.Item, len(items))
	copy(out, items)
	return out
}

// ExportPayload is the document written by the JSON export.
type ExportPayload struct {
	Items      []core.Item `json:"items"`
	Categories []string    `json:"categories"`
	ExportDate time.Time   `json:"exportDate"`
}

// ImportPayload is an export document read back in. A nil Items slice
// means the document had no items array and must be rejected; a nil
// Categories slice keeps the current categories.
type ImportPayload struct {
	Items      []core.Item `json:"items"`
	Categories []string    `json:"categories,omitempty"`
}
