// Package catalog loads the item catalog consumed by the detection pipeline.
//
// The catalog is external data: a JSON file listing every known item with its
// id, display name, rarity tier, and an optional icon image path. Items
// without an icon are valid catalog entries but cannot participate in
// template matching.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Item describes one catalog entry. The pipeline treats items as immutable
// input keyed by ID.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Rarity   Rarity `json:"rarity"`
	IconPath string `json:"icon,omitempty"`
}

// HasIcon reports whether the item carries an icon usable as a template.
func (i Item) HasIcon() bool { return i.IconPath != "" }

// Catalog is the full set of known items.
type Catalog struct {
	Items []Item `json:"items"`
}

// ByID returns the item with the given id, if present.
func (c *Catalog) ByID(id string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Load reads a catalog JSON file. Relative icon paths are resolved against
// the directory containing the catalog file.
//
// Duplicate item ids are rejected: the template store assumes ids are unique.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]struct{}, len(cat.Items))
	for i, it := range cat.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("catalog item %d has empty id", i)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", it.ID)
		}
		seen[it.ID] = struct{}{}

		if it.IconPath != "" && !filepath.IsAbs(it.IconPath) {
			cat.Items[i].IconPath = filepath.Join(dir, it.IconPath)
		}
	}

	return &cat, nil
}
