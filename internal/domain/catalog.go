package domain

import (
	"fmt"
	"strings"
)

// Categories is the fixed product taxonomy used by the catalog
var Categories = []string{
	"Fruit & Vegetables",
	"Dairy & Eggs",
	"Meat & Fish",
	"Bakery",
	"Food Cupboard",
	"Frozen",
	"Drinks",
	"Snacks & Sweets",
	"Household",
	"Health & Beauty",
	"Baby & Toddler",
	"Pet",
}

// IsKnownCategory reports whether category belongs to the taxonomy
func IsKnownCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ProductCatalogEntry is a single product known to the static catalog
type ProductCatalogEntry struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Catalog is an immutable, versioned snapshot of the product catalog.
// Callers must not modify Entries after construction.
type Catalog struct {
	Version string
	Entries []ProductCatalogEntry
}

// NewCatalog validates entries and returns a catalog snapshot.
// Every entry must carry an ID, a name and a known category; IDs must be unique.
// Keywords are lowercased, deduplicated, and extended with the lowercased name
// when the source omitted it.
func NewCatalog(version string, entries []ProductCatalogEntry) (*Catalog, error) {
	if strings.TrimSpace(version) == "" {
		return nil, fmt.Errorf("%w: catalog version is required", ErrInvalidCatalogEntry)
	}

	seen := make(map[string]bool, len(entries))
	normalized := make([]ProductCatalogEntry, 0, len(entries))

	for i, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		e.Name = strings.TrimSpace(e.Name)
		e.Category = strings.TrimSpace(e.Category)

		if e.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidCatalogEntry, i)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %q has no name", ErrInvalidCatalogEntry, e.ID)
		}
		if !IsKnownCategory(e.Category) {
			return nil, fmt.Errorf("%w: entry %q has unknown category %q", ErrInvalidCatalogEntry, e.ID, e.Category)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalogEntry, e.ID)
		}
		seen[e.ID] = true

		e.Keywords = normalizeKeywords(e.Name, e.Keywords)
		normalized = append(normalized, e)
	}

	return &Catalog{Version: version, Entries: normalized}, nil
}

// Len returns the number of entries in the catalog
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

func normalizeKeywords(name string, keywords []string) []string {
	out := make([]string, 0, len(keywords)+1)
	seen := make(map[string]bool, len(keywords)+1)

	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}

	for _, k := range keywords {
		add(k)
	}
	add(name)

	return out
}

// MatchResult is a scored catalog candidate for a query
type MatchResult struct {
	Entry *ProductCatalogEntry `json:"entry"`
	Score float64              `json:"score"` // 0-1
}
