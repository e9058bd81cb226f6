// Package catalog holds the static tables of known downloadable assets,
// keyed by display name. The tables ship as embedded JSON and are validated
// once at load time; they are never mutated at runtime.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
)

// Asset categories. The category decides which WebUI subdirectory a
// download lands in.
const (
	CategoryModel      = "model"
	CategoryVAE        = "vae"
	CategoryLoRA       = "lora"
	CategoryControlNet = "control"
	CategoryEmbedding  = "embed"
	CategoryExtension  = "extension"
)

//go:embed data/*.json
var embeddedTables embed.FS

var tableFiles = map[string]string{
	CategoryModel:      "models.json",
	CategoryVAE:        "vae.json",
	CategoryLoRA:       "loras.json",
	CategoryControlNet: "controlnet.json",
	CategoryEmbedding:  "embeddings.json",
	CategoryExtension:  "extensions.json",
}

// Entry identifies one downloadable asset.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	// Filename overrides the name inferred from the URL path when set
	Filename   string `json:"filename,omitempty"`
	Inpainting bool   `json:"inpainting,omitempty"`
}

// Table is one category's ordered name -> entry mapping. Entry order follows
// the data file; numeric selections index into that order 1-based.
type Table struct {
	Category string
	Entries  []Entry
	byName   map[string]*Entry
}

type Catalog struct {
	tables map[string]*Table
}

// Load parses and validates every embedded table. It errors on a malformed
// table rather than degrading: a bad catalog is a packaging defect, not a
// user-input problem.
func Load() (*Catalog, error) {
	c := &Catalog{tables: make(map[string]*Table)}
	for category, file := range tableFiles {
		data, err := embeddedTables.ReadFile(path.Join("data", file))
		if err != nil {
			return nil, fmt.Errorf("catalog table %s: %w", category, err)
		}
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("catalog table %s: %w", category, err)
		}
		table := &Table{
			Category: category,
			Entries:  entries,
			byName:   make(map[string]*Entry, len(entries)),
		}
		for i := range entries {
			e := &entries[i]
			if e.Name == "" || e.URL == "" {
				return nil, fmt.Errorf("catalog table %s: entry %d missing name or url", category, i)
			}
			if _, dup := table.byName[e.Name]; dup {
				return nil, fmt.Errorf("catalog table %s: duplicate entry %q", category, e.Name)
			}
			table.byName[e.Name] = e
		}
		c.tables[category] = table
	}
	return c, nil
}

func (c *Catalog) Categories() []string {
	retv := make([]string, 0, len(c.tables))
	for k := range c.tables {
		retv = append(retv, k)
	}
	sort.Strings(retv)
	return retv
}

func (c *Catalog) Table(category string) (*Table, bool) {
	t, ok := c.tables[category]
	return t, ok
}

// Lookup finds a single entry by display name.
func (c *Catalog) Lookup(category, name string) (*Entry, bool) {
	t, ok := c.tables[category]
	if !ok {
		return nil, false
	}
	e, ok := t.byName[name]
	return e, ok
}

// Names returns the table's display names in data-file order.
func (t *Table) Names() []string {
	retv := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		retv[i] = e.Name
	}
	return retv
}

// At returns the entry at a 1-based index, following data-file order.
func (t *Table) At(index int) (*Entry, bool) {
	if index < 1 || index > len(t.Entries) {
		return nil, false
	}
	return &t.Entries[index-1], true
}

func (t *Table) Len() int {
	return len(t.Entries)
}
