// Package catalog loads the ordered list of colleges a prediction is reported
// for. Sources can be local CSV, JSON or YAML files, or an HTTP endpoint.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable wraps every failure to load a catalog.
var ErrUnavailable = errors.New("catalog unavailable")

// Entry is one college.
type Entry struct {
	ID       string            `json:"collegeID" yaml:"collegeID"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Catalog is an ordered, read-only list of colleges.
type Catalog struct {
	entries []Entry
	ids     []string
}

// New validates entries and builds a catalog that keeps their order. IDs are
// trimmed and must be non-blank and unique.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		ids:     make([]string, 0, len(entries)),
	}
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d has a blank collegeID", i+1)
		}
		if prev, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("collegeID %q appears at entries %d and %d", e.ID, prev, i+1)
		}
		seen[e.ID] = i + 1
		c.entries = append(c.entries, e)
		c.ids = append(c.ids, e.ID)
	}
	return c, nil
}

// IDs returns the college identifiers in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.ids...)
}

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of colleges.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Lookup finds an entry by ID.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
