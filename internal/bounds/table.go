// Package bounds derives per-variable validity ranges from model
// documentation.
//
// A model documents each variable with a unit string that may end in a
// bracketed range, e.g. "people [0, ?]". [Build] turns that documentation into
// a [Table] of {name, comment, unit, min, max} entries that the harness range
// checker consumes.
package bounds

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/simcheck/internal/simerr"
)

// Entry is the validity range of one variable.
type Entry struct {
	Name    string  `json:"name"`
	Comment string  `json:"comment"`
	Unit    string  `json:"unit"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Unbounded reports whether neither side of the entry constrains values.
func (e Entry) Unbounded() bool {
	return math.IsInf(e.Min, -1) && math.IsInf(e.Max, 1)
}

// Table maps variable names to entries. Insertion order is preserved so
// exports and reports are deterministic.
//
// Names are compared after NFC normalization and trimming, so "Stock" typed
// with a combining accent matches its precomposed spelling.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Key returns the normalized lookup key for a variable name.
func Key(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Add inserts an entry. The entry keeps its name as written; only the index
// uses the normalized key. Duplicate names and entries with Min > Max are
// rejected.
func (t *Table) Add(e Entry) error {
	key := Key(e.Name)
	if key == "" {
		return simerr.Parse("bounds.Table.Add", "variable name is empty")
	}
	if _, dup := t.index[key]; dup {
		return simerr.Parse("bounds.Table.Add", "duplicate variable %q", e.Name)
	}
	if math.IsNaN(e.Min) || math.IsNaN(e.Max) {
		return simerr.Parse("bounds.Table.Add", "variable %q: bound is NaN", e.Name)
	}
	if e.Min > e.Max {
		return simerr.Parse("bounds.Table.Add",
			"variable %q: min %s is greater than max %s", e.Name, FormatBound(e.Min), FormatBound(e.Max))
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Lookup returns the entry for name.
func (t *Table) Lookup(name string) (Entry, bool) {
	i, ok := t.index[Key(name)]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of all entries in insertion order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
