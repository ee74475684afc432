// Package resolver folds a layer stack into an immutable effective
// configuration with per-leaf provenance.
package resolver

import (
	"encoding/json"

	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// DefaultSourceName is the display name of values coming from schema defaults.
const DefaultSourceName = "Por defecto"

// Provenance records which layer supplied a leaf's value. Implicit is set
// when no layer defined the leaf and the schema default was used.
type Provenance struct {
	Layer      layer.Name `json:"layer"`
	SourceName string     `json:"source_name,omitempty"`
	Implicit   bool       `json:"implicit,omitempty"`
}

// Entry is one resolved leaf.
type Entry struct {
	Path       string       `json:"path"`
	Value      schema.Value `json:"value"`
	Provenance Provenance   `json:"provenance"`
}

// Resolve computes the effective configuration of stack. For each leaf, the
// most specific layer that explicitly sets it wins; otherwise the schema
// default applies with implicit global provenance. Nil layers are skipped.
func Resolve(s *schema.Schema, stack layer.Stack) *Snapshot {
	paths := s.Paths()
	snap := &Snapshot{
		schema:     s,
		values:     make(map[string]schema.Value, len(paths)),
		provenance: make(map[string]Provenance, len(paths)),
	}

	for _, path := range paths {
		found := false
		for i := len(stack) - 1; i >= 0; i-- {
			l := stack[i]
			if l == nil {
				continue
			}
			if v, ok := l.Lookup(path); ok {
				snap.values[path] = v
				snap.provenance[path] = Provenance{Layer: l.Name, SourceName: l.SourceName}
				found = true
				break
			}
		}
		if !found {
			def, _ := s.Default(path)
			snap.values[path] = def
			snap.provenance[path] = Provenance{Layer: layer.Global, SourceName: DefaultSourceName, Implicit: true}
		}
	}
	return snap
}

// Snapshot is an immutable effective configuration. Accessors return copies.
type Snapshot struct {
	schema     *schema.Schema
	values     map[string]schema.Value
	provenance map[string]Provenance
}

// Schema returns the schema the snapshot was resolved against.
func (s *Snapshot) Schema() *schema.Schema {
	return s.schema
}

// Value returns the effective value of path.
func (s *Snapshot) Value(path string) (schema.Value, bool) {
	v, ok := s.values[path]
	if !ok {
		return schema.Value{}, false
	}
	return v.Clone(), true
}

// Provenance returns which layer supplied path.
func (s *Snapshot) Provenance(path string) (Provenance, bool) {
	p, ok := s.provenance[path]
	return p, ok
}

// Paths returns the resolved paths in schema order.
func (s *Snapshot) Paths() []string {
	return s.schema.Paths()
}

// Values returns a copy of every effective value.
func (s *Snapshot) Values() map[string]schema.Value {
	out := make(map[string]schema.Value, len(s.values))
	for p, v := range s.values {
		out[p] = v.Clone()
	}
	return out
}

// ProvenanceMap returns a copy of the provenance of every leaf.
func (s *Snapshot) ProvenanceMap() map[string]Provenance {
	out := make(map[string]Provenance, len(s.provenance))
	for p, v := range s.provenance {
		out[p] = v
	}
	return out
}

// Entries returns every leaf in schema order.
func (s *Snapshot) Entries() []Entry {
	paths := s.schema.Paths()
	out := make([]Entry, 0, len(paths))
	for _, p := range paths {
		out = append(out, Entry{Path: p, Value: s.values[p].Clone(), Provenance: s.provenance[p]})
	}
	return out
}

// Nested returns values grouped by category.
func (s *Snapshot) Nested() map[string]map[string]schema.Value {
	return layer.Nest(s.values)
}

// Category returns the values of one category keyed by field name.
func (s *Snapshot) Category(category string) map[string]schema.Value {
	return s.Nested()[category]
}

// Equal compares values only; provenance is display data.
func (s *Snapshot) Equal(o *Snapshot) bool {
	return len(s.Diff(o)) == 0
}

// Diff returns the paths whose values differ between s and o, in schema order.
func (s *Snapshot) Diff(o *Snapshot) []string {
	var out []string
	for _, p := range s.schema.Paths() {
		a, okA := s.values[p]
		b, okB := o.values[p]
		if okA != okB || !a.Equal(b) {
			out = append(out, p)
		}
	}
	return out
}

type snapshotJSON struct {
	Values     map[string]map[string]schema.Value `json:"values"`
	Provenance map[string]Provenance              `json:"provenance"`
}

// MarshalJSON encodes nested values plus flat provenance.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Values:     s.Nested(),
		Provenance: s.ProvenanceMap(),
	})
}
