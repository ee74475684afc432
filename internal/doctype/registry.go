// Package doctype is the registry of built-in document types and subtypes
// and the configuration layers they contribute.
package doctype

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Type is a document type with its default configuration.
type Type struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Aliases     []string  `json:"-"`
	Subtypes    []Subtype `json:"subtypes"`

	config cfg
	rules  []layer.Rule
	layer  *layer.Layer
}

// Subtype refines a type with overrides.
type Subtype struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Parent string `json:"parent"`

	config cfg
	layer  *layer.Layer
}

// Registry indexes the built-in types. It is immutable once built.
type Registry struct {
	types    []Type
	byCode   map[string]int
	aliases  map[string]string
	subtypes map[string]Subtype
}

// NewRegistry builds the built-in registry, validating every layer against s.
func NewRegistry(s *schema.Schema) (*Registry, error) {
	r := &Registry{
		byCode:   make(map[string]int),
		aliases:  make(map[string]string),
		subtypes: make(map[string]Subtype),
	}
	for _, t := range builtinTypes {
		l, err := layer.Decode(s, layer.Type, t.Name, t.config, t.rules)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t.Code, err)
		}
		t.layer = l
		t.Subtypes = slices.Clone(t.Subtypes)
		for i := range t.Subtypes {
			st := &t.Subtypes[i]
			st.Parent = t.Code
			sl, err := layer.Decode(s, layer.Subtype, st.Name, st.config, nil)
			if err != nil {
				return nil, fmt.Errorf("subtype %s: %w", st.Code, err)
			}
			st.layer = sl
			r.subtypes[st.Code] = *st
		}
		r.byCode[t.Code] = len(r.types)
		for _, a := range t.Aliases {
			r.aliases[a] = t.Code
		}
		r.types = append(r.types, t)
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry for the correction schema.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(schema.Correction())
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Normalize maps a type code or long name to its code. Unknown input is
// returned upper-cased.
func (r *Registry) Normalize(code string) string {
	code = strings.TrimSpace(code)
	if c, ok := r.aliases[strings.ToLower(code)]; ok {
		return c
	}
	return strings.ToUpper(code)
}

// Types returns every type in declaration order.
func (r *Registry) Types() []Type {
	return slices.Clone(r.types)
}

// Type looks up a type by code or long name.
func (r *Registry) Type(code string) (Type, bool) {
	i, ok := r.byCode[r.Normalize(code)]
	if !ok {
		return Type{}, false
	}
	return r.types[i], true
}

// Subtype looks up a subtype by code.
func (r *Registry) Subtype(code string) (Subtype, bool) {
	st, ok := r.subtypes[strings.ToUpper(strings.TrimSpace(code))]
	return st, ok
}

// Lookup resolves a type and optional subtype. An unknown type falls back to
// fiction and an unknown subtype is ignored; a known subtype of another type
// is an error.
func (r *Registry) Lookup(typeCode, subtypeCode string) (Type, *Subtype, error) {
	t, ok := r.Type(typeCode)
	if !ok {
		t, _ = r.Type(FallbackCode)
	}
	if subtypeCode == "" {
		return t, nil, nil
	}
	st, ok := r.Subtype(subtypeCode)
	if !ok {
		return t, nil, nil
	}
	if st.Parent != t.Code {
		return Type{}, nil, core.ErrValidation(core.CodeInvalidScope,
			fmt.Sprintf("subtype %s belongs to %s, not %s", st.Code, st.Parent, t.Code))
	}
	return t, &st, nil
}

// Layer returns a copy of the type's built-in layer.
func (t Type) Layer() *layer.Layer {
	return t.layer.Clone()
}

// Layer returns a copy of the subtype's built-in layer.
func (st Subtype) Layer() *layer.Layer {
	return st.layer.Clone()
}

// Match is a search hit.
type Match struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
	Score  int    `json:"score"`
}

// Search fuzzy-matches query against type and subtype codes and names.
// An empty query lists everything.
func (r *Registry) Search(query string) []Match {
	var candidates []Match
	for _, t := range r.types {
		candidates = append(candidates, Match{Code: t.Code, Name: t.Name})
		for _, st := range t.Subtypes {
			candidates = append(candidates, Match{Code: st.Code, Name: st.Name, Parent: t.Code})
		}
	}
	if strings.TrimSpace(query) == "" {
		return candidates
	}

	words := make([]string, len(candidates))
	for i, c := range candidates {
		words[i] = c.Code + " " + c.Name
	}
	matches := fuzzy.Find(query, words)
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		c := candidates[m.Index]
		c.Score = m.Score
		out = append(out, c)
	}
	return out
}
