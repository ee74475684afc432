// Package diff computes the minimal change-set of an editing session and
// applies stored change-sets on top of inherited layers.
package diff

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Changes reports what an editing session touched.
type Changes interface {
	ModifiedPaths() []string
	ResetPaths() []string
	ModifiedRules() []string
	ResetRules() []string
}

// ValueSource exposes the explicit values of the editing layer.
type ValueSource interface {
	Lookup(path string) (schema.Value, bool)
}

// PartialLayer is the delta persisted for one editing layer: leaves to set,
// leaves to drop, rule entries to upsert and rule entries to drop.
type PartialLayer struct {
	Set          map[string]schema.Value
	Unset        []string
	Rules        []layer.Rule
	RemovedRules []string
}

// IsEmpty reports whether the partial changes nothing.
func (p PartialLayer) IsEmpty() bool {
	return len(p.Set) == 0 && len(p.Unset) == 0 && len(p.Rules) == 0 && len(p.RemovedRules) == 0
}

// Paths returns every leaf path the partial touches, sorted.
func (p PartialLayer) Paths() []string {
	out := slices.Clone(p.Unset)
	for path := range p.Set {
		out = append(out, path)
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// Compute builds the partial for a session. Only touched leaves and rules
// are included, never the full effective configuration. A touched leaf that
// is no longer explicit in values, such as a reset one, becomes an unset;
// a touched rule no longer held in rules becomes a removal.
func Compute(changes Changes, values ValueSource, rules []layer.Rule) PartialLayer {
	p := PartialLayer{Set: make(map[string]schema.Value)}

	touched := append(changes.ModifiedPaths(), changes.ResetPaths()...)
	sort.Strings(touched)
	for _, path := range slices.Compact(touched) {
		if v, ok := values.Lookup(path); ok {
			p.Set[path] = v
		} else {
			p.Unset = append(p.Unset, path)
		}
	}

	touchedRules := make(map[string]bool)
	for _, id := range changes.ModifiedRules() {
		touchedRules[id] = true
	}
	for _, id := range changes.ResetRules() {
		touchedRules[id] = true
	}
	held := make(map[string]bool, len(rules))
	for _, r := range rules {
		held[r.ID] = true
		if touchedRules[r.ID] {
			p.Rules = append(p.Rules, r)
		}
	}
	for id := range touchedRules {
		if !held[id] {
			p.RemovedRules = append(p.RemovedRules, id)
		}
	}
	sort.Strings(p.RemovedRules)
	return p
}

// ApplyLayer writes the partial into l in place.
func ApplyLayer(p PartialLayer, l *layer.Layer) {
	for _, path := range p.Unset {
		l.Unset(path)
	}
	for path, v := range p.Set {
		l.Set(path, v)
	}
	for _, id := range p.RemovedRules {
		l.RemoveRule(id)
	}
	for _, r := range p.Rules {
		l.SetRule(r)
	}
}

// Apply returns a stack where the innermost layer named target carries the
// partial. Document customizations and type or subtype default edits use the
// same algorithm; only target differs. The input stack is not modified.
func Apply(p PartialLayer, stack layer.Stack, target layer.Name) layer.Stack {
	l := stack.Innermost(target).Clone()
	if l == nil {
		l = layer.New(target, "")
	}
	ApplyLayer(p, l)
	return stack.Replace(l)
}

type partialJSON struct {
	Set          map[string]map[string]schema.Value `json:"set"`
	Unset        []string                           `json:"unset"`
	Rules        []layer.Rule                       `json:"rules"`
	RemovedRules []string                           `json:"removed_rules"`
}

// MarshalJSON encodes the partial with nested set values.
func (p PartialLayer) MarshalJSON() ([]byte, error) {
	out := partialJSON{
		Set:          layer.Nest(p.Set),
		Unset:        p.Unset,
		Rules:        p.Rules,
		RemovedRules: p.RemovedRules,
	}
	if out.Unset == nil {
		out.Unset = []string{}
	}
	if out.Rules == nil {
		out.Rules = []layer.Rule{}
	}
	if out.RemovedRules == nil {
		out.RemovedRules = []string{}
	}
	return json.Marshal(out)
}

// Decode builds a validated partial from request data: nested or flat set
// values, leaf paths to unset, and rule changes.
func Decode(s *schema.Schema, set map[string]any, unset []string, rules []layer.Rule, removed []string) (PartialLayer, error) {
	values, err := layer.DecodeValues(s, set)
	if err != nil {
		return PartialLayer{}, err
	}
	for _, path := range unset {
		if _, err := s.Field(path); err != nil {
			return PartialLayer{}, err
		}
	}
	for _, r := range rules {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Text) == "" {
			return PartialLayer{}, core.ErrValidation(core.CodeEmptyRuleText, "rule entries need an id and a text")
		}
	}
	return PartialLayer{
		Set:          values,
		Unset:        slices.Clone(unset),
		Rules:        slices.Clone(rules),
		RemovedRules: slices.Clone(removed),
	}, nil
}
