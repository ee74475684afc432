// Package layer holds the named configuration layers that are folded into an
// effective configuration, and the ordered stack they live in.
package layer

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Name identifies a layer slot. Names are totally ordered by specificity.
type Name uint8

const (
	Global Name = iota
	Type
	Subtype
	Custom
)

var names = [...]string{"global", "type", "subtype", "custom"}

func (n Name) String() string {
	if int(n) < len(names) {
		return names[n]
	}
	return fmt.Sprintf("layer(%d)", n)
}

// ParseName parses a layer name.
func ParseName(s string) (Name, error) {
	for i, n := range names {
		if n == s {
			return Name(i), nil
		}
	}
	return 0, core.ErrValidation(core.CodeInvalidLayer, fmt.Sprintf("unknown layer %q", s))
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Rule is an editorial rule entry as stored in one layer. In an inner layer,
// an entry whose ID matches an outer rule is a patch of that rule.
type Rule struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Text    string `json:"text" yaml:"text" toml:"text"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Layer is one named source of leaf values and editorial rules. A layer
// contributes a leaf only if it explicitly sets it.
type Layer struct {
	Name       Name
	SourceName string

	values map[string]schema.Value
	rules  []Rule
}

// New creates an empty layer.
func New(name Name, sourceName string) *Layer {
	return &Layer{
		Name:       name,
		SourceName: sourceName,
		values:     make(map[string]schema.Value),
	}
}

// Set stores an explicit value for path. Callers validate against the schema.
func (l *Layer) Set(path string, v schema.Value) {
	if l.values == nil {
		l.values = make(map[string]schema.Value)
	}
	l.values[path] = v.Clone()
}

// SetAll stores every entry of values.
func (l *Layer) SetAll(values map[string]schema.Value) {
	for p, v := range values {
		l.Set(p, v)
	}
}

// Unset removes the explicit value for path. It reports whether one existed.
func (l *Layer) Unset(path string) bool {
	if _, ok := l.values[path]; !ok {
		return false
	}
	delete(l.values, path)
	return true
}

// Lookup returns the explicit value for path.
func (l *Layer) Lookup(path string) (schema.Value, bool) {
	if l == nil {
		return schema.Value{}, false
	}
	v, ok := l.values[path]
	if !ok {
		return schema.Value{}, false
	}
	return v.Clone(), true
}

// Has reports whether the layer explicitly sets path.
func (l *Layer) Has(path string) bool {
	if l == nil {
		return false
	}
	_, ok := l.values[path]
	return ok
}

// Paths returns the explicitly set paths, sorted.
func (l *Layer) Paths() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.values))
	for p := range l.values {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Values returns a copy of the explicit values.
func (l *Layer) Values() map[string]schema.Value {
	if l == nil {
		return map[string]schema.Value{}
	}
	out := make(map[string]schema.Value, len(l.values))
	for p, v := range l.values {
		out[p] = v.Clone()
	}
	return out
}

// Len returns the number of explicit values.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.values)
}

// IsEmpty reports whether the layer sets nothing.
func (l *Layer) IsEmpty() bool {
	return l == nil || (len(l.values) == 0 && len(l.rules) == 0)
}

// Rules returns a copy of the rule entries in order.
func (l *Layer) Rules() []Rule {
	if l == nil {
		return nil
	}
	return slices.Clone(l.rules)
}

// Rule returns the entry with id.
func (l *Layer) Rule(id string) (Rule, bool) {
	if l == nil {
		return Rule{}, false
	}
	for _, r := range l.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// SetRule replaces the entry with the same id in place, or appends it.
func (l *Layer) SetRule(r Rule) {
	for i := range l.rules {
		if l.rules[i].ID == r.ID {
			l.rules[i] = r
			return
		}
	}
	l.rules = append(l.rules, r)
}

// SetRules replaces every rule entry.
func (l *Layer) SetRules(rules []Rule) {
	l.rules = slices.Clone(rules)
}

// RemoveRule deletes the entry with id. It reports whether one existed.
func (l *Layer) RemoveRule(id string) bool {
	for i, r := range l.rules {
		if r.ID == id {
			l.rules = slices.Delete(l.rules, i, i+1)
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	return &Layer{
		Name:       l.Name,
		SourceName: l.SourceName,
		values:     l.Values(),
		rules:      slices.Clone(l.rules),
	}
}

// Equal reports whether both layers carry the same name, values and rules.
func (l *Layer) Equal(o *Layer) bool {
	if l == nil || o == nil {
		return l.IsEmpty() && o.IsEmpty()
	}
	if l.Name != o.Name || len(l.values) != len(o.values) || !slices.Equal(l.rules, o.rules) {
		return false
	}
	for p, v := range l.values {
		ov, ok := o.values[p]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Validate checks every explicit value against s.
func (l *Layer) Validate(s *schema.Schema) error {
	for _, p := range l.Paths() {
		if err := s.Validate(p, l.values[p]); err != nil {
			return err
		}
	}
	return nil
}
