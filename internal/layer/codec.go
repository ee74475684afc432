package layer

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Nest groups flat leaf values by category: {category: {field: value}}.
func Nest(values map[string]schema.Value) map[string]map[string]schema.Value {
	out := make(map[string]map[string]schema.Value)
	for path, v := range values {
		cat, field, ok := schema.SplitPath(path)
		if !ok {
			continue
		}
		if out[cat] == nil {
			out[cat] = make(map[string]schema.Value)
		}
		out[cat][field] = v.Clone()
	}
	return out
}

// Plain is like Nest but unwraps values into plain Go data, for encoders
// that do not know about schema.Value.
func Plain(values map[string]schema.Value) map[string]any {
	out := make(map[string]any)
	for cat, fields := range Nest(values) {
		m := make(map[string]any, len(fields))
		for field, v := range fields {
			m[field] = v.Any()
		}
		out[cat] = m
	}
	return out
}

// DecodeValues converts decoded data into validated leaf values. Keys may be
// categories holding a field map, or flat "category.field" paths.
func DecodeValues(s *schema.Schema, data map[string]any) (map[string]schema.Value, error) {
	out := make(map[string]schema.Value)
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := data[key]
		if _, _, flat := schema.SplitPath(key); flat {
			v, err := s.Coerce(key, raw)
			if err != nil {
				return nil, err
			}
			out[key] = v
			continue
		}
		fields, ok := asMap(raw)
		if !ok {
			return nil, core.ErrValidation(core.CodeUnknownPath,
				fmt.Sprintf("category %q must hold a field map", key)).WithDetail("path", key)
		}
		for field, fieldRaw := range fields {
			path := key + "." + field
			v, err := s.Coerce(path, fieldRaw)
			if err != nil {
				return nil, err
			}
			out[path] = v
		}
	}
	return out, nil
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string]schema.Value:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	return nil, false
}

// Decode builds a validated layer from nested value data and rule entries.
func Decode(s *schema.Schema, name Name, sourceName string, data map[string]any, rules []Rule) (*Layer, error) {
	values, err := DecodeValues(s, data)
	if err != nil {
		return nil, err
	}
	l := New(name, sourceName)
	l.values = values
	l.SetRules(rules)
	return l, nil
}

type layerJSON struct {
	Name       Name                               `json:"name"`
	SourceName string                             `json:"source_name,omitempty"`
	Values     map[string]map[string]schema.Value `json:"values"`
	Rules      []Rule                             `json:"rules"`
}

// MarshalJSON encodes the layer with nested values.
func (l *Layer) MarshalJSON() ([]byte, error) {
	rules := l.Rules()
	if rules == nil {
		rules = []Rule{}
	}
	return json.Marshal(layerJSON{
		Name:       l.Name,
		SourceName: l.SourceName,
		Values:     Nest(l.values),
		Rules:      rules,
	})
}
