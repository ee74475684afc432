package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// layerData is the stored form of an editable layer. Explicit nulls are
// listed apart because TOML has no null.
type layerData struct {
	Values map[string]any `json:"values,omitempty" yaml:"values,omitempty" toml:"values,omitempty"`
	Nulls  []string       `json:"nulls,omitempty" yaml:"nulls,omitempty" toml:"nulls,omitempty"`
	Rules  []layer.Rule   `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
}

func encodeLayer(l *layer.Layer) layerData {
	var data layerData
	if l == nil {
		return data
	}
	values := l.Values()
	for path, v := range values {
		if v.IsNull() {
			data.Nulls = append(data.Nulls, path)
			delete(values, path)
		}
	}
	sort.Strings(data.Nulls)
	if len(values) > 0 {
		data.Values = layer.Plain(values)
	}
	data.Rules = l.Rules()
	return data
}

func decodeLayer(s *schema.Schema, name layer.Name, data layerData) (*layer.Layer, error) {
	values, err := layer.DecodeValues(s, data.Values)
	if err != nil {
		return nil, err
	}
	for _, path := range data.Nulls {
		v, err := s.Coerce(path, nil)
		if err != nil {
			return nil, err
		}
		values[path] = v
	}
	l := layer.New(name, "")
	l.SetAll(values)
	l.SetRules(data.Rules)
	return l, nil
}

func marshalLayerJSON(l *layer.Layer) (string, error) {
	b, err := json.Marshal(encodeLayer(l))
	if err != nil {
		return "", fmt.Errorf("marshaling layer: %w", err)
	}
	return string(b), nil
}

func unmarshalLayerJSON(s *schema.Schema, name layer.Name, raw string) (*layer.Layer, error) {
	var data layerData
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("unmarshaling layer: %w", err)
	}
	return decodeLayer(s, name, data)
}
