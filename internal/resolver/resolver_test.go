package resolver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

func TestResolve_MostSpecificWins(t *testing.T) {
	s := schema.Correction()

	typ := layer.New(layer.Type, "Novela")
	typ.Set("repetition.min_distance", schema.Int(60))
	custom := layer.New(layer.Custom, "doc-1")
	custom.Set("repetition.min_distance", schema.Int(35))

	snap := Resolve(s, layer.NewStack(typ, nil, custom))

	v, ok := snap.Value("repetition.min_distance")
	require.True(t, ok)
	assert.True(t, v.Equal(schema.Int(35)))
	prov, _ := snap.Provenance("repetition.min_distance")
	assert.Equal(t, Provenance{Layer: layer.Custom, SourceName: "doc-1"}, prov)

	snap = Resolve(s, layer.NewStack(typ))
	v, _ = snap.Value("repetition.min_distance")
	assert.True(t, v.Equal(schema.Int(60)))
	prov, _ = snap.Provenance("repetition.min_distance")
	assert.Equal(t, layer.Type, prov.Layer)
	assert.Equal(t, "Novela", prov.SourceName)
}

func TestResolve_DefaultsAreImplicitGlobal(t *testing.T) {
	snap := Resolve(schema.Correction(), nil)

	v, _ := snap.Value("repetition.min_distance")
	assert.True(t, v.Equal(schema.Int(50)))
	prov, _ := snap.Provenance("repetition.min_distance")
	assert.Equal(t, Provenance{Layer: layer.Global, SourceName: DefaultSourceName, Implicit: true}, prov)
}

func TestResolve_ExplicitNullShadowsOuterValue(t *testing.T) {
	s := schema.Correction()
	typ := layer.New(layer.Type, "Técnico")
	typ.Set("sentence.max_length_words", schema.Int(25))
	sub := layer.New(layer.Subtype, "Software")
	sub.Set("sentence.max_length_words", schema.Null())

	snap := Resolve(s, layer.NewStack(typ, sub))
	v, _ := snap.Value("sentence.max_length_words")
	assert.True(t, v.IsNull())
	prov, _ := snap.Provenance("sentence.max_length_words")
	assert.Equal(t, layer.Subtype, prov.Layer)
	assert.False(t, prov.Implicit)
}

func TestSnapshot_IsImmutable(t *testing.T) {
	s := schema.Correction()
	custom := layer.New(layer.Custom, "doc")
	custom.Set("repetition.ignore_words", schema.List("pues"))
	snap := Resolve(s, layer.NewStack(custom))

	values := snap.Values()
	values["repetition.ignore_words"] = schema.List("changed")
	custom.Set("repetition.ignore_words", schema.List("mutated"))

	v, _ := snap.Value("repetition.ignore_words")
	assert.True(t, v.Equal(schema.List("pues")))
}

func TestSnapshot_Diff(t *testing.T) {
	s := schema.Correction()
	a := Resolve(s, nil)
	custom := layer.New(layer.Custom, "doc")
	custom.Set("style.register", schema.String("formal"))
	b := Resolve(s, layer.NewStack(custom))

	assert.Equal(t, []string{"style.register"}, a.Diff(b))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(Resolve(s, nil)))
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	s := schema.Correction()
	typ := layer.New(layer.Type, "Novela")
	typ.Set("repetition.min_distance", schema.Int(60))

	data, err := json.Marshal(Resolve(s, layer.NewStack(typ)))
	require.NoError(t, err)

	var decoded struct {
		Values     map[string]map[string]any `json:"values"`
		Provenance map[string]struct {
			Layer      string `json:"layer"`
			SourceName string `json:"source_name"`
		} `json:"provenance"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(60), decoded.Values["repetition"]["min_distance"])
	assert.Nil(t, decoded.Values["sentence"]["max_length_words"])
	assert.Equal(t, "type", decoded.Provenance["repetition.min_distance"].Layer)
	assert.Equal(t, "global", decoded.Provenance["dialogue.enabled"].Layer)
}

// Any leaf resolves to the value of the most specific layer that sets it,
// or to the schema default.
func TestResolve_Property(t *testing.T) {
	s := schema.Correction()
	paths := []string{"repetition.min_distance", "sentence.max_length_words", "style.register", "dialogue.enabled"}
	candidates := map[string][]schema.Value{
		"repetition.min_distance":   {schema.Int(0), schema.Int(35), schema.Int(60)},
		"sentence.max_length_words": {schema.Null(), schema.Int(20), schema.Int(40)},
		"style.register":            {schema.String("formal"), schema.String("colloquial")},
		"dialogue.enabled":          {schema.Bool(true), schema.Bool(false)},
	}

	rapid.Check(t, func(t *rapid.T) {
		var stack layer.Stack
		for _, name := range []layer.Name{layer.Type, layer.Subtype, layer.Custom} {
			if rapid.Bool().Draw(t, "absent") {
				continue
			}
			l := layer.New(name, name.String())
			for _, p := range paths {
				if rapid.Bool().Draw(t, "sets-"+p) {
					l.Set(p, rapid.SampledFrom(candidates[p]).Draw(t, "value-"+p))
				}
			}
			stack = append(stack, l)
		}

		snap := Resolve(s, stack)
		for _, p := range paths {
			want, _ := s.Default(p)
			wantLayer := layer.Global
			for _, l := range stack {
				if v, ok := l.Lookup(p); ok {
					want = v
					wantLayer = l.Name
				}
			}
			got, _ := snap.Value(p)
			if !got.Equal(want) {
				t.Fatalf("%s: got %v, want %v", p, got, want)
			}
			prov, _ := snap.Provenance(p)
			if prov.Layer != wantLayer {
				t.Fatalf("%s: provenance %s, want %s", p, prov.Layer, wantLayer)
			}
		}
	})
}
