package session

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/diff"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

const minDistance = "repetition.min_distance"

func novelOuter() layer.Stack {
	typ := layer.New(layer.Type, "Novela")
	typ.Set(minDistance, schema.Int(60))
	typ.SetRule(layer.Rule{ID: "r1", Text: "No passive voice in action scenes", Enabled: true})
	sub := layer.New(layer.Subtype, "Literaria")
	sub.Set("sentence.max_length_words", schema.Int(40))
	return layer.NewStack(typ, sub)
}

func counterIDs() rules.SetOption {
	n := 0
	return rules.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("c%d", n)
	})
}

func newDocSession(t *testing.T, persisted *layer.Layer) *Session {
	t.Helper()
	sess, err := New(schema.Correction(), novelOuter(), layer.Custom, persisted, counterIDs())
	require.NoError(t, err)
	return sess
}

func valueAt(t *testing.T, sess *Session, path string) (schema.Value, resolver.Provenance) {
	t.Helper()
	v, ok := sess.Snapshot().Value(path)
	require.True(t, ok, path)
	prov, _ := sess.Snapshot().Provenance(path)
	return v, prov
}

func TestSession_ResetFallsBackToNearestLayer(t *testing.T) {
	sess := newDocSession(t, nil)

	v, prov := valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(60)))
	assert.Equal(t, layer.Type, prov.Layer)

	require.NoError(t, sess.Set(minDistance, schema.Int(35)))
	v, prov = valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(35)))
	assert.Equal(t, layer.Custom, prov.Layer)
	assert.True(t, sess.IsCustom(minDistance))

	require.NoError(t, sess.ResetParam(minDistance))
	v, prov = valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(60)))
	assert.Equal(t, resolver.Provenance{Layer: layer.Type, SourceName: "Novela"}, prov)
	assert.False(t, sess.IsCustom(minDistance))
	assert.True(t, sess.Diff().IsEmpty(), "a never-persisted edit that was reset leaves nothing to save")
}

func TestSession_ResetWithoutOuterValueUsesDefault(t *testing.T) {
	sess, err := New(schema.Correction(), nil, layer.Custom, nil)
	require.NoError(t, err)

	require.NoError(t, sess.Set(minDistance, schema.Int(35)))
	require.NoError(t, sess.ResetParam(minDistance))

	v, prov := valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(50)))
	assert.Equal(t, resolver.Provenance{Layer: layer.Global, SourceName: resolver.DefaultSourceName, Implicit: true}, prov)
}

func TestSession_ResetPersistedEntryIsUnset(t *testing.T) {
	persisted := layer.New(layer.Custom, "doc-1")
	persisted.Set(minDistance, schema.Int(35))
	sess := newDocSession(t, persisted)

	assert.True(t, sess.IsCustom(minDistance), "stored customizations count as custom")
	assert.Empty(t, sess.ModifiedPaths())

	require.NoError(t, sess.ResetParam(minDistance))
	p := sess.Diff()
	assert.Empty(t, p.Set)
	assert.Equal(t, []string{minDistance}, p.Unset)
	assert.True(t, sess.Dirty())
}

func TestSession_ResetNothing(t *testing.T) {
	sess := newDocSession(t, nil)

	err := sess.ResetParam(minDistance)
	require.Error(t, err)
	assert.Equal(t, core.CodeNothingToReset, core.GetCode(err))

	err = sess.ResetParam("repetition.nope")
	assert.True(t, core.IsValidation(err))
}

func TestSession_InvalidValueIsNotTracked(t *testing.T) {
	sess := newDocSession(t, nil)

	err := sess.Set("repetition.proximity_window_chars", schema.Int(5))
	require.Error(t, err)
	assert.Equal(t, core.CodeOutOfRange, core.GetCode(err))

	err = sess.SetRaw("repetition.tolerance", "extreme")
	require.Error(t, err)
	assert.Equal(t, core.CodeInvalidOption, core.GetCode(err))

	assert.Empty(t, sess.ModifiedPaths())
	assert.False(t, sess.Dirty())
}

func TestSession_SetRawCoercesDecodedInput(t *testing.T) {
	sess := newDocSession(t, nil)

	require.NoError(t, sess.SetRaw(minDistance, float64(80)))
	require.NoError(t, sess.SetRaw("sentence.max_length_words", nil))

	v, _ := valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(80)))
	v, prov := valueAt(t, sess, "sentence.max_length_words")
	assert.True(t, v.IsNull(), "explicit null overrides the subtype value")
	assert.Equal(t, layer.Custom, prov.Layer)
}

func TestSession_MarkModifiedPinsEffectiveValue(t *testing.T) {
	sess := newDocSession(t, nil)

	require.NoError(t, sess.MarkModified(minDistance))
	p := sess.Diff()
	require.Contains(t, p.Set, minDistance)
	assert.True(t, p.Set[minDistance].Equal(schema.Int(60)))

	assert.Error(t, sess.MarkModified("nope.nope"))
}

func TestSession_ResetAll(t *testing.T) {
	persisted := layer.New(layer.Custom, "doc-1")
	persisted.Set(minDistance, schema.Int(35))
	persisted.SetRule(layer.Rule{ID: "r1", Text: "No passive voice in action scenes", Enabled: false})
	sess := newDocSession(t, persisted)
	require.NoError(t, sess.Set("style.register", schema.String("formal")))

	sess.ResetAll()

	assert.Empty(t, sess.CustomPaths())
	v, _ := valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(60)))

	p := sess.Diff()
	assert.Empty(t, p.Set)
	assert.Equal(t, []string{minDistance}, p.Unset)
	assert.Equal(t, []string{"r1"}, p.RemovedRules)

	stored := diff.Apply(p, sess.PersistedStack(), layer.Custom)
	assert.True(t, stored.Innermost(layer.Custom).IsEmpty())
}

func TestSession_RuleScenario(t *testing.T) {
	sess := newDocSession(t, nil)

	r, err := sess.ToggleRule("r1")
	require.NoError(t, err)
	assert.False(t, r.Enabled)
	assert.True(t, r.Overridden)

	p := sess.Diff()
	require.Len(t, p.Rules, 1)
	assert.Equal(t, layer.Rule{ID: "r1", Text: "No passive voice in action scenes", Enabled: false}, p.Rules[0])

	r, err = sess.ResetRule("r1")
	require.NoError(t, err)
	assert.True(t, r.Enabled)
	assert.True(t, sess.Diff().IsEmpty())

	added, err := sess.AddRule("Prefer 'solo' without accent")
	require.NoError(t, err)
	assert.Equal(t, "c1", added.ID)
	assert.True(t, added.IsCustom())

	err = sess.RemoveRule("r1")
	assert.Equal(t, core.CodeCannotDeleteInherited, core.GetCode(err))

	require.NoError(t, sess.RemoveRule(added.ID))
	assert.False(t, sess.Dirty())
	assert.Len(t, sess.Rules(), 1)
}

func TestSession_SaveFailureKeepsDiffForRetry(t *testing.T) {
	sess := newDocSession(t, nil)
	require.NoError(t, sess.Set(minDistance, schema.Int(35)))
	_, err := sess.EditRuleText("r1", "No passive voice")
	require.NoError(t, err)

	first := sess.Diff()
	// A failed save does not commit, so the retry carries the same delta.
	second := sess.Diff()
	if d := cmp.Diff(first, second, cmp.Comparer(func(a, b schema.Value) bool { return a.Equal(b) })); d != "" {
		t.Fatalf("Diff() changed between attempts (-first +second):\n%s", d)
	}

	sess.Commit(second)
	assert.False(t, sess.Dirty())
	assert.True(t, sess.Diff().IsEmpty())
	assert.True(t, sess.IsCustom(minDistance), "committed values stay custom")
}

func TestSession_EditDuringSaveSurvivesCommit(t *testing.T) {
	sess := newDocSession(t, nil)
	require.NoError(t, sess.Set(minDistance, schema.Int(35)))
	p := sess.Diff()
	require.NoError(t, sess.Set("style.register", schema.String("formal")))

	sess.Commit(p)
	assert.Equal(t, []string{"style.register"}, sess.ModifiedPaths())
}

func TestSession_Discard(t *testing.T) {
	persisted := layer.New(layer.Custom, "doc-1")
	persisted.Set(minDistance, schema.Int(35))
	sess := newDocSession(t, persisted)

	require.NoError(t, sess.Set(minDistance, schema.Int(99)))
	_, err := sess.AddRule("temp")
	require.NoError(t, err)

	sess.Discard()
	v, _ := valueAt(t, sess, minDistance)
	assert.True(t, v.Equal(schema.Int(35)))
	assert.Len(t, sess.Rules(), 1)
	assert.False(t, sess.Dirty())
}

func TestSession_ApplySuggestion(t *testing.T) {
	s := schema.Correction()
	sess := newDocSession(t, nil)
	d := detect.NewDetector(s)

	err := sess.ApplySuggestion(d.Detect(detect.Features{}))
	assert.Equal(t, core.CodeNoSuggestion, core.GetCode(err))
	assert.False(t, sess.Dirty())

	res := d.Detect(detect.Features{Field: detect.FieldLegal, Register: "formal", HasDialogue: detect.Dialogue(false)})
	require.True(t, res.Detected)
	require.NoError(t, sess.ApplySuggestion(res))

	assert.ElementsMatch(t, res.SuggestedLayer.Paths(), sess.ModifiedPaths())
	v, prov := valueAt(t, sess, "repetition.tolerance")
	assert.True(t, v.Equal(schema.String("very_high")))
	assert.Equal(t, layer.Custom, prov.Layer)
}

func TestSession_TypeDefaultsEditing(t *testing.T) {
	builtin := layer.New(layer.Type, "Novela")
	builtin.Set(minDistance, schema.Int(60))
	builtin.SetRule(layer.Rule{ID: "nov-01", Text: "Check dialogue dashes", Enabled: true})
	override := layer.New(layer.Type, "Novela (personalizado)")

	sess, err := New(schema.Correction(), layer.NewStack(builtin), layer.Type, override)
	require.NoError(t, err)

	require.NoError(t, sess.Set(minDistance, schema.Int(45)))
	_, err = sess.ToggleRule("nov-01")
	require.NoError(t, err)

	p := sess.Diff()
	stored := diff.Apply(p, layer.NewStack(builtin, override), layer.Type)
	require.Len(t, stored, 2)
	v, ok := stored[1].Lookup(minDistance)
	require.True(t, ok)
	assert.True(t, v.Equal(schema.Int(45)))
	_, ok = builtin.Lookup(minDistance)
	assert.True(t, ok, "built-in layer is untouched")

	_, err = New(schema.Correction(), novelOuter(), layer.Type, nil)
	assert.True(t, core.IsValidation(err), "subtype cannot be outside a type edit")
}

// Resolving the stored stack after applying the session's diff yields the
// same configuration the session shows, and a reset leaf always shows the
// value inherited from outside the editing layer.
func TestSession_DiffRoundTrip(t *testing.T) {
	s := schema.Correction()
	paths := []string{minDistance, "sentence.max_length_words", "style.register", "dialogue.enabled"}
	candidates := map[string][]schema.Value{
		minDistance:                 {schema.Int(10), schema.Int(35), schema.Int(60)},
		"sentence.max_length_words": {schema.Null(), schema.Int(20), schema.Int(40)},
		"style.register":            {schema.String("formal"), schema.String("neutral"), schema.String("colloquial")},
		"dialogue.enabled":          {schema.Bool(true), schema.Bool(false)},
	}

	rapid.Check(t, func(t *rapid.T) {
		persisted := layer.New(layer.Custom, "doc")
		for _, p := range paths {
			if rapid.Bool().Draw(t, "stored-"+p) {
				persisted.Set(p, rapid.SampledFrom(candidates[p]).Draw(t, "stored-value-"+p))
			}
		}
		if rapid.Bool().Draw(t, "stored-rule") {
			persisted.SetRule(layer.Rule{ID: "r1", Text: "patched", Enabled: false})
		}

		sess, err := New(s, novelOuter(), layer.Custom, persisted, counterIDs())
		if err != nil {
			t.Fatal(err)
		}

		var added []string
		steps := rapid.IntRange(0, 12).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			p := rapid.SampledFrom(paths).Draw(t, "path")
			switch rapid.IntRange(0, 5).Draw(t, "op") {
			case 0:
				_ = sess.Set(p, rapid.SampledFrom(candidates[p]).Draw(t, "value"))
			case 1:
				if sess.ResetParam(p) != nil {
					break
				}
				if sess.IsCustom(p) {
					t.Fatalf("%s still custom after reset", p)
				}
				upstream := sess.PersistedStack()
				upstream[len(upstream)-1].Unset(p)
				want, _ := resolver.Resolve(s, upstream).Value(p)
				got, _ := sess.Snapshot().Value(p)
				if !got.Equal(want) {
					t.Fatalf("reset %s resolved to %s, want the inherited %s", p, got, want)
				}
			case 2:
				_, _ = sess.ToggleRule("r1")
			case 3:
				_, _ = sess.ResetRule("r1")
			case 4:
				r, err := sess.AddRule("rule text")
				if err == nil {
					added = append(added, r.ID)
				}
			case 5:
				if len(added) > 0 {
					_ = sess.RemoveRule(added[len(added)-1])
					added = added[:len(added)-1]
				}
			}
			prov, _ := sess.Snapshot().Provenance(p)
			if sess.IsCustom(p) != (prov.Layer == layer.Custom) {
				t.Fatalf("IsCustom(%s) = %v with provenance %s", p, sess.IsCustom(p), prov.Layer)
			}
		}

		stored := diff.Apply(sess.Diff(), sess.PersistedStack(), layer.Custom)
		got := resolver.Resolve(s, stored)
		if d := sess.Snapshot().Diff(got); len(d) > 0 {
			t.Fatalf("stored configuration differs at %v", d)
		}
		if d := cmp.Diff(sess.Rules(), rules.Merge(stored)); d != "" {
			t.Fatalf("stored rules differ (-session +stored):\n%s", d)
		}
	})
}
