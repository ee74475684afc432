package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/doctype"
	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
)

const (
	docConfig = "/api/v1/documents/novela-1/config"
	tolerance = "repetition.tolerance"
	proximity = "repetition.proximity_window_chars"
)

type testAPI struct {
	server *Server
	store  *store.ConfigStore
	engine *editor.Engine
	bus    *events.EventBus
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	bus := events.New(100)
	cs := store.NewConfigStore(store.NewMemoryRepository())
	engine := editor.NewEngine(cs, editor.WithAutosave(0), editor.WithEventBus(bus))
	t.Cleanup(func() {
		_ = engine.Close()
		bus.Close()
	})
	return &testAPI{
		server: NewServer(engine, cs, WithEventBus(bus)),
		store:  cs,
		engine: engine,
		bus:    bus,
	}
}

// withNovel registers novela-1 as a literary novel.
func (a *testAPI) withNovel(t *testing.T) *testAPI {
	t.Helper()
	rec := a.do(t, http.MethodPut, "/api/v1/documents/novela-1",
		`{"title":"Mi novela","type":"FIC","subtype":"FIC_LIT"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return a
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

type provenanceJSON struct {
	Layer      string `json:"layer"`
	SourceName string `json:"source_name"`
	Implicit   bool   `json:"implicit"`
}

type viewJSON struct {
	Target string `json:"target"`
	Config struct {
		Values     map[string]map[string]any `json:"values"`
		Provenance map[string]provenanceJSON `json:"provenance"`
	} `json:"config"`
	Modified []string              `json:"modified"`
	Custom   []string              `json:"custom"`
	Rules    []rules.EditorialRule `json:"rules"`
	Dirty    bool                  `json:"dirty"`

	RepetitionThreshold int `json:"repetition_threshold"`
}

func (v viewJSON) value(path string) any {
	cat, field, _ := strings.Cut(path, ".")
	return v.Config.Values[cat][field]
}

func (v viewJSON) rule(id string) (rules.EditorialRule, bool) {
	for _, r := range v.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return rules.EditorialRule{}, false
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, code, body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDocuments(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPut, "/api/v1/documents/novela-1",
		`{"title":"Mi novela","type":"fiction","subtype":"fic_lit"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decodeBody[store.Document](t, rec)
	assert.Equal(t, "FIC", doc.TypeCode)
	assert.Equal(t, "FIC_LIT", doc.SubtypeCode)

	rec = a.do(t, http.MethodGet, "/api/v1/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]store.Document](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/api/v1/documents/novela-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mi novela", decodeBody[store.Document](t, rec).Title)

	t.Run("unknown document", func(t *testing.T) {
		requireErrorCode(t, a.do(t, http.MethodGet, "/api/v1/documents/missing", ""),
			http.StatusNotFound, core.CodeNotFound)
	})
	t.Run("missing type", func(t *testing.T) {
		requireErrorCode(t, a.do(t, http.MethodPut, "/api/v1/documents/x", `{"title":"x"}`),
			http.StatusUnprocessableEntity, core.CodeInvalidScope)
	})
	t.Run("unsafe id", func(t *testing.T) {
		requireErrorCode(t, a.do(t, http.MethodPut, "/api/v1/documents/.hidden", `{"type":"FIC"}`),
			http.StatusUnprocessableEntity, core.CodeInvalidScope)
	})
	t.Run("invalid json", func(t *testing.T) {
		requireErrorCode(t, a.do(t, http.MethodPut, "/api/v1/documents/x", `{`),
			http.StatusUnprocessableEntity, "INVALID_JSON")
	})
}

func TestListDocuments_Empty(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/api/v1/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestConfig_GetShowsProvenance(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	rec := a.do(t, http.MethodGet, docConfig, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[viewJSON](t, rec)

	assert.Equal(t, "custom", view.Target)
	assert.Equal(t, "low", view.value(tolerance))
	assert.Equal(t, provenanceJSON{Layer: "subtype", SourceName: "Novela literaria"},
		view.Config.Provenance[tolerance])
	assert.Equal(t, "type", view.Config.Provenance[proximity].Layer)
	assert.False(t, view.Dirty)
	assert.Empty(t, view.Custom)

	r, ok := view.rule("double_spaces")
	require.True(t, ok)
	assert.False(t, r.Custom)
}

func TestConfig_UnregisteredDocument(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/api/v1/documents/missing/config", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestConfig_SetSaveReset(t *testing.T) {
	a := newTestAPI(t).withNovel(t)
	ctx := context.Background()

	rec := a.do(t, http.MethodPut, docConfig+"/params/"+tolerance, `{"value":"high"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[viewJSON](t, rec)
	assert.Equal(t, "high", view.value(tolerance))
	assert.Equal(t, provenanceJSON{Layer: "custom", SourceName: "Mi novela"}, view.Config.Provenance[tolerance])
	assert.Equal(t, []string{tolerance}, view.Modified)
	assert.True(t, view.Dirty)

	res, err := a.store.FetchEffectiveConfig(ctx, core.DocumentScope("novela-1"))
	require.NoError(t, err)
	assert.Nil(t, res.Custom, "edits are not stored before save")

	rec = a.do(t, http.MethodPost, docConfig+"/save", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decodeBody[viewJSON](t, rec).Dirty)

	res, err = a.store.FetchEffectiveConfig(ctx, core.DocumentScope("novela-1"))
	require.NoError(t, err)
	require.NotNil(t, res.Custom)
	v, ok := res.Custom.Lookup(tolerance)
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "high", s)

	rec = a.do(t, http.MethodDelete, docConfig+"/params/"+tolerance, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeBody[viewJSON](t, rec)
	assert.Equal(t, "low", view.value(tolerance))
	assert.Equal(t, "subtype", view.Config.Provenance[tolerance].Layer)
	assert.True(t, view.Dirty)
}

func TestConfig_SetNumberAndNull(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	rec := a.do(t, http.MethodPut, docConfig+"/params/"+proximity, `{"value":300}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 300, decodeBody[viewJSON](t, rec).value(proximity))

	rec = a.do(t, http.MethodPut, docConfig+"/params/sentence.max_length_words", `{"value":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decodeBody[viewJSON](t, rec).value("sentence.max_length_words"))
}

func TestConfig_RejectsInvalidEdits(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	tests := []struct {
		name, path, body string
		code             string
	}{
		{"out of range", proximity, `{"value":5}`, core.CodeOutOfRange},
		{"bad option", tolerance, `{"value":"extreme"}`, core.CodeInvalidOption},
		{"wrong kind", tolerance, `{"value":3}`, core.CodeTypeMismatch},
		{"unknown path", "repetition.nope", `{"value":1}`, core.CodeUnknownPath},
		{"missing value", tolerance, `{}`, "MISSING_VALUE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireErrorCode(t, a.do(t, http.MethodPut, docConfig+"/params/"+tt.path, tt.body),
				http.StatusUnprocessableEntity, tt.code)
		})
	}

	rec := a.do(t, http.MethodGet, docConfig, "")
	assert.False(t, decodeBody[viewJSON](t, rec).Dirty, "rejected edits change nothing")
}

func TestConfig_ResetAll(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, docConfig+"/params/"+tolerance, `{"value":"high"}`).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, docConfig+"/params/"+proximity, `{"value":400}`).Code)

	rec := a.do(t, http.MethodDelete, docConfig+"/params", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[viewJSON](t, rec)
	assert.Equal(t, "low", view.value(tolerance))
	assert.EqualValues(t, 150, view.value(proximity))
	assert.Empty(t, view.Custom)
}

func TestConfig_Rules(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	rec := a.do(t, http.MethodPost, docConfig+"/rules", `{"text":"Evitar gerundios"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decodeBody[rules.EditorialRule](t, rec)
	assert.True(t, added.Custom)
	assert.True(t, added.Enabled)
	require.NotEmpty(t, added.ID)

	rec = a.do(t, http.MethodPatch, docConfig+"/rules/"+added.ID, `{"toggle":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decodeBody[rules.EditorialRule](t, rec).Enabled)

	rec = a.do(t, http.MethodPatch, docConfig+"/rules/double_spaces", `{"text":"Nada de espacios dobles"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeBody[rules.EditorialRule](t, rec)
	assert.True(t, patched.Overridden)
	assert.Equal(t, "Nada de espacios dobles", patched.Text)

	rec = a.do(t, http.MethodPost, docConfig+"/rules/double_spaces/reset", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reset := decodeBody[rules.EditorialRule](t, rec)
	assert.False(t, reset.Overridden)
	assert.Equal(t, "No debe haber espacios dobles", reset.Text)

	requireErrorCode(t, a.do(t, http.MethodDelete, docConfig+"/rules/double_spaces", ""),
		http.StatusConflict, core.CodeCannotDeleteInherited)
	requireErrorCode(t, a.do(t, http.MethodPost, docConfig+"/rules", `{"text":"   "}`),
		http.StatusUnprocessableEntity, core.CodeEmptyRuleText)
	requireErrorCode(t, a.do(t, http.MethodPatch, docConfig+"/rules/"+added.ID, `{}`),
		http.StatusUnprocessableEntity, "EMPTY_PATCH")

	rec = a.do(t, http.MethodDelete, docConfig+"/rules/"+added.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	view := decodeBody[viewJSON](t, a.do(t, http.MethodGet, docConfig, ""))
	_, ok := view.rule(added.ID)
	assert.False(t, ok)
}

func TestConfig_EnabledRulesAndTextDiff(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	rec := a.do(t, http.MethodPatch, docConfig+"/rules/double_spaces", `{"text":"Nada de espacios dobles"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeBody[rules.EditorialRule](t, rec)
	assert.NotEmpty(t, patched.TextDiff)
	assert.Contains(t, patched.TextDiff, "espacios dobles")

	rec = a.do(t, http.MethodPatch, docConfig+"/rules/double_spaces", `{"toggle":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	all := decodeBody[viewJSON](t, a.do(t, http.MethodGet, docConfig, ""))
	r, ok := all.rule("double_spaces")
	require.True(t, ok)
	assert.False(t, r.Enabled)
	assert.Equal(t, patched.TextDiff, r.TextDiff)
	assert.Equal(t, 2, all.RepetitionThreshold, "low tolerance alerts at two occurrences")

	enabled := decodeBody[viewJSON](t, a.do(t, http.MethodGet, docConfig+"?enabled_rules=1", ""))
	_, ok = enabled.rule("double_spaces")
	assert.False(t, ok)
	assert.Len(t, enabled.Rules, len(all.Rules)-1)
	for _, r := range enabled.Rules {
		assert.True(t, r.Enabled, r.ID)
	}
}

func TestConfig_DetectAndApply(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	requireErrorCode(t, a.do(t, http.MethodPost, docConfig+"/apply-preset", ""),
		http.StatusConflict, core.CodeNoSuggestion)

	rec := a.do(t, http.MethodPost, docConfig+"/detect",
		`{"features":{"field":"Legal","register":"formal","has_dialogue":false}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[detect.Result](t, rec)
	assert.True(t, res.Detected)
	assert.Equal(t, detect.PresetLegal, res.SuggestedPresetID)

	doc, err := a.store.Document(context.Background(), "novela-1")
	require.NoError(t, err)
	require.NotNil(t, doc.Features)
	assert.Equal(t, detect.FieldLegal, doc.Features.Field)

	rec = a.do(t, http.MethodPost, docConfig+"/apply-preset", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[viewJSON](t, rec)
	assert.True(t, view.Dirty)
	assert.NotEmpty(t, view.Modified)

	requireErrorCode(t, a.do(t, http.MethodPost, docConfig+"/apply-preset", `{"preset_id":"poetry"}`),
		http.StatusConflict, core.CodeUnknownPreset)

	rec = a.do(t, http.MethodPost, docConfig+"/apply-preset", `{"preset_id":"novel"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "low", decodeBody[viewJSON](t, rec).value(tolerance))
}

func TestConfig_DetectFromText(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	text := "—¿Vienes? —preguntó María.\n—No —dijo él.\nLa tarde caía sobre el pueblo."
	body, err := json.Marshal(DetectRequest{Text: text})
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, docConfig+"/detect", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := a.store.Document(context.Background(), "novela-1")
	require.NoError(t, err)
	require.NotNil(t, doc.Features, "extracted features are recorded")
}

func TestConfig_DetectTextTooLarge(t *testing.T) {
	cs := store.NewConfigStore(store.NewMemoryRepository())
	engine := editor.NewEngine(cs, editor.WithAutosave(0))
	defer engine.Close()
	a := &testAPI{server: NewServer(engine, cs, WithMaxTextBytes(16)), store: cs, engine: engine}
	a.withNovel(t)

	rec := a.do(t, http.MethodPost, docConfig+"/detect", `{"text":"this sample is longer than sixteen bytes"}`)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "BODY_TOO_LARGE")
}

func TestConfig_Clear(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, docConfig+"/params/"+tolerance, `{"value":"high"}`).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, docConfig+"/save", "").Code)

	rec := a.do(t, http.MethodDelete, docConfig, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[viewJSON](t, rec)
	assert.Equal(t, "low", view.value(tolerance))
	assert.Empty(t, view.Custom)

	res, err := a.store.FetchEffectiveConfig(context.Background(), core.DocumentScope("novela-1"))
	require.NoError(t, err)
	assert.Nil(t, res.Custom)
}

func TestTypesAndPresets(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	types := decodeBody[[]doctype.Type](t, rec)
	require.NotEmpty(t, types)
	assert.Equal(t, "FIC", types[0].Code)
	assert.NotEmpty(t, types[0].Subtypes)

	rec = a.do(t, http.MethodGet, "/api/v1/types?q=literaria", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var codes []string
	for _, m := range decodeBody[[]doctype.Match](t, rec) {
		codes = append(codes, m.Code)
	}
	assert.Contains(t, codes, "FIC_LIT")

	rec = a.do(t, http.MethodGet, "/api/v1/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decodeBody[[]detect.Preset](t, rec)
	assert.Len(t, presets, len(detect.PresetIDs()))
}

func TestTypeConfig_PropagatesToDocuments(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	// Open the document editor so the type change has to refresh it.
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, docConfig, "").Code)

	rec := a.do(t, http.MethodPut, "/api/v1/types/fic/config", `{"set":{"repetition.proximity_window_chars":300}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	typeView := decodeBody[viewJSON](t, rec)
	assert.EqualValues(t, 300, typeView.value(proximity))
	assert.Equal(t, "type", typeView.Target)

	ed, ok := a.engine.Lookup(core.DocumentScope("novela-1"))
	require.True(t, ok)
	view, err := ed.View()
	require.NoError(t, err)
	v, _ := view.Config.Value(proximity)
	n, _ := v.AsInt()
	assert.Equal(t, 300, n)
	prov, _ := view.Config.Provenance(proximity)
	assert.Equal(t, "Ficción (personalizado)", prov.SourceName)

	rec = a.do(t, http.MethodDelete, "/api/v1/types/FIC/config", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	docView := decodeBody[viewJSON](t, a.do(t, http.MethodGet, docConfig, ""))
	assert.EqualValues(t, 150, docView.value(proximity))
}

func TestTypeConfig_Subtype(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/types/FIC/config?subtype=FIC_LIT", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[viewJSON](t, rec)
	assert.Equal(t, "subtype", view.Target)
	assert.Equal(t, "low", view.value(tolerance))

	requireErrorCode(t, a.do(t, http.MethodGet, "/api/v1/types/FIC/config?subtype=ENS_ACA", ""),
		http.StatusUnprocessableEntity, core.CodeInvalidScope)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/types/XYZ/config", "").Code)
}

func TestTypeConfig_RejectsInvalidDiff(t *testing.T) {
	a := newTestAPI(t)

	requireErrorCode(t, a.do(t, http.MethodPut, "/api/v1/types/FIC/config", `{"set":{"repetition.proximity_window_chars":5}}`),
		http.StatusUnprocessableEntity, core.CodeOutOfRange)
	requireErrorCode(t, a.do(t, http.MethodPut, "/api/v1/types/FIC/config", `{}`),
		http.StatusUnprocessableEntity, "EMPTY_PATCH")
}

type overridesJSON struct {
	Overrides []struct {
		Scope  core.Scope `json:"scope"`
		Name   string     `json:"name"`
		Values int        `json:"values"`
	} `json:"overrides"`
	Status map[string]store.TypeOverrideStatus `json:"status"`
	Count  int                                 `json:"count"`
}

func TestTypeConfig_Diff(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/types/FIC/config/diff?subtype=FIC_LIT", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decodeBody[store.ConfigDiff](t, rec)
	assert.Equal(t, store.DiffAgainstType, d.Against)
	var paths []string
	for _, c := range d.Changes {
		paths = append(paths, c.Path)
		assert.Equal(t, "subtype", c.Provenance.Layer.String(), c.Path)
	}
	assert.ElementsMatch(t, []string{tolerance, "sentence.recommended_length_words"}, paths)

	rec = a.do(t, http.MethodPut, "/api/v1/types/FIC/config", `{"set":{"repetition.proximity_window_chars":300}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/v1/types/fiction/config/diff", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d = decodeBody[store.ConfigDiff](t, rec)
	assert.Equal(t, store.DiffAgainstDefaults, d.Against)
	assert.Equal(t, "FIC", d.Scope.TypeCode)
	var found bool
	for _, c := range d.Changes {
		if c.Path != proximity {
			continue
		}
		found = true
		n, _ := c.Value.AsInt()
		base, _ := c.Base.AsInt()
		assert.Equal(t, 300, n)
		assert.Equal(t, 150, base)
		assert.Equal(t, "Ficción (personalizado)", c.Provenance.SourceName)
	}
	assert.True(t, found, "the type override differs from the defaults")

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/types/XYZ/config/diff", "").Code)
}

func TestOverrides_ListAndClear(t *testing.T) {
	a := newTestAPI(t).withNovel(t)

	rec := a.do(t, http.MethodGet, "/api/v1/overrides", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decodeBody[overridesJSON](t, rec)
	assert.Zero(t, list.Count)
	assert.Empty(t, list.Overrides)
	assert.False(t, list.Status["FIC"].HasTypeOverride)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/api/v1/types/FIC/config",
		`{"set":{"repetition.proximity_window_chars":300}}`).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/api/v1/types/FIC/config?subtype=FIC_LIT",
		`{"set":{"repetition.tolerance":"high"}}`).Code)

	list = decodeBody[overridesJSON](t, a.do(t, http.MethodGet, "/api/v1/overrides", ""))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "type:FIC", list.Overrides[0].Scope.Key())
	assert.Equal(t, "Ficción (personalizado)", list.Overrides[0].Name)
	assert.Equal(t, 1, list.Overrides[0].Values)
	assert.Equal(t, "type:FIC/FIC_LIT", list.Overrides[1].Scope.Key())
	assert.Equal(t, store.TypeOverrideStatus{HasTypeOverride: true, SubtypeOverrides: []string{"FIC_LIT"}, Total: 2},
		list.Status["FIC"])

	view := decodeBody[viewJSON](t, a.do(t, http.MethodGet, docConfig, ""))
	assert.EqualValues(t, 300, view.value(proximity))
	assert.Equal(t, "high", view.value(tolerance))

	rec = a.do(t, http.MethodDelete, "/api/v1/overrides", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cleared := decodeBody[ClearOverridesResponse](t, rec)
	assert.Equal(t, 2, cleared.DeletedCount)

	// the open document editor is refreshed without another request
	ed, ok := a.engine.Lookup(core.DocumentScope("novela-1"))
	require.True(t, ok)
	v, err := ed.View()
	require.NoError(t, err)
	n, _ := v.Config.Value(proximity)
	got, _ := n.AsInt()
	assert.Equal(t, 150, got)
	tol, _ := v.Config.Value(tolerance)
	s, _ := tol.AsString()
	assert.Equal(t, "low", s)

	list = decodeBody[overridesJSON](t, a.do(t, http.MethodGet, "/api/v1/overrides", ""))
	assert.Zero(t, list.Count)

	rec = a.do(t, http.MethodDelete, "/api/v1/overrides", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"cleared":[],"deleted_count":0}`, rec.Body.String())
}
