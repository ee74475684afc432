package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openEditor(t *testing.T, store Store, scope core.Scope, opts ...Option) (*Engine, *Editor) {
	t.Helper()
	e := NewEngine(store, opts...)
	t.Cleanup(func() { _ = e.Close() })
	ed, err := e.Open(context.Background(), scope)
	require.NoError(t, err)
	return e, ed
}

func viewValue(t *testing.T, ed *Editor, path string) (schema.Value, resolver.Provenance) {
	t.Helper()
	v, err := ed.View()
	require.NoError(t, err)
	val, ok := v.Config.Value(path)
	require.True(t, ok, path)
	prov, _ := v.Config.Provenance(path)
	return val, prov
}

func TestEditor_LoadAndEdit(t *testing.T) {
	store := newFakeStore()
	_, ed := openEditor(t, store, docScope, WithAutosave(0))

	v, prov := viewValue(t, ed, minDistance)
	assert.True(t, schema.Int(60).Equal(v))
	assert.Equal(t, layer.Type, prov.Layer)

	require.NoError(t, ed.Set(minDistance, 80))
	v, prov = viewValue(t, ed, minDistance)
	assert.True(t, schema.Int(80).Equal(v))
	assert.Equal(t, resolver.Provenance{Layer: layer.Custom, SourceName: "Mi novela"}, prov)

	view, err := ed.View()
	require.NoError(t, err)
	assert.Equal(t, layer.Custom, view.Target)
	assert.Equal(t, []string{minDistance}, view.Modified)
	assert.Equal(t, []string{minDistance}, view.Custom)
	assert.True(t, view.Dirty)

	require.NoError(t, ed.Reset(minDistance))
	v, _ = viewValue(t, ed, minDistance)
	assert.True(t, schema.Int(60).Equal(v))
}

func TestEditor_InvalidEditIsRejected(t *testing.T) {
	store := newFakeStore()
	_, ed := openEditor(t, store, docScope, WithAutosave(0))

	err := ed.Set(tolerance, "extreme")
	assert.True(t, core.IsValidation(err), "got %v", err)
	err = ed.Set("repetition.nope", 1)
	assert.True(t, core.IsValidation(err), "got %v", err)

	assert.False(t, ed.Dirty())
	require.NoError(t, ed.Save(context.Background()))
	assert.Zero(t, store.saveCount())
}

func TestEditor_SaveFailureKeepsEditsForRetry(t *testing.T) {
	store := newFakeStore()
	bus := events.New(16)
	defer bus.Close()
	failed := bus.SubscribePriority(events.TypeConfigSaveFailed)
	saved := bus.Subscribe(events.TypeConfigSaved)

	_, ed := openEditor(t, store, docScope, WithAutosave(0), WithEventBus(bus))
	require.NoError(t, ed.Set(tolerance, "high"))
	_, err := ed.ToggleRule("r1")
	require.NoError(t, err)
	before, err := ed.View()
	require.NoError(t, err)

	store.setSaveErr(errors.New("database is locked"))
	err = ed.Save(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err))
	assert.True(t, core.IsRetryable(err))
	assert.Equal(t, core.CodeSaveFailed, core.GetCode(err))

	select {
	case ev := <-failed:
		assert.Equal(t, docScope.Key(), ev.ScopeKey())
	case <-time.After(time.Second):
		t.Fatal("save failure not published")
	}

	after, err := ed.View()
	require.NoError(t, err)
	assert.Equal(t, before.Modified, after.Modified)
	assert.True(t, after.Dirty)
	assert.Nil(t, store.stored(docScope))

	store.setSaveErr(nil)
	require.NoError(t, ed.Save(context.Background()))
	assert.False(t, ed.Dirty())

	stored := store.stored(docScope)
	require.NotNil(t, stored)
	v, ok := stored.Lookup(tolerance)
	require.True(t, ok)
	assert.True(t, schema.String("high").Equal(v))
	r, ok := stored.Rule("r1")
	require.True(t, ok)
	assert.False(t, r.Enabled)

	select {
	case ev := <-saved:
		assert.Equal(t, events.TypeConfigSaved, ev.EventType())
	case <-time.After(time.Second):
		t.Fatal("save not published")
	}
}

func TestEditor_StalledFailureSubscriberDoesNotBlockEditor(t *testing.T) {
	store := newFakeStore()
	bus := events.New(16)
	defer bus.Close()
	failed := bus.SubscribePriority(events.TypeConfigSaveFailed)

	_, ed := openEditor(t, store, docScope, WithAutosave(0), WithEventBus(bus))
	require.NoError(t, ed.Set(minDistance, 35))
	store.setSaveErr(errors.New("database is locked"))

	// fill the subscriber's buffer so the next failure blocks its publisher
	for i := 0; i < cap(failed); i++ {
		require.Error(t, ed.Save(context.Background()))
	}
	done := make(chan error, 1)
	go func() { done <- ed.Save(context.Background()) }()

	viewed := make(chan struct{})
	go func() {
		_, _ = ed.View()
		close(viewed)
	}()
	select {
	case <-viewed:
	case <-time.After(2 * time.Second):
		t.Fatal("editor locked while publishing a save failure")
	}

	for range cap(failed) + 1 {
		<-failed
	}
	require.Error(t, <-done)
	store.setSaveErr(nil)
}

func TestEditor_Autosave(t *testing.T) {
	store := newFakeStore()
	_, ed := openEditor(t, store, docScope, WithAutosave(50*time.Millisecond))

	require.NoError(t, ed.Set(minDistance, 70))
	require.NoError(t, ed.Set(minDistance, 75))

	require.Eventually(t, func() bool { return !ed.Dirty() }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, store.saveCount(), "edits within the quiet period coalesce")
	v, _ := store.stored(docScope).Lookup(minDistance)
	assert.True(t, schema.Int(75).Equal(v))
}

func TestEditor_CloseFlushesAutosave(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, WithAutosave(time.Hour))
	ed, err := e.Open(context.Background(), docScope)
	require.NoError(t, err)

	require.NoError(t, ed.Set(minDistance, 90))
	assert.Zero(t, store.saveCount())

	require.NoError(t, e.Close())
	assert.Equal(t, 1, store.saveCount())

	err = ed.Set(minDistance, 91)
	assert.Equal(t, core.CodeSessionClosed, core.GetCode(err))
	_, err = e.Open(context.Background(), docScope)
	assert.Equal(t, core.CodeSessionClosed, core.GetCode(err))
}

func TestEditor_CloseSavesWithoutAutosave(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, WithAutosave(0))
	ed, err := e.Open(context.Background(), docScope)
	require.NoError(t, err)

	require.NoError(t, ed.Set(minDistance, 35))
	require.NoError(t, e.Close())

	assert.Equal(t, 1, store.saveCount())
	stored := store.stored(docScope)
	require.NotNil(t, stored)
	v, ok := stored.Lookup(minDistance)
	require.True(t, ok)
	assert.True(t, schema.Int(35).Equal(v))
}

func TestEditor_CloseKeepsEditsWhenSaveFails(t *testing.T) {
	store := newFakeStore()
	bus := events.New(16)
	defer bus.Close()
	failed := bus.Subscribe(events.TypeConfigSaveFailed)

	e := NewEngine(store, WithAutosave(20*time.Millisecond), WithEventBus(bus))
	ed, err := e.Open(context.Background(), docScope)
	require.NoError(t, err)

	store.setSaveErr(errors.New("disk full"))
	require.NoError(t, ed.Set(minDistance, 35))
	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave did not fail")
	}

	err = e.Close()
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err))
	assert.True(t, ed.Dirty())
	got, ok := e.Lookup(docScope)
	require.True(t, ok, "editor with unsaved edits stays registered")
	assert.Same(t, ed, got)
	require.NoError(t, ed.Set(tolerance, "high"), "editor stays usable")

	err = e.CloseEditor(docScope)
	require.Error(t, err)
	_, ok = e.Lookup(docScope)
	assert.True(t, ok)

	store.setSaveErr(nil)
	require.NoError(t, e.CloseEditor(docScope))
	_, ok = e.Lookup(docScope)
	assert.False(t, ok)
	assert.Equal(t, 1, store.saveCount())
	v, ok := store.stored(docScope).Lookup(minDistance)
	require.True(t, ok)
	assert.True(t, schema.Int(35).Equal(v))
	require.NoError(t, e.Close())
}

func TestEditor_DiscardThenClose(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, WithAutosave(time.Hour))
	ed, err := e.Open(context.Background(), docScope)
	require.NoError(t, err)

	require.NoError(t, ed.Set(minDistance, 35))
	ed.Discard()
	assert.False(t, ed.Dirty())
	v, _ := viewValue(t, ed, minDistance)
	assert.True(t, schema.Int(60).Equal(v))

	require.NoError(t, e.Close())
	assert.Zero(t, store.saveCount())
	assert.Nil(t, store.stored(docScope))
}

func TestEditor_Rules(t *testing.T) {
	store := newFakeStore()
	n := 0
	_, ed := openEditor(t, store, docScope, WithAutosave(0), WithRuleIDGenerator(func() string {
		n++
		return "c" + string(rune('0'+n))
	}))

	added, err := ed.AddRule("Evitar gerundios")
	require.NoError(t, err)
	assert.Equal(t, "c1", added.ID)
	assert.True(t, added.Custom)

	err = ed.RemoveRule("r1")
	assert.Equal(t, core.CodeCannotDeleteInherited, core.GetCode(err))

	edited, err := ed.EditRuleText("r1", "Sin espacios dobles")
	require.NoError(t, err)
	assert.True(t, edited.Overridden)

	reset, err := ed.ResetRule("r1")
	require.NoError(t, err)
	assert.Equal(t, "No debe haber espacios dobles", reset.Text)

	r, err := ed.SetRuleEnabled("c1", false)
	require.NoError(t, err)
	assert.False(t, r.Enabled)

	require.NoError(t, ed.RemoveRule("c1"))
	view, err := ed.View()
	require.NoError(t, err)
	require.Len(t, view.Rules, 1)
	assert.Equal(t, "r1", view.Rules[0].ID)
}

func TestEditor_DetectAndApply(t *testing.T) {
	store := newFakeStore()
	_, ed := openEditor(t, store, docScope, WithAutosave(0))

	err := ed.ApplySuggestion()
	assert.Equal(t, core.CodeNoSuggestion, core.GetCode(err))

	store.detection = detect.NewDetector(schema.Correction()).Detect(detect.Features{
		Field: detect.FieldLegal, Register: detect.RegisterFormal, HasDialogue: detect.Dialogue(false),
	})
	res, err := ed.Detect(context.Background())
	require.NoError(t, err)
	require.True(t, res.Detected)
	assert.False(t, ed.Dirty(), "detection alone does not edit")

	view, err := ed.View()
	require.NoError(t, err)
	require.NotNil(t, view.Detection)
	assert.Equal(t, res.SuggestedPresetID, view.Detection.SuggestedPresetID)

	require.NoError(t, ed.ApplySuggestion())
	v, _ := viewValue(t, ed, tolerance)
	assert.True(t, schema.String("very_high").Equal(v))
	assert.True(t, ed.Dirty())
}

func TestEditor_ApplyPreset(t *testing.T) {
	store := newFakeStore()
	_, ed := openEditor(t, store, docScope, WithAutosave(0))

	err := ed.ApplyPreset(context.Background(), "poetry")
	assert.Equal(t, core.CodeUnknownPreset, core.GetCode(err))
	assert.False(t, ed.Dirty())

	require.NoError(t, ed.ApplyPreset(context.Background(), detect.PresetNovel))
	view, err := ed.View()
	require.NoError(t, err)
	assert.Len(t, view.Modified, len(schema.Correction().Paths()))
}

func TestEditor_Clear(t *testing.T) {
	store := newFakeStore()
	bus := events.New(16)
	defer bus.Close()
	cleared := bus.Subscribe(events.TypeCustomizationsCleared)

	e, ed := openEditor(t, store, docScope, WithAutosave(0), WithEventBus(bus))
	require.NoError(t, ed.Set(minDistance, 99))
	require.NoError(t, ed.Save(context.Background()))
	require.NoError(t, ed.Set(tolerance, "low"))

	snap, err := e.Clear(context.Background(), docScope)
	require.NoError(t, err)
	v, _ := snap.Value(minDistance)
	assert.True(t, schema.Int(60).Equal(v))

	assert.False(t, ed.Dirty())
	assert.Nil(t, store.stored(docScope))
	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("clear not published")
	}
}

func TestEngine_OpenReusesEditor(t *testing.T) {
	store := newFakeStore()
	e, ed := openEditor(t, store, docScope, WithAutosave(0))

	again, err := e.Open(context.Background(), docScope)
	require.NoError(t, err)
	assert.Same(t, ed, again)
	assert.Equal(t, 1, store.loadCount())

	_, err = e.Open(context.Background(), core.Scope{})
	assert.True(t, core.IsValidation(err))

	require.NoError(t, e.CloseEditor(docScope))
	_, ok := e.Lookup(docScope)
	assert.False(t, ok)
}

func TestEngine_TypeSavePropagatesToCleanEditors(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, WithAutosave(0))
	defer e.Close()
	ctx := context.Background()

	doc, err := e.Open(ctx, docScope)
	require.NoError(t, err)
	dirtyDoc, err := e.Open(ctx, core.DocumentScope("ms-2"))
	require.NoError(t, err)
	require.NoError(t, dirtyDoc.Set(tolerance, "low"))

	typ, err := e.Open(ctx, typeScope)
	require.NoError(t, err)
	require.NoError(t, typ.Set(minDistance, 45))
	require.NoError(t, typ.Save(ctx))

	v, prov := viewValue(t, doc, minDistance)
	assert.True(t, schema.Int(45).Equal(v))
	assert.Equal(t, "Novela (personalizado)", prov.SourceName)

	// Unsaved edits are never discarded by a refresh.
	assert.True(t, dirtyDoc.Dirty())
	v, _ = viewValue(t, dirtyDoc, minDistance)
	assert.True(t, schema.Int(60).Equal(v))
}

func TestEngine_HandleStoreChange(t *testing.T) {
	store := newFakeStore()
	bus := events.New(16)
	defer bus.Close()
	changed := bus.Subscribe(events.TypeStoreChanged)
	e, ed := openEditor(t, store, docScope, WithAutosave(0), WithEventBus(bus))

	override := layer.New(layer.Custom, "Mi novela")
	override.Set(minDistance, schema.Int(33))
	store.mu.Lock()
	store.layers[docScope.Key()] = override
	store.mu.Unlock()

	e.HandleStoreChange(context.Background(), docScope, "/tmp/documents/ms-1.yaml")
	v, _ := viewValue(t, ed, minDistance)
	assert.True(t, schema.Int(33).Equal(v))

	select {
	case ev := <-changed:
		assert.Equal(t, docScope.Key(), ev.ScopeKey())
	case <-time.After(time.Second):
		t.Fatal("store change not published")
	}
}

func TestEngine_Reload(t *testing.T) {
	store := newFakeStore()
	e, ed := openEditor(t, store, docScope, WithAutosave(0))

	again, err := e.Reload(context.Background(), docScope)
	require.NoError(t, err)
	assert.Same(t, ed, again)
	assert.Equal(t, 2, store.loadCount())

	require.NoError(t, ed.Set(minDistance, 10))
	_, err = e.Reload(context.Background(), docScope)
	require.NoError(t, err)
	assert.Equal(t, 2, store.loadCount(), "dirty editors are not reloaded")
	assert.True(t, ed.Dirty())
}
