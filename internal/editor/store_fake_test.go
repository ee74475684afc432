package editor

import (
	"context"
	"sync"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/diff"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

const (
	minDistance = "repetition.min_distance"
	tolerance   = "repetition.tolerance"
)

var (
	docScope  = core.DocumentScope("ms-1")
	typeScope = core.TypeScope("FIC", "")
)

// fakeStore keeps a built-in type layer plus stored editing layers keyed by
// scope. Documents sit on the type layer and its override.
type fakeStore struct {
	mu        sync.Mutex
	builtin   *layer.Layer
	layers    map[string]*layer.Layer
	saveErr   error
	saves     int
	loads     int
	detection detect.Result
}

func newFakeStore() *fakeStore {
	builtin := layer.New(layer.Type, "Novela")
	builtin.Set(minDistance, schema.Int(60))
	builtin.SetRule(layer.Rule{ID: "r1", Text: "No debe haber espacios dobles", Enabled: true})
	return &fakeStore{builtin: builtin, layers: make(map[string]*layer.Layer)}
}

func (f *fakeStore) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *fakeStore) stored(scope core.Scope) *layer.Layer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layers[scope.Key()].Clone()
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeStore) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func targetOf(scope core.Scope) layer.Name {
	if scope.Kind() == core.ScopeDocument {
		return layer.Custom
	}
	return layer.Type
}

func (f *fakeStore) load(scope core.Scope) LoadResult {
	outer := layer.NewStack(f.builtin.Clone())
	if scope.Kind() == core.ScopeDocument {
		if ov := f.layers[typeScope.Key()].Clone(); ov != nil {
			ov.SourceName = "Novela (personalizado)"
			outer = append(outer, ov)
		}
	}
	custom := f.layers[scope.Key()].Clone()
	full := append(outer.Clone(), layer.NewStack(custom)...)
	return LoadResult{
		Layers:     outer,
		Custom:     custom,
		Target:     targetOf(scope),
		SourceName: "Mi novela",
		Provenance: resolver.Resolve(schema.Correction(), full),
	}
}

func (f *fakeStore) FetchEffectiveConfig(_ context.Context, scope core.Scope) (LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.load(scope), nil
}

func (f *fakeStore) FetchPresetCatalog(context.Context) ([]detect.Preset, error) {
	return detect.Catalog(schema.Correction()), nil
}

func (f *fakeStore) DetectProfile(context.Context, core.Scope) (detect.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detection, nil
}

func (f *fakeStore) PersistDiff(_ context.Context, scope core.Scope, p diff.PartialLayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	l := f.layers[scope.Key()].Clone()
	if l == nil {
		l = layer.New(targetOf(scope), "Mi novela")
	}
	diff.ApplyLayer(p, l)
	f.layers[scope.Key()] = l
	f.saves++
	return nil
}

func (f *fakeStore) ClearCustomizations(_ context.Context, scope core.Scope) (*resolver.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.layers, scope.Key())
	return f.load(scope).Provenance, nil
}
