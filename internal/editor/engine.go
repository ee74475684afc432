package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Engine keeps one Editor per open scope.
type Engine struct {
	store  Store
	opts   options
	logger *logging.Logger

	mu      sync.Mutex
	editors map[string]*Editor
	closed  bool
}

// NewEngine creates an engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		store:   store,
		opts:    o,
		logger:  o.logger.WithComponent("engine"),
		editors: make(map[string]*Editor),
	}
}

// Store returns the engine's store.
func (e *Engine) Store() Store {
	return e.store
}

// Schema returns the correction schema editors validate against.
func (e *Engine) Schema() *schema.Schema {
	return e.opts.schema
}

// Open returns the editor for scope, loading it on first use.
func (e *Engine) Open(ctx context.Context, scope core.Scope) (*Editor, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	key := scope.Key()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, core.ErrInvalidOperation(core.CodeSessionClosed, "engine is closed")
	}
	if ed, ok := e.editors[key]; ok {
		e.mu.Unlock()
		return ed, nil
	}
	e.mu.Unlock()

	ed := newEditor(scope, e.store, e.opts)
	ed.onSaved = e.propagate
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.editors[key]; ok {
		// Lost a race with another Open; the new editor has no edits.
		_ = ed.Close()
		return existing, nil
	}
	e.editors[key] = ed
	return ed, nil
}

// Reload opens scope, reloading an editor that was already open unless it
// has unsaved edits.
func (e *Engine) Reload(ctx context.Context, scope core.Scope) (*Editor, error) {
	if ed, ok := e.Lookup(scope); ok {
		if _, err := ed.reloadIfClean(ctx); err != nil {
			return nil, err
		}
		return ed, nil
	}
	return e.Open(ctx, scope)
}

// Lookup returns the editor for scope if it is open.
func (e *Engine) Lookup(scope core.Scope) (*Editor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ed, ok := e.editors[scope.Key()]
	return ed, ok
}

func (e *Engine) openEditors() []*Editor {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Editor, 0, len(e.editors))
	for _, ed := range e.editors {
		out = append(out, ed)
	}
	return out
}

// Refresh reloads open editors after stored configuration of changed was
// modified outside them. A type or subtype change can alter any document,
// so every editor is considered. Editors with unsaved edits keep them.
func (e *Engine) Refresh(ctx context.Context, changed core.Scope) {
	e.refresh(ctx, changed, nil)
}

func (e *Engine) refresh(ctx context.Context, changed core.Scope, skip *Editor) {
	for _, ed := range e.openEditors() {
		if ed == skip {
			continue
		}
		if changed.Kind() == core.ScopeDocument && ed.Scope().Key() != changed.Key() {
			continue
		}
		reloaded, err := ed.reloadIfClean(ctx)
		switch {
		case err != nil:
			e.logger.Warn("reload failed", "scope", ed.Scope().Key(), "error", err)
		case !reloaded:
			e.logger.Info("skipped reload of editor with unsaved edits", "scope", ed.Scope().Key())
		}
	}
}

// propagate refreshes other editors after ed saved type or subtype
// defaults.
func (e *Engine) propagate(ed *Editor) {
	if ed.Scope().Kind() == core.ScopeDocument {
		return
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.refresh(context.Background(), ed.Scope(), ed)
}

// Clear deletes the stored editing layer of scope.
func (e *Engine) Clear(ctx context.Context, scope core.Scope) (*resolver.Snapshot, error) {
	ed, err := e.Open(ctx, scope)
	if err != nil {
		return nil, err
	}
	snap, err := ed.Clear(ctx)
	if err != nil {
		return nil, err
	}
	e.propagate(ed)
	return snap, nil
}

// Presets returns the store's preset catalog.
func (e *Engine) Presets(ctx context.Context) ([]detect.Preset, error) {
	presets, err := e.store.FetchPresetCatalog(ctx)
	if err != nil {
		return nil, persistenceError(core.CodeLoadFailed, "loading presets", err)
	}
	return presets, nil
}

// HandleStoreChange is the callback for store watchers.
func (e *Engine) HandleStoreChange(ctx context.Context, scope core.Scope, path string) {
	if e.opts.bus != nil {
		e.opts.bus.Publish(events.NewStoreChangedEvent(scope.Key(), path))
	}
	e.Refresh(ctx, scope)
}

// CloseEditor saves and forgets the editor of scope. An editor whose save
// fails stays registered with its edits.
func (e *Engine) CloseEditor(scope core.Scope) error {
	ed, ok := e.Lookup(scope)
	if !ok {
		return nil
	}
	if err := ed.Close(); err != nil {
		return err
	}
	e.forget(ed)
	return nil
}

func (e *Engine) forget(ed *Editor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editors[ed.Scope().Key()] == ed {
		delete(e.editors, ed.Scope().Key())
	}
}

// Close stops new editors from opening, then saves and closes the open
// ones. Editors that fail to save stay registered, so Close can be called
// again once the store recovers.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	var errs []error
	for _, ed := range e.openEditors() {
		if err := ed.Close(); err != nil {
			errs = append(errs, err)
			continue
		}
		e.forget(ed)
	}
	return errors.Join(errs...)
}
