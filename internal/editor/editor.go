// Package editor runs editing sessions against a Store: one Editor per
// scope, with serialized load and save, autosave and event publication.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hugo-lorenzo-mato/corrector/internal/autosave"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
	"github.com/hugo-lorenzo-mato/corrector/internal/session"
)

// Change operations reported in config_changed events.
const (
	OpSet        = "set"
	OpReset      = "reset"
	OpResetAll   = "reset_all"
	OpRuleAdd    = "rule_add"
	OpRuleEdit   = "rule_edit"
	OpRuleRemove = "rule_remove"
	OpRuleReset  = "rule_reset"
	OpApply      = "apply"
)

// View is the state of an editor as shown to clients.
type View struct {
	Scope     core.Scope            `json:"scope"`
	Target    layer.Name            `json:"target"`
	Config    *resolver.Snapshot    `json:"config"`
	Modified  []string              `json:"modified"`
	Custom    []string              `json:"custom"`
	Rules     []rules.EditorialRule `json:"rules"`
	Detection *detect.Result        `json:"detection,omitempty"`
	Dirty     bool                  `json:"dirty"`

	// RepetitionThreshold is the occurrence count that triggers a
	// repetition alert at the effective tolerance.
	RepetitionThreshold int `json:"repetition_threshold,omitempty"`
}

// Editor owns the editing session of one scope. Every method is safe for
// concurrent use; loads, edits and saves never interleave.
type Editor struct {
	scope    core.Scope
	store    Store
	opts     options
	logger   *logging.Logger
	autosave *autosave.Scheduler
	onSaved  func(*Editor)

	mu      sync.Mutex
	session *session.Session
	closed  bool
}

func newEditor(scope core.Scope, store Store, opts options) *Editor {
	ed := &Editor{
		scope:  scope,
		store:  store,
		opts:   opts,
		logger: opts.logger.WithScope(scope).WithComponent("editor"),
	}
	if opts.autosaveDelay > 0 {
		ed.autosave = autosave.New(opts.autosaveDelay, autosave.WithErrorHandler(func(err error) {
			ed.logger.Warn("autosave failed", "error", err)
		}))
	}
	return ed
}

// Scope returns the edited scope.
func (ed *Editor) Scope() core.Scope {
	return ed.scope
}

func (ed *Editor) publish(e events.Event) {
	if ed.opts.bus != nil {
		ed.opts.bus.Publish(e)
	}
}

func (ed *Editor) ready() error {
	if ed.closed {
		return core.ErrInvalidOperation(core.CodeSessionClosed, "editor is closed").
			WithDetail("scope", ed.scope.Key())
	}
	if ed.session == nil {
		return core.ErrInvalidOperation(core.CodeSessionClosed, "editor has no loaded configuration").
			WithDetail("scope", ed.scope.Key())
	}
	return nil
}

// Load replaces the session with the stored configuration. Unsaved edits
// and any pending autosave are dropped. On failure the previous session is
// kept.
func (ed *Editor) Load(ctx context.Context) error {
	if ed.autosave != nil {
		ed.autosave.Cancel()
	}
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.closed {
		return ed.ready()
	}
	return ed.loadLocked(ctx)
}

func (ed *Editor) loadLocked(ctx context.Context) error {
	res, err := ed.store.FetchEffectiveConfig(ctx, ed.scope)
	if err != nil {
		return persistenceError(core.CodeLoadFailed, "loading "+ed.scope.Key(), err)
	}
	persisted := res.Custom
	if persisted == nil {
		persisted = layer.New(res.Target, res.SourceName)
	}
	sess, err := session.New(ed.opts.schema, res.Layers, res.Target, persisted, ed.opts.ruleOpts...)
	if err != nil {
		return err
	}
	ed.session = sess

	custom := len(sess.CustomPaths())
	ruleCount := len(sess.Rules())
	ed.logger.Debug("configuration loaded", "target", res.Target, "custom", custom, "rules", ruleCount)
	ed.publish(events.NewConfigLoadedEvent(ed.scope.Key(), res.Target.String(), custom, ruleCount))
	return nil
}

// reloadIfClean reloads unless edits are pending. It reports whether it
// reloaded.
func (ed *Editor) reloadIfClean(ctx context.Context) (bool, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.closed || (ed.session != nil && ed.session.Dirty()) {
		return false, nil
	}
	return true, ed.loadLocked(ctx)
}

// View returns a snapshot of the editor state.
func (ed *Editor) View() (View, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if err := ed.ready(); err != nil {
		return View{}, err
	}
	v := View{
		Scope:    ed.scope,
		Target:   ed.session.Target(),
		Config:   ed.session.Snapshot(),
		Modified: ed.session.ModifiedPaths(),
		Custom:   ed.session.CustomPaths(),
		Rules:    ed.session.Rules(),
		Dirty:    ed.session.Dirty(),
	}
	if d, ok := ed.session.Detection(); ok {
		v.Detection = &d
	}
	if tol, ok := v.Config.Value(schema.PathRepetitionTolerance); ok {
		if s, ok := tol.AsString(); ok {
			v.RepetitionThreshold, _ = schema.ToleranceThreshold(s)
		}
	}
	return v, nil
}

// Dirty reports whether edits await persistence.
func (ed *Editor) Dirty() bool {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.session != nil && ed.session.Dirty()
}

// edit runs fn on the session, then publishes the change and schedules an
// autosave. Rejected edits change nothing.
func (ed *Editor) edit(op, path, ruleID string, fn func(*session.Session) error) error {
	ed.mu.Lock()
	if err := ed.ready(); err != nil {
		ed.mu.Unlock()
		return err
	}
	if err := fn(ed.session); err != nil {
		ed.mu.Unlock()
		return err
	}
	ed.mu.Unlock()

	ed.publish(events.NewConfigChangedEvent(ed.scope.Key(), op, path, ruleID))
	ed.scheduleSave()
	return nil
}

func (ed *Editor) scheduleSave() {
	if ed.autosave == nil {
		return
	}
	ed.autosave.Schedule(func() error {
		return ed.save(context.Background())
	})
}

// Set validates raw against the schema and sets it at the editing layer.
func (ed *Editor) Set(path string, raw any) error {
	return ed.edit(OpSet, path, "", func(s *session.Session) error {
		return s.SetRaw(path, raw)
	})
}

// Reset drops the editing layer's value for path so the inherited value
// applies again.
func (ed *Editor) Reset(path string) error {
	return ed.edit(OpReset, path, "", func(s *session.Session) error {
		return s.ResetParam(path)
	})
}

// ResetAll drops every customization of the editing layer.
func (ed *Editor) ResetAll() error {
	return ed.edit(OpResetAll, "", "", func(s *session.Session) error {
		s.ResetAll()
		return nil
	})
}

// ruleEdit is edit for operations that return the affected rule.
func (ed *Editor) ruleEdit(op, id string, fn func(*session.Session) (rules.EditorialRule, error)) (rules.EditorialRule, error) {
	var out rules.EditorialRule
	err := ed.edit(op, "", id, func(s *session.Session) error {
		r, err := fn(s)
		out = r
		return err
	})
	return out, err
}

// AddRule appends a custom rule.
func (ed *Editor) AddRule(text string) (rules.EditorialRule, error) {
	var out rules.EditorialRule
	err := ed.edit(OpRuleAdd, "", "", func(s *session.Session) error {
		r, err := s.AddRule(text)
		out = r
		return err
	})
	return out, err
}

// RemoveRule deletes a custom rule. Inherited rules cannot be deleted.
func (ed *Editor) RemoveRule(id string) error {
	return ed.edit(OpRuleRemove, "", id, func(s *session.Session) error {
		return s.RemoveRule(id)
	})
}

// ToggleRule flips a rule's enabled flag.
func (ed *Editor) ToggleRule(id string) (rules.EditorialRule, error) {
	return ed.ruleEdit(OpRuleEdit, id, func(s *session.Session) (rules.EditorialRule, error) {
		return s.ToggleRule(id)
	})
}

// SetRuleEnabled sets a rule's enabled flag.
func (ed *Editor) SetRuleEnabled(id string, enabled bool) (rules.EditorialRule, error) {
	return ed.ruleEdit(OpRuleEdit, id, func(s *session.Session) (rules.EditorialRule, error) {
		return s.SetRuleEnabled(id, enabled)
	})
}

// EditRuleText replaces a rule's text.
func (ed *Editor) EditRuleText(id, text string) (rules.EditorialRule, error) {
	return ed.ruleEdit(OpRuleEdit, id, func(s *session.Session) (rules.EditorialRule, error) {
		return s.EditRuleText(id, text)
	})
}

// ResetRule drops the editing layer's patch of an inherited rule.
func (ed *Editor) ResetRule(id string) (rules.EditorialRule, error) {
	return ed.ruleEdit(OpRuleReset, id, func(s *session.Session) (rules.EditorialRule, error) {
		return s.ResetRule(id)
	})
}

// Detect asks the store for a profile suggestion and records it on the
// session without applying it.
func (ed *Editor) Detect(ctx context.Context) (detect.Result, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if err := ed.ready(); err != nil {
		return detect.Result{}, err
	}
	res, err := ed.store.DetectProfile(ctx, ed.scope)
	if err != nil {
		return detect.Result{}, persistenceError(core.CodeDetectFailed, "detecting profile", err)
	}
	ed.session.SetDetection(res)
	ed.logger.Info("profile detected",
		"detected", res.Detected, "preset", res.SuggestedPresetID, "confidence", res.Confidence)
	ed.publish(events.NewProfileDetectedEvent(ed.scope.Key(), res.Detected, res.SuggestedPresetID, res.Confidence))
	return res, nil
}

// ApplySuggestion applies the last detection result.
func (ed *Editor) ApplySuggestion() error {
	return ed.edit(OpApply, "", "", func(s *session.Session) error {
		d, ok := s.Detection()
		if !ok {
			return core.ErrInvalidOperation(core.CodeNoSuggestion, "no detection has been run")
		}
		return s.ApplySuggestion(d)
	})
}

// ApplyPreset applies a preset from the store's catalog.
func (ed *Editor) ApplyPreset(ctx context.Context, id string) error {
	presets, err := ed.store.FetchPresetCatalog(ctx)
	if err != nil {
		return persistenceError(core.CodeLoadFailed, "loading presets", err)
	}
	p, ok := detect.FindPreset(presets, id)
	if !ok {
		return core.ErrInvalidOperation(core.CodeUnknownPreset, fmt.Sprintf("unknown preset %q", id)).
			WithDetail("preset_id", id)
	}
	return ed.edit(OpApply, "", "", func(s *session.Session) error {
		return s.ApplyPreset(p)
	})
}

// Save persists pending edits now, replacing any scheduled autosave. The
// save is all-or-nothing: on failure the edits stay pending and the same
// call can be retried.
func (ed *Editor) Save(ctx context.Context) error {
	if ed.autosave != nil {
		ed.autosave.Cancel()
	}
	return ed.save(ctx)
}

func (ed *Editor) save(ctx context.Context) error {
	ed.mu.Lock()
	res := ed.saveLocked(ctx)
	ed.mu.Unlock()
	return ed.finishSave(res)
}

// saveResult carries the outcome of saveLocked to be reported once the
// editor lock is released.
type saveResult struct {
	saved bool
	event events.Event
	err   error
}

func (ed *Editor) saveLocked(ctx context.Context) saveResult {
	if ed.session == nil || !ed.session.Dirty() {
		return saveResult{}
	}
	p := ed.session.Diff()
	if p.IsEmpty() {
		return saveResult{}
	}
	if err := ed.store.PersistDiff(ctx, ed.scope, p); err != nil {
		err = persistenceError(core.CodeSaveFailed, "saving "+ed.scope.Key(), err)
		ed.logger.Error("save failed", "error", err, "paths", len(p.Paths()))
		return saveResult{event: events.NewConfigSaveFailedEvent(ed.scope.Key(), err), err: err}
	}
	ed.session.Commit(p)
	ed.logger.Info("configuration saved",
		"set", len(p.Set), "unset", len(p.Unset), "rules", len(p.Rules), "removed_rules", len(p.RemovedRules))
	return saveResult{
		saved: true,
		event: events.NewConfigSavedEvent(ed.scope.Key(), len(p.Set), len(p.Unset), len(p.Rules), len(p.RemovedRules)),
	}
}

// finishSave publishes the outcome of a save. It must run without ed.mu
// held: failures go out at priority and may block on slow subscribers.
func (ed *Editor) finishSave(res saveResult) error {
	switch {
	case res.err != nil:
		if ed.opts.bus != nil {
			ed.opts.bus.PublishPriority(res.event)
		}
	case res.saved:
		ed.publish(res.event)
		if ed.onSaved != nil {
			ed.onSaved(ed)
		}
	}
	return res.err
}

// Clear deletes the stored editing layer and reloads. Pending edits are
// dropped.
func (ed *Editor) Clear(ctx context.Context) (*resolver.Snapshot, error) {
	if ed.autosave != nil {
		ed.autosave.Cancel()
	}
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.closed {
		return nil, ed.ready()
	}
	snap, err := ed.store.ClearCustomizations(ctx, ed.scope)
	if err != nil {
		return nil, persistenceError(core.CodeClearFailed, "clearing "+ed.scope.Key(), err)
	}
	if err := ed.loadLocked(ctx); err != nil {
		return nil, err
	}
	ed.logger.Info("customizations cleared")
	ed.publish(events.NewCustomizationsClearedEvent(ed.scope.Key()))
	return snap, nil
}

// Discard drops unsaved edits and any pending autosave, returning the
// session to the stored configuration.
func (ed *Editor) Discard() {
	if ed.autosave != nil {
		ed.autosave.Cancel()
	}
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.session == nil || !ed.session.Dirty() {
		return
	}
	ed.session.Discard()
	ed.logger.Info("unsaved edits discarded")
}

// Close saves pending edits and rejects further use. When the save fails
// the editor stays open with its edits and the error is returned, so Close
// can be retried; call Discard first to close without saving.
func (ed *Editor) Close() error {
	if ed.autosave != nil {
		if err := ed.autosave.Flush(); err != nil {
			return err
		}
	}
	ed.mu.Lock()
	if ed.closed {
		ed.mu.Unlock()
		return nil
	}
	res := ed.saveLocked(context.Background())
	if res.err == nil {
		ed.closed = true
	}
	ed.mu.Unlock()
	return ed.finishSave(res)
}

// persistenceError passes domain errors through and wraps anything else as
// a retryable persistence failure.
func persistenceError(code, op string, err error) error {
	var de *core.DomainError
	if errors.As(err, &de) {
		return err
	}
	return core.ErrPersistence(code, op).WithCause(err)
}
