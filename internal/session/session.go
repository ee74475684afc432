package session

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/diff"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Session is the editing state of one load. The outer layers are read-only;
// edits land in a working copy of the editing layer, which is the layer
// named target (custom for documents, type or subtype for default edits).
// A Session is not safe for concurrent use; the editor serializes access.
type Session struct {
	schema    *schema.Schema
	outer     layer.Stack
	persisted *layer.Layer
	working   *layer.Layer
	tracker   *Tracker
	rules     *rules.Set
	ruleOpts  []rules.SetOption
	detection *detect.Result
	snapshot  *resolver.Snapshot
}

// New starts a session. persisted is the editing layer as stored; nil means
// nothing is stored yet.
func New(s *schema.Schema, outer layer.Stack, target layer.Name, persisted *layer.Layer, opts ...rules.SetOption) (*Session, error) {
	outer = layer.NewStack(outer...)
	for _, l := range outer {
		if l.Name > target {
			return nil, core.ErrValidation(core.CodeInvalidLayer,
				fmt.Sprintf("outer layer %s is more specific than editing layer %s", l.Name, target))
		}
	}
	if err := outer.Validate(); err != nil {
		return nil, err
	}
	if persisted == nil {
		persisted = layer.New(target, "")
	}
	if persisted.Name != target {
		return nil, core.ErrValidation(core.CodeInvalidLayer,
			fmt.Sprintf("editing layer is %s, want %s", persisted.Name, target))
	}
	if err := persisted.Validate(s); err != nil {
		return nil, err
	}

	sess := &Session{
		schema:    s,
		outer:     outer,
		persisted: persisted.Clone(),
		working:   persisted.Clone(),
		tracker:   NewTracker(),
		ruleOpts:  opts,
	}
	sess.rules = rules.NewSet(outer, sess.working, opts...)
	sess.recompute()
	return sess, nil
}

func (s *Session) recompute() {
	s.snapshot = resolver.Resolve(s.schema, s.Stack())
}

// Target returns the name of the editing layer.
func (s *Session) Target() layer.Name {
	return s.working.Name
}

// Stack returns the outer layers followed by the working editing layer.
func (s *Session) Stack() layer.Stack {
	out := make(layer.Stack, 0, len(s.outer)+1)
	out = append(out, s.outer...)
	return append(out, s.working)
}

// PersistedStack returns the outer layers followed by the editing layer as
// last stored.
func (s *Session) PersistedStack() layer.Stack {
	out := make(layer.Stack, 0, len(s.outer)+1)
	out = append(out, s.outer...)
	return append(out, s.persisted.Clone())
}

// Snapshot returns the current effective configuration.
func (s *Session) Snapshot() *resolver.Snapshot {
	return s.snapshot
}

// Working returns a copy of the editing layer with pending edits.
func (s *Session) Working() *layer.Layer {
	return s.working.Clone()
}

// Tracker exposes what was touched.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Set validates v and writes it at the editing layer. Invalid values never
// enter the modified set.
func (s *Session) Set(path string, v schema.Value) error {
	if err := s.schema.Validate(path, v); err != nil {
		return err
	}
	s.working.Set(path, v)
	s.tracker.MarkModified(path)
	s.recompute()
	return nil
}

// SetRaw coerces decoded data (JSON, YAML or TOML) and sets it.
func (s *Session) SetRaw(path string, raw any) error {
	v, err := s.schema.Coerce(path, raw)
	if err != nil {
		return err
	}
	return s.Set(path, v)
}

// MarkModified pins the current effective value of path at the editing
// layer, so it is persisted even though its value did not change.
func (s *Session) MarkModified(path string) error {
	v, ok := s.snapshot.Value(path)
	if !ok {
		_, err := s.schema.Field(path)
		return err
	}
	s.working.Set(path, v)
	s.tracker.MarkModified(path)
	s.recompute()
	return nil
}

// IsCustom reports whether path is explicitly set at the editing layer,
// either by an edit in this session or by a stored customization.
func (s *Session) IsCustom(path string) bool {
	return s.tracker.IsCustom(path) || s.working.Has(path)
}

// ModifiedPaths returns the leaves edited in this session.
func (s *Session) ModifiedPaths() []string {
	return s.tracker.ModifiedPaths()
}

// CustomPaths returns the leaves set at the editing layer.
func (s *Session) CustomPaths() []string {
	return s.working.Paths()
}

// ResetParam drops the editing layer's entry for path. The leaf then
// resolves from the nearest outer layer that sets it, or the schema default.
func (s *Session) ResetParam(path string) error {
	if _, err := s.schema.Field(path); err != nil {
		return err
	}
	if !s.working.Has(path) && !s.tracker.IsCustom(path) {
		return core.ErrInvalidOperation(core.CodeNothingToReset,
			fmt.Sprintf("%s is not customized at the %s layer", path, s.Target())).WithDetail("path", path)
	}
	s.working.Unset(path)
	if s.persisted.Has(path) {
		s.tracker.MarkReset(path)
	} else {
		s.tracker.Unmark(path)
	}
	s.recompute()
	return nil
}

// ResetAll empties the editing layer, leaving the outer layers in effect.
func (s *Session) ResetAll() {
	for _, path := range s.working.Paths() {
		s.working.Unset(path)
	}
	for _, path := range s.tracker.ModifiedPaths() {
		s.tracker.Unmark(path)
	}
	for _, path := range s.persisted.Paths() {
		s.tracker.MarkReset(path)
	}

	for _, r := range s.working.Rules() {
		s.working.RemoveRule(r.ID)
	}
	for _, id := range s.tracker.ModifiedRules() {
		s.tracker.UnmarkRule(id)
	}
	for _, r := range s.persisted.Rules() {
		s.tracker.MarkRuleReset(r.ID)
	}
	s.recompute()
}

// Rules returns the merged editorial rules.
func (s *Session) Rules() []rules.EditorialRule {
	return s.rules.Rules()
}

// AddRule creates a custom rule.
func (s *Session) AddRule(text string) (rules.EditorialRule, error) {
	r, err := s.rules.Add(text)
	if err != nil {
		return rules.EditorialRule{}, err
	}
	s.tracker.MarkRule(r.ID)
	return r, nil
}

// RemoveRule deletes a custom rule.
func (s *Session) RemoveRule(id string) error {
	if err := s.rules.Remove(id); err != nil {
		return err
	}
	s.forgetRule(id)
	return nil
}

// ToggleRule flips a rule's enabled flag.
func (s *Session) ToggleRule(id string) (rules.EditorialRule, error) {
	return s.trackRule(s.rules.Toggle(id))
}

// SetRuleEnabled sets a rule's enabled flag.
func (s *Session) SetRuleEnabled(id string, enabled bool) (rules.EditorialRule, error) {
	return s.trackRule(s.rules.SetEnabled(id, enabled))
}

// EditRuleText replaces a rule's text.
func (s *Session) EditRuleText(id, text string) (rules.EditorialRule, error) {
	return s.trackRule(s.rules.EditText(id, text))
}

// ResetRule drops the override of an inherited rule.
func (s *Session) ResetRule(id string) (rules.EditorialRule, error) {
	r, err := s.rules.Reset(id)
	if err != nil {
		return rules.EditorialRule{}, err
	}
	s.forgetRule(id)
	return r, nil
}

func (s *Session) trackRule(r rules.EditorialRule, err error) (rules.EditorialRule, error) {
	if err != nil {
		return rules.EditorialRule{}, err
	}
	s.tracker.MarkRule(r.ID)
	return r, nil
}

func (s *Session) forgetRule(id string) {
	if _, stored := s.persisted.Rule(id); stored {
		s.tracker.MarkRuleReset(id)
		return
	}
	s.tracker.UnmarkRule(id)
}

// Detection returns the last detection result, if any.
func (s *Session) Detection() (detect.Result, bool) {
	if s.detection == nil {
		return detect.Result{}, false
	}
	return *s.detection, true
}

// SetDetection records a detection result without applying it.
func (s *Session) SetDetection(r detect.Result) {
	s.detection = &r
}

// ApplySuggestion writes the suggested layer at the editing layer and marks
// every one of its leaves modified.
func (s *Session) ApplySuggestion(r detect.Result) error {
	if !r.Detected || r.SuggestedLayer == nil {
		return core.ErrInvalidOperation(core.CodeNoSuggestion, "detection produced no suggestion to apply")
	}
	return s.applyLayer(r.SuggestedLayer)
}

// ApplyPreset writes a preset layer at the editing layer and marks every
// one of its leaves modified.
func (s *Session) ApplyPreset(p detect.Preset) error {
	if p.Layer == nil {
		return core.ErrInvalidOperation(core.CodeUnknownPreset, fmt.Sprintf("preset %q has no layer", p.ID))
	}
	return s.applyLayer(p.Layer)
}

func (s *Session) applyLayer(l *layer.Layer) error {
	if err := l.Validate(s.schema); err != nil {
		return err
	}
	for path, v := range l.Values() {
		s.working.Set(path, v)
		s.tracker.MarkModified(path)
	}
	for _, r := range l.Rules() {
		s.working.SetRule(r)
		s.tracker.MarkRule(r.ID)
	}
	s.recompute()
	return nil
}

// Dirty reports whether edits await persistence.
func (s *Session) Dirty() bool {
	return s.tracker.Dirty()
}

// Diff computes the partial layer to persist.
func (s *Session) Diff() diff.PartialLayer {
	return diff.Compute(s.tracker, s.working, s.working.Rules())
}

// Commit records that p was persisted: the stored editing layer absorbs p
// and its entries leave the modified set. Call it only after a successful
// save so a failed save can be retried with the identical diff.
func (s *Session) Commit(p diff.PartialLayer) {
	diff.ApplyLayer(p, s.persisted)
	for _, path := range p.Paths() {
		s.tracker.Unmark(path)
	}
	for _, r := range p.Rules {
		s.tracker.UnmarkRule(r.ID)
	}
	for _, id := range p.RemovedRules {
		s.tracker.UnmarkRule(id)
	}
}

// Discard drops unsaved edits, returning to the stored editing layer.
func (s *Session) Discard() {
	s.working = s.persisted.Clone()
	s.rules = rules.NewSet(s.outer, s.working, s.ruleOpts...)
	s.tracker.Clear()
	s.recompute()
}
