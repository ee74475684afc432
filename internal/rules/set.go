package rules

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
)

// Set edits rules at one editing layer on top of fixed outer layers. The
// editing layer is shared with its owner and mutated in place.
type Set struct {
	outer   layer.Stack
	editing *layer.Layer
	newID   func() string
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithIDGenerator overrides how custom rule ids are minted.
func WithIDGenerator(fn func() string) SetOption {
	return func(s *Set) {
		s.newID = fn
	}
}

// NewSet creates a rule set editing the given layer.
func NewSet(outer layer.Stack, editing *layer.Layer, opts ...SetOption) *Set {
	s := &Set{
		outer:   layer.NewStack(outer...),
		editing: editing,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Set) stack() layer.Stack {
	out := make(layer.Stack, 0, len(s.outer)+1)
	out = append(out, s.outer...)
	return append(out, s.editing)
}

// Entries returns the merged entries.
func (s *Set) Entries() []Entry {
	return Entries(s.stack(), s.editing.Name)
}

// Rules returns the merged, rendered rules.
func (s *Set) Rules() []EditorialRule {
	return MergeAt(s.stack(), s.editing.Name)
}

// Get returns the merged entry with id.
func (s *Set) Get(id string) (Entry, error) {
	for _, e := range s.Entries() {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, core.ErrNotFound("rule", id)
}

// Add creates a custom rule with a fresh id. Ids are never reused.
func (s *Set) Add(text string) (EditorialRule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return EditorialRule{}, core.ErrValidation(core.CodeEmptyRuleText, "rule text cannot be empty")
	}
	id := s.newID()
	for {
		if _, err := s.Get(id); err != nil {
			break
		}
		id = s.newID()
	}
	r := layer.Rule{ID: id, Text: text, Enabled: true}
	s.editing.SetRule(r)
	return Project(Custom{Rule: r, Source: s.editing.Name, SourceName: s.editing.SourceName}), nil
}

// Remove deletes a custom rule. Inherited rules can only be disabled.
func (s *Set) Remove(id string) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, ok := e.(Custom); !ok {
		return core.ErrInvalidOperation(core.CodeCannotDeleteInherited,
			fmt.Sprintf("rule %s is inherited; disable it instead", id)).WithDetail("rule_id", id)
	}
	s.editing.RemoveRule(id)
	return nil
}

// Toggle flips the enabled flag. For an inherited rule this records a patch.
func (s *Set) Toggle(id string) (EditorialRule, error) {
	return s.patch(id, func(r *layer.Rule) error {
		r.Enabled = !r.Enabled
		return nil
	})
}

// SetEnabled sets the enabled flag. For an inherited rule this records a patch.
func (s *Set) SetEnabled(id string, enabled bool) (EditorialRule, error) {
	return s.patch(id, func(r *layer.Rule) error {
		r.Enabled = enabled
		return nil
	})
}

// EditText replaces the text. For an inherited rule this records a patch.
func (s *Set) EditText(id, text string) (EditorialRule, error) {
	text = strings.TrimSpace(text)
	return s.patch(id, func(r *layer.Rule) error {
		if text == "" {
			return core.ErrValidation(core.CodeEmptyRuleText, "rule text cannot be empty")
		}
		r.Text = text
		return nil
	})
}

// Reset drops the patch of an overridden rule, restoring the outer rule.
func (s *Set) Reset(id string) (EditorialRule, error) {
	e, err := s.Get(id)
	if err != nil {
		return EditorialRule{}, err
	}
	o, ok := e.(Overridden)
	if !ok {
		return EditorialRule{}, core.ErrInvalidOperation(core.CodeNothingToReset,
			fmt.Sprintf("rule %s has no override to reset", id)).WithDetail("rule_id", id)
	}
	s.editing.RemoveRule(id)
	return Project(Inherited{Base: o.Base}), nil
}

func (s *Set) patch(id string, mutate func(*layer.Rule) error) (EditorialRule, error) {
	e, err := s.Get(id)
	if err != nil {
		return EditorialRule{}, err
	}

	var current layer.Rule
	switch e := e.(type) {
	case Inherited:
		current = e.Base.Rule
	case Overridden:
		current = e.Patch
	case Custom:
		current = e.Rule
	}
	if err := mutate(&current); err != nil {
		return EditorialRule{}, err
	}
	s.editing.SetRule(current)

	for _, merged := range s.Rules() {
		if merged.ID == id {
			return merged, nil
		}
	}
	return EditorialRule{}, core.ErrInternal("patched rule vanished: " + id)
}
