// Package session holds the state of one configuration editing session:
// the inherited layers, the layer being edited, and what was touched.
package session

import "sort"

// Tracker records which leaves and rules were touched during a session.
// Membership follows edit events, not value equality: setting a leaf back
// to its previous value keeps it modified.
//
// Reset entries are leaves or rules whose persisted entry must be dropped
// on the next save.
type Tracker struct {
	paths      map[string]struct{}
	resetPaths map[string]struct{}
	rules      map[string]struct{}
	resetRules map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		paths:      make(map[string]struct{}),
		resetPaths: make(map[string]struct{}),
		rules:      make(map[string]struct{}),
		resetRules: make(map[string]struct{}),
	}
}

// MarkModified records an edit of path.
func (t *Tracker) MarkModified(path string) {
	t.paths[path] = struct{}{}
	delete(t.resetPaths, path)
}

// IsCustom reports whether path was edited in this session.
func (t *Tracker) IsCustom(path string) bool {
	_, ok := t.paths[path]
	return ok
}

// Unmark forgets path entirely.
func (t *Tracker) Unmark(path string) {
	delete(t.paths, path)
	delete(t.resetPaths, path)
}

// MarkReset records that the persisted entry of path must be dropped.
func (t *Tracker) MarkReset(path string) {
	delete(t.paths, path)
	t.resetPaths[path] = struct{}{}
}

// IsReset reports whether path is pending removal.
func (t *Tracker) IsReset(path string) bool {
	_, ok := t.resetPaths[path]
	return ok
}

// MarkRule records an edit of rule id.
func (t *Tracker) MarkRule(id string) {
	t.rules[id] = struct{}{}
	delete(t.resetRules, id)
}

// IsRuleModified reports whether rule id was edited in this session.
func (t *Tracker) IsRuleModified(id string) bool {
	_, ok := t.rules[id]
	return ok
}

// UnmarkRule forgets rule id entirely.
func (t *Tracker) UnmarkRule(id string) {
	delete(t.rules, id)
	delete(t.resetRules, id)
}

// MarkRuleReset records that the persisted entry of rule id must be dropped.
func (t *Tracker) MarkRuleReset(id string) {
	delete(t.rules, id)
	t.resetRules[id] = struct{}{}
}

func (t *Tracker) ModifiedPaths() []string { return sortedKeys(t.paths) }
func (t *Tracker) ResetPaths() []string    { return sortedKeys(t.resetPaths) }
func (t *Tracker) ModifiedRules() []string { return sortedKeys(t.rules) }
func (t *Tracker) ResetRules() []string    { return sortedKeys(t.resetRules) }

// Dirty reports whether anything awaits persistence.
func (t *Tracker) Dirty() bool {
	return len(t.paths)+len(t.resetPaths)+len(t.rules)+len(t.resetRules) > 0
}

// Clear forgets everything.
func (t *Tracker) Clear() {
	clear(t.paths)
	clear(t.resetPaths)
	clear(t.rules)
	clear(t.resetRules)
}

// Clone returns an independent copy.
func (t *Tracker) Clone() *Tracker {
	c := NewTracker()
	for k := range t.paths {
		c.paths[k] = struct{}{}
	}
	for k := range t.resetPaths {
		c.resetPaths[k] = struct{}{}
	}
	for k := range t.rules {
		c.rules[k] = struct{}{}
	}
	for k := range t.resetRules {
		c.resetRules[k] = struct{}{}
	}
	return c
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
