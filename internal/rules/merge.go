package rules

import (
	"slices"

	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
)

// Entries merges the rules of stack for editing at target. The editing
// layer is the last layer of the stack when its name is target; every other
// layer is outer. Outer rules keep the position of their first appearance;
// a later outer layer defining the same id replaces the base in place. At
// the editing layer, an entry matching an outer id is a patch and any other
// entry is a custom rule appended in layer order.
func Entries(stack layer.Stack, target layer.Name) []Entry {
	stack = layer.NewStack(stack...)
	var editing *layer.Layer
	outer := stack
	if n := len(stack); n > 0 && stack[n-1].Name == target {
		editing = stack[n-1]
		outer = stack[:n-1]
	}

	var entries []Entry
	index := make(map[string]int)
	for _, l := range outer {
		for _, r := range l.Rules() {
			if i, ok := index[r.ID]; ok {
				base := entries[i].(Inherited).Base
				base.Rule = r
				entries[i] = Inherited{Base: base}
				continue
			}
			index[r.ID] = len(entries)
			entries = append(entries, Inherited{Base: Origin{Rule: r, Source: l.Name, SourceName: l.SourceName}})
		}
	}

	if editing == nil {
		return entries
	}
	for _, r := range editing.Rules() {
		if i, ok := index[r.ID]; ok {
			switch e := entries[i].(type) {
			case Inherited:
				entries[i] = Overridden{Base: e.Base, Patch: r}
			case Overridden:
				entries[i] = Overridden{Base: e.Base, Patch: r}
			case Custom:
				entries[i] = Custom{Rule: r, Source: e.Source, SourceName: e.SourceName}
			}
			continue
		}
		index[r.ID] = len(entries)
		entries = append(entries, Custom{Rule: r, Source: editing.Name, SourceName: editing.SourceName})
	}
	return entries
}

// MergeAt renders the merged rules of stack for editing at target.
func MergeAt(stack layer.Stack, target layer.Name) []EditorialRule {
	entries := Entries(stack, target)
	out := make([]EditorialRule, 0, len(entries))
	for _, e := range entries {
		out = append(out, Project(e))
	}
	return out
}

// Merge renders the merged rules of a document-level stack.
func Merge(stack layer.Stack) []EditorialRule {
	return MergeAt(stack, layer.Custom)
}

// Enabled filters a merged list down to the rules in effect.
func Enabled(merged []EditorialRule) []EditorialRule {
	return slices.DeleteFunc(slices.Clone(merged), func(r EditorialRule) bool {
		return !r.Enabled
	})
}
