// Package rules merges ordered editorial rule lists across configuration
// layers and edits them at the innermost layer.
package rules

import "github.com/hugo-lorenzo-mato/corrector/internal/layer"

// EditorialRule is the rendered form of one rule.
type EditorialRule struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Enabled    bool       `json:"enabled"`
	Source     layer.Name `json:"source"`
	SourceName string     `json:"source_name,omitempty"`
	Overridden bool       `json:"overridden"`
	Custom     bool       `json:"custom"`
	BaseText   string     `json:"base_text,omitempty"`
	// TextDiff marks how an override changed the inherited text.
	TextDiff   string     `json:"text_diff,omitempty"`
}

// IsCustom reports whether the rule is owned by the editing layer.
func (r EditorialRule) IsCustom() bool {
	return r.Custom
}

// Origin is a rule as contributed by an outer layer.
type Origin struct {
	Rule       layer.Rule
	Source     layer.Name
	SourceName string
}

// Entry is one merged rule: Inherited, Overridden or Custom.
type Entry interface {
	ID() string
	entry()
}

// Inherited is an outer rule with no patch at the editing layer.
type Inherited struct {
	Base Origin
}

// Overridden is an outer rule shadowed by a patch at the editing layer.
type Overridden struct {
	Base  Origin
	Patch layer.Rule
}

// Custom is a rule owned by the editing layer.
type Custom struct {
	Rule       layer.Rule
	Source     layer.Name
	SourceName string
}

func (e Inherited) ID() string  { return e.Base.Rule.ID }
func (e Overridden) ID() string { return e.Base.Rule.ID }
func (e Custom) ID() string     { return e.Rule.ID }

func (Inherited) entry()  {}
func (Overridden) entry() {}
func (Custom) entry()     {}

// Project collapses an entry into its rendered rule.
func Project(e Entry) EditorialRule {
	switch e := e.(type) {
	case Inherited:
		return EditorialRule{
			ID:         e.Base.Rule.ID,
			Text:       e.Base.Rule.Text,
			Enabled:    e.Base.Rule.Enabled,
			Source:     e.Base.Source,
			SourceName: e.Base.SourceName,
		}
	case Overridden:
		r := EditorialRule{
			ID:         e.Base.Rule.ID,
			Text:       e.Patch.Text,
			Enabled:    e.Patch.Enabled,
			Source:     e.Base.Source,
			SourceName: e.Base.SourceName,
			Overridden: true,
			BaseText:   e.Base.Rule.Text,
		}
		if r.Text != r.BaseText {
			r.TextDiff = TextDiff(r.BaseText, r.Text)
		}
		return r
	case Custom:
		return EditorialRule{
			ID:         e.Rule.ID,
			Text:       e.Rule.Text,
			Enabled:    e.Rule.Enabled,
			Source:     e.Source,
			SourceName: e.SourceName,
			Custom:     true,
		}
	}
	return EditorialRule{}
}
