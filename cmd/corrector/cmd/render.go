package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/doctype"
	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

type styles struct {
	title    lipgloss.Style
	category lipgloss.Style
	key      lipgloss.Style
	value    lipgloss.Style
	source   lipgloss.Style
	custom   lipgloss.Style
	muted    lipgloss.Style
}

// newStyles builds styles for w. Writers that are not color terminals, and
// --no-color, get plain text.
func newStyles(w io.Writer) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain.Width(34), plain.Width(24), plain, plain, plain}
	}
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		category: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		key:      r.NewStyle().Width(34),
		value:    r.NewStyle().Width(24).Foreground(lipgloss.Color("#F59E0B")),
		source:   r.NewStyle().Faint(true),
		custom:   r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		muted:    r.NewStyle().Faint(true),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sourceLabel(p resolver.Provenance) string {
	label := p.Layer.String()
	if p.SourceName != "" {
		label += " · " + p.SourceName
	}
	if p.Implicit {
		label += " (default)"
	}
	return label
}

// renderView prints the effective configuration grouped by category, with
// the layer each value comes from. Paths customized at the editing layer
// are marked with *.
func renderView(w io.Writer, view editor.View) string {
	st := newStyles(w)
	var b strings.Builder

	header := fmt.Sprintf("%s  (editing %s layer)", view.Scope.Key(), view.Target)
	if view.Dirty {
		header += "  [unsaved]"
	}
	b.WriteString(st.title.Render(header) + "\n")

	snap := view.Config
	for _, category := range snap.Schema().Categories() {
		b.WriteString("\n" + st.category.Render(category) + "\n")
		for _, path := range snap.Schema().CategoryPaths(category) {
			v, _ := snap.Value(path)
			prov, _ := snap.Provenance(path)
			_, name, _ := strings.Cut(path, ".")
			marker := "  "
			if slices.Contains(view.Custom, path) {
				marker = st.custom.Render("* ")
			}
			b.WriteString(marker + st.key.Render(name) + st.value.Render(v.String()) +
				st.source.Render(sourceLabel(prov)) + "\n")
		}
		if category == schema.CategoryRepetition && view.RepetitionThreshold > 0 {
			b.WriteString("  " + st.muted.Render(fmt.Sprintf("alerts at %d occurrences within the proximity window",
				view.RepetitionThreshold)) + "\n")
		}
	}

	if len(view.Rules) > 0 {
		b.WriteString("\n" + st.category.Render("rules") + "\n")
		for _, r := range view.Rules {
			b.WriteString(renderRule(st, r) + "\n")
		}
	}
	return b.String()
}

func renderRule(st styles, r rules.EditorialRule) string {
	check := "[ ]"
	if r.Enabled {
		check = "[x]"
	}
	origin := r.Source.String()
	if r.SourceName != "" {
		origin += " · " + r.SourceName
	}
	switch {
	case r.Custom:
		origin = st.custom.Render("custom")
	case r.Overridden:
		origin += ", " + st.custom.Render("edited")
	}
	line := fmt.Sprintf("  %s %s %s %s", check, st.key.Render(r.ID), r.Text, st.muted.Render("("+origin+")"))
	if r.TextDiff != "" {
		line += "\n      " + st.muted.Render(r.TextDiff)
	}
	return line
}

func renderDetection(w io.Writer, res detect.Result) string {
	st := newStyles(w)
	var b strings.Builder
	if res.Detected {
		b.WriteString(st.title.Render(fmt.Sprintf("Suggested preset: %s (confidence %.0f%%)",
			res.SuggestedPresetID, res.Confidence*100)) + "\n")
	} else {
		b.WriteString(st.title.Render("No preset suggested") + "\n")
	}
	for _, reason := range res.Reasons {
		b.WriteString("  - " + reason + "\n")
	}
	return b.String()
}

func renderTypes(w io.Writer, types []doctype.Type) string {
	st := newStyles(w)
	var b strings.Builder
	for _, t := range types {
		b.WriteString(st.category.Render(t.Code) + "  " + t.Name + "\n")
		for _, s := range t.Subtypes {
			b.WriteString("  " + st.key.Render(s.Code) + s.Name + "\n")
		}
	}
	return b.String()
}

func renderMatches(w io.Writer, matches []doctype.Match) string {
	st := newStyles(w)
	var b strings.Builder
	for _, m := range matches {
		line := st.key.Render(m.Code) + m.Name
		if m.Parent != "" {
			line += st.muted.Render("  (" + m.Parent + ")")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func renderPresets(w io.Writer, presets []detect.Preset) string {
	st := newStyles(w)
	var b strings.Builder
	for _, p := range presets {
		b.WriteString(st.key.Render(p.ID) + p.Name + st.muted.Render("  "+p.Description) + "\n")
	}
	return b.String()
}
