package detect

import (
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Preset identifiers in declaration order. Ties between presets resolve to
// the first declared.
const (
	PresetDefault    = "default"
	PresetNovel      = "novel"
	PresetTechnical  = "technical"
	PresetLegal      = "legal"
	PresetMedical    = "medical"
	PresetJournalism = "journalism"
	PresetSelfhelp   = "selfhelp"
)

// PresetIDs returns preset identifiers in declaration order.
func PresetIDs() []string {
	return []string{PresetDefault, PresetNovel, PresetTechnical, PresetLegal, PresetMedical, PresetJournalism, PresetSelfhelp}
}

// Preset is a complete candidate customization layer plus display metadata.
type Preset struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Layer       *layer.Layer `json:"layer"`
}

type presetDef struct {
	name, description string
	values            map[string]schema.Value
}

var nonNarrative = map[string]schema.Value{
	"dialogue.enabled":                       schema.Bool(false),
	"structure.timeline_enabled":             schema.Bool(false),
	"structure.relationships_enabled":        schema.Bool(false),
	"structure.behavior_consistency_enabled": schema.Bool(false),
	"structure.scenes_enabled":               schema.Bool(false),
	"structure.location_tracking_enabled":    schema.Bool(false),
	"structure.vital_status_enabled":         schema.Bool(false),
}

var presetDefs = map[string]presetDef{
	PresetDefault: {
		name:        "Por defecto",
		description: "Configuración general sin especialización",
	},
	PresetNovel: {
		name:        "Novela",
		description: "Novela literaria: diálogos con raya, registro mixto permitido",
		values: merge(schema.MarkerPreset(schema.MarkerSpanishTraditional), map[string]schema.Value{
			"repetition.tolerance":    schema.String("low"),
			"repetition.min_distance": schema.Int(30),
			"style.register":          schema.String("neutral"),
			"style.analyze_register":  schema.Bool(false),
		}),
	},
	PresetTechnical: {
		name:        "Manual técnico",
		description: "Documentación técnica: registro formal, tecnicismos esperados",
		values: merge(nonNarrative, map[string]schema.Value{
			"dialogue.textual_quote":    schema.String("double"),
			"repetition.tolerance":      schema.String("very_high"),
			"repetition.min_distance":   schema.Int(100),
			"sentence.max_length_words": schema.Int(25),
			"style.register":            schema.String("formal"),
			"style.analyze_emotions":    schema.Bool(false),
		}),
	},
	PresetLegal: {
		name:        "Jurídico",
		description: "Textos jurídicos: la repetición terminológica es normal",
		values: merge(nonNarrative, map[string]schema.Value{
			"repetition.tolerance":    schema.String("very_high"),
			"repetition.min_distance": schema.Int(150),
			"style.register":          schema.String("formal"),
			"style.analyze_emotions":  schema.Bool(false),
		}),
	},
	PresetMedical: {
		name:        "Médico",
		description: "Textos médicos y científicos",
		values: merge(nonNarrative, map[string]schema.Value{
			"dialogue.textual_quote":  schema.String("double"),
			"repetition.tolerance":    schema.String("very_high"),
			"repetition.min_distance": schema.Int(100),
			"style.register":          schema.String("formal"),
			"style.analyze_emotions":  schema.Bool(false),
		}),
	},
	PresetJournalism: {
		name:        "Periodismo",
		description: "Prensa y reportajes para público general",
		values: merge(nonNarrative, map[string]schema.Value{
			"repetition.tolerance":      schema.String("medium"),
			"repetition.min_distance":   schema.Int(40),
			"sentence.max_length_words": schema.Int(30),
			"style.register":            schema.String("neutral"),
		}),
	},
	PresetSelfhelp: {
		name:        "Autoayuda",
		description: "Tono cercano al lector, registro coloquial",
		values: merge(nonNarrative, map[string]schema.Value{
			"repetition.tolerance":    schema.String("medium"),
			"repetition.min_distance": schema.Int(50),
			"style.register":          schema.String("colloquial"),
		}),
	},
}

func merge(maps ...map[string]schema.Value) map[string]schema.Value {
	out := make(map[string]schema.Value)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Catalog returns every preset as a complete layer: each leaf of s is set,
// either to the preset's value or to the schema default.
func Catalog(s *schema.Schema) []Preset {
	out := make([]Preset, 0, len(presetDefs))
	for _, id := range PresetIDs() {
		def := presetDefs[id]
		l := layer.New(layer.Custom, def.name)
		for _, path := range s.Paths() {
			if v, ok := def.values[path]; ok {
				l.Set(path, v)
				continue
			}
			v, _ := s.Default(path)
			l.Set(path, v)
		}
		out = append(out, Preset{ID: id, Name: def.name, Description: def.description, Layer: l})
	}
	return out
}

// FindPreset looks up a preset by id.
func FindPreset(presets []Preset, id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
