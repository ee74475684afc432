package schema

// Dialogue marker preset names.
const (
	MarkerSpanishTraditional = "spanish_traditional"
	MarkerAngloSaxon         = "anglo_saxon"
	MarkerSpanishQuotes      = "spanish_quotes"
	MarkerDetect             = "detect"
)

var markerPresets = map[string]map[string]Value{
	MarkerSpanishTraditional: {
		"detection_mode":        String("preset"),
		"preset":                String(MarkerSpanishTraditional),
		"spoken_dialogue_dash":  String("em_dash"),
		"spoken_dialogue_quote": String("none"),
		"thoughts_quote":        String("angular"),
		"thoughts_use_italics":  Bool(true),
		"nested_dialogue_quote": String("double"),
		"textual_quote":         String("angular"),
	},
	MarkerAngloSaxon: {
		"detection_mode":        String("preset"),
		"preset":                String(MarkerAngloSaxon),
		"spoken_dialogue_dash":  String("none"),
		"spoken_dialogue_quote": String("double"),
		"thoughts_quote":        String("single"),
		"thoughts_use_italics":  Bool(true),
		"nested_dialogue_quote": String("single"),
		"textual_quote":         String("double"),
	},
	MarkerSpanishQuotes: {
		"detection_mode":        String("preset"),
		"preset":                String(MarkerSpanishQuotes),
		"spoken_dialogue_dash":  String("none"),
		"spoken_dialogue_quote": String("angular"),
		"thoughts_quote":        String("double"),
		"thoughts_use_italics":  Bool(true),
		"nested_dialogue_quote": String("single"),
		"textual_quote":         String("angular"),
	},
	MarkerDetect: {
		"detection_mode":            String("auto"),
		"preset":                    String(MarkerDetect),
		"spoken_dialogue_dash":      String("em_dash"),
		"spoken_dialogue_quote":     String("none"),
		"thoughts_quote":            String("angular"),
		"thoughts_use_italics":      Bool(true),
		"nested_dialogue_quote":     String("double"),
		"textual_quote":             String("angular"),
		"flag_inconsistent_markers": Bool(true),
	},
}

// MarkerPresetNames lists the dialogue marker presets.
func MarkerPresetNames() []string {
	return []string{MarkerSpanishTraditional, MarkerAngloSaxon, MarkerSpanishQuotes, MarkerDetect}
}

// MarkerPreset expands a dialogue marker preset into leaf values keyed by
// full path. Unknown names fall back to spanish_traditional.
func MarkerPreset(name string) map[string]Value {
	preset, ok := markerPresets[name]
	if !ok {
		preset = markerPresets[MarkerSpanishTraditional]
	}
	out := make(map[string]Value, len(preset))
	for field, v := range preset {
		out[CategoryDialogue+"."+field] = v.Clone()
	}
	return out
}
