package doctype

import (
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

type cfg = map[string]any

// FallbackCode is the type used when a document has no known type.
const FallbackCode = "FIC"

func allStructure(on bool) cfg {
	return cfg{
		"timeline_enabled":             on,
		"relationships_enabled":        on,
		"behavior_consistency_enabled": on,
		"scenes_enabled":               on,
	}
}

func withMarkers(preset string, dialogue cfg) cfg {
	out := cfg{}
	for path, v := range schema.MarkerPreset(preset) {
		_, name, _ := schema.SplitPath(path)
		out[name] = v
	}
	for k, v := range dialogue {
		out[k] = v
	}
	return out
}

var (
	ruleDoubleSpaces   = layer.Rule{ID: "double_spaces", Text: "No debe haber espacios dobles", Enabled: true}
	rulePorContra      = layer.Rule{ID: "por_contra", Text: "'Por contra' debe ser 'por el contrario'", Enabled: true}
	ruleRestoDe        = layer.Rule{ID: "resto_de_articulo", Text: "'El resto de X' requiere artículo: 'el resto del/de los/de la/de las X'", Enabled: true}
	ruleMayoriaDe      = layer.Rule{ID: "mayoria_de_articulo", Text: "'La mayoría de X' requiere artículo", Enabled: true}
	ruleBodyParts      = layer.Rule{ID: "singular_body_parts", Text: "Partes del cuerpo únicas (corazón, mente, vida) en singular con posesivos plurales", Enabled: true}
	ruleAgeDigits      = layer.Rule{ID: "age_with_digits", Text: "Las edades se escriben con cifras", Enabled: true}
	ruleYearsInLetters = layer.Rule{ID: "years_with_letters", Text: "Los periodos de tiempo se escriben con letra", Enabled: true}
)

func baseRules(extra ...layer.Rule) []layer.Rule {
	out := []layer.Rule{ruleDoubleSpaces, rulePorContra, ruleRestoDe, ruleMayoriaDe}
	return append(out, extra...)
}

var narrativeRules = baseRules(ruleBodyParts, ruleAgeDigits, ruleYearsInLetters)

var builtinTypes = []Type{
	{
		Code:        "FIC",
		Name:        "Ficción",
		Description: "Novela, relatos, ciencia ficción, fantasía, romance, thriller...",
		Aliases:     []string{"fiction", "ficcion", "novel"},
		config: cfg{
			"dialogue": withMarkers(schema.MarkerSpanishTraditional, cfg{
				"enabled":                   true,
				"analyze_dialog_tags":       true,
				"flag_inconsistent_markers": true,
			}),
			"repetition":  cfg{"tolerance": "medium", "proximity_window_chars": 150},
			"sentence":    cfg{"max_length_words": nil, "recommended_length_words": 25},
			"style":       cfg{"enabled": true},
			"structure":   allStructure(true),
			"readability": cfg{"enabled": false},
		},
		rules: narrativeRules,
		Subtypes: []Subtype{
			{Code: "FIC_LIT", Name: "Novela literaria", config: cfg{
				"repetition": cfg{"tolerance": "low"},
				"sentence":   cfg{"recommended_length_words": 30},
			}},
			{Code: "FIC_GEN", Name: "Novela de género"},
			{Code: "FIC_HIS", Name: "Novela histórica", config: cfg{"repetition": cfg{"tolerance": "medium"}}},
			{Code: "FIC_COR", Name: "Relato/Cuento", config: cfg{"structure": cfg{"scenes_enabled": false}}},
			{Code: "FIC_MIC", Name: "Microrrelatos", config: cfg{
				"repetition": cfg{"tolerance": "low"},
				"sentence":   cfg{"max_length_words": 20},
				"structure":  cfg{"timeline_enabled": false, "scenes_enabled": false},
			}},
		},
	},
	{
		Code:        "MEM",
		Name:        "Memorias",
		Description: "Autobiografía, memorias personales, diarios",
		Aliases:     []string{"memoir", "memorias"},
		config: cfg{
			"dialogue":   cfg{"enabled": true, "analyze_dialog_tags": false},
			"repetition": cfg{"tolerance": "medium"},
			"sentence":   cfg{"max_length_words": nil},
			"style":      cfg{"enabled": true},
			"structure": cfg{
				"timeline_enabled":             true,
				"relationships_enabled":        true,
				"behavior_consistency_enabled": false,
				"scenes_enabled":               false,
			},
			"readability": cfg{"enabled": false},
		},
		rules: narrativeRules,
		Subtypes: []Subtype{
			{Code: "MEM_AUT", Name: "Autobiografía completa", config: cfg{"structure": cfg{"timeline_enabled": true}}},
			{Code: "MEM_PAR", Name: "Memorias parciales"},
			{Code: "MEM_DIA", Name: "Diario/Epistolario", config: cfg{
				"structure": cfg{"timeline_enabled": true},
				"style":     cfg{"analyze_register": false},
			}},
		},
	},
	{
		Code:        "BIO",
		Name:        "Biografía",
		Description: "Biografías de terceros, perfiles, semblanzas",
		Aliases:     []string{"biography", "biografia"},
		config: cfg{
			"dialogue":   cfg{"enabled": false},
			"repetition": cfg{"tolerance": "medium"},
			"sentence":   cfg{"max_length_words": nil},
			"style":      cfg{"enabled": true},
			"structure": cfg{
				"timeline_enabled":             true,
				"relationships_enabled":        true,
				"behavior_consistency_enabled": false,
				"scenes_enabled":               false,
			},
			"readability": cfg{"enabled": false},
		},
		rules: narrativeRules,
		Subtypes: []Subtype{
			{Code: "BIO_AUT", Name: "Biografía autorizada"},
			{Code: "BIO_HIS", Name: "Biografía histórica", config: cfg{"repetition": cfg{"tolerance": "high"}}},
			{Code: "BIO_COL", Name: "Biografía colectiva"},
		},
	},
	{
		Code:        "CEL",
		Name:        "Famosos/Influencers",
		Description: "Libros de celebridades, youtubers, deportistas...",
		Aliases:     []string{"celebrity", "famosos"},
		config: cfg{
			"dialogue":    cfg{"enabled": true, "analyze_dialog_tags": false},
			"repetition":  cfg{"tolerance": "high"},
			"sentence":    cfg{"max_length_words": nil},
			"style":       cfg{"enabled": true, "analyze_register": false},
			"structure":   allStructure(false),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(ruleAgeDigits),
		Subtypes: []Subtype{
			{Code: "CEL_MEM", Name: "Memorias de famoso"},
			{Code: "CEL_CON", Name: "Consejos/Método", config: cfg{"repetition": cfg{"tolerance": "very_high"}}},
			{Code: "CEL_ENT", Name: "Entrevistas/Anécdotas", config: cfg{"dialogue": cfg{"enabled": true}}},
		},
	},
	{
		Code:        "DIV",
		Name:        "Divulgación",
		Description: "Divulgación científica, histórica, cultural",
		Aliases:     []string{"popular_science", "divulgacion"},
		config: cfg{
			"dialogue":    cfg{"enabled": false},
			"repetition":  cfg{"tolerance": "high"},
			"sentence":    cfg{"max_length_words": nil},
			"style":       cfg{"enabled": true, "analyze_emotions": false},
			"structure":   allStructure(false),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(ruleYearsInLetters),
		Subtypes: []Subtype{
			{Code: "DIV_CIE", Name: "Divulgación científica"},
			{Code: "DIV_HIS", Name: "Divulgación histórica", config: cfg{"structure": cfg{"timeline_enabled": true}}},
			{Code: "DIV_CUL", Name: "Divulgación cultural"},
		},
	},
	{
		Code:        "ENS",
		Name:        "Ensayo",
		Description: "Ensayo académico, literario, filosófico",
		Aliases:     []string{"essay", "ensayo"},
		config: cfg{
			"dialogue":    cfg{"enabled": false},
			"repetition":  cfg{"tolerance": "high"},
			"sentence":    cfg{"max_length_words": nil},
			"style":       cfg{"enabled": true, "analyze_emotions": false},
			"structure":   allStructure(false),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(),
		Subtypes: []Subtype{
			{Code: "ENS_ACA", Name: "Ensayo académico", config: cfg{"repetition": cfg{"tolerance": "very_high"}}},
			{Code: "ENS_LIT", Name: "Ensayo literario", config: cfg{"style": cfg{"enabled": true}}},
			{Code: "ENS_FIL", Name: "Ensayo filosófico"},
			{Code: "ENS_POL", Name: "Ensayo político/social"},
		},
	},
	{
		Code:        "AUT",
		Name:        "Autoayuda",
		Description: "Desarrollo personal, coaching, bienestar",
		Aliases:     []string{"selfhelp", "self_help", "autoayuda"},
		config: cfg{
			"dialogue":    cfg{"enabled": false},
			"repetition":  cfg{"tolerance": "high"},
			"sentence":    cfg{"max_length_words": 30},
			"style":       cfg{"enabled": true},
			"structure":   allStructure(false),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(),
		Subtypes: []Subtype{
			{Code: "AUT_DES", Name: "Desarrollo personal"},
			{Code: "AUT_PRO", Name: "Productividad/Negocios"},
			{Code: "AUT_BIE", Name: "Bienestar/Salud"},
			{Code: "AUT_REL", Name: "Relaciones/Familia"},
		},
	},
	{
		Code:        "TEC",
		Name:        "Manual técnico",
		Description: "Documentación técnica, manuales de software/hardware",
		Aliases:     []string{"technical", "tecnico", "manual"},
		config: cfg{
			"dialogue":    cfg{"enabled": false},
			"repetition":  cfg{"tolerance": "very_high"},
			"sentence":    cfg{"max_length_words": 25, "analyze_complexity": true},
			"style":       cfg{"enabled": false},
			"structure":   allStructure(false),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(),
		Subtypes: []Subtype{
			{Code: "TEC_SOF", Name: "Manual de software"},
			{Code: "TEC_HAR", Name: "Manual de hardware"},
			{Code: "TEC_PRO", Name: "Manual de procedimientos"},
		},
	},
	{
		Code:        "PRA",
		Name:        "Libro práctico",
		Description: "Cocina, jardinería, manualidades, guías de viaje",
		Aliases:     []string{"practical", "practico"},
		config: cfg{
			"dialogue":    cfg{"enabled": false},
			"repetition":  cfg{"tolerance": "very_high"},
			"sentence":    cfg{"max_length_words": 20},
			"style":       cfg{"enabled": false},
			"structure":   allStructure(false),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(),
		Subtypes: []Subtype{
			{Code: "PRA_COC", Name: "Libro de cocina"},
			{Code: "PRA_JAR", Name: "Jardinería"},
			{Code: "PRA_MAN", Name: "Manualidades/DIY"},
			{Code: "PRA_VIA", Name: "Guía de viajes"},
			{Code: "PRA_DEP", Name: "Deportes/Fitness"},
		},
	},
	{
		Code:        "GRA",
		Name:        "Novela gráfica",
		Description: "Cómic, manga, novela gráfica, libro ilustrado",
		Aliases:     []string{"graphic", "grafica", "comic"},
		config: cfg{
			"dialogue":   cfg{"enabled": true, "analyze_dialog_tags": false},
			"repetition": cfg{"tolerance": "high"},
			"sentence":   cfg{"max_length_words": 15},
			"style":      cfg{"enabled": false},
			"structure": cfg{
				"timeline_enabled":             true,
				"relationships_enabled":        true,
				"behavior_consistency_enabled": true,
				"scenes_enabled":               false,
			},
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(),
		Subtypes: []Subtype{
			{Code: "GRA_COM", Name: "Cómic occidental"},
			{Code: "GRA_MAN", Name: "Manga", config: cfg{"sentence": cfg{"max_length_words": 20}}},
			{Code: "GRA_NOV", Name: "Novela gráfica", config: cfg{"sentence": cfg{"max_length_words": 25}}},
			{Code: "GRA_ILU", Name: "Libro ilustrado"},
		},
	},
	{
		Code:        "INF",
		Name:        "Infantil/Juvenil",
		Description: "Literatura para niños y adolescentes",
		Aliases:     []string{"children", "infantil", "juvenil"},
		config: cfg{
			"dialogue":    cfg{"enabled": true, "analyze_dialog_tags": true},
			"repetition":  cfg{"tolerance": "high"},
			"sentence":    cfg{"max_length_words": 20},
			"style":       cfg{"enabled": true},
			"structure":   allStructure(true),
			"readability": cfg{"enabled": true},
		},
		rules: narrativeRules,
		Subtypes: []Subtype{
			{Code: "INF_CAR", Name: "Cartoné (0-3 años)", config: cfg{
				"dialogue":   cfg{"enabled": false},
				"repetition": cfg{"tolerance": "very_high", "flag_lack_of_repetition": true},
				"sentence":   cfg{"max_length_words": 5},
				"style":      cfg{"enabled": false},
				"structure": cfg{
					"timeline_enabled":      false,
					"relationships_enabled": false,
					"scenes_enabled":        false,
				},
				"readability": cfg{"enabled": true, "target_age_min": 0, "target_age_max": 3, "max_vocabulary_size": 200},
			}},
			{Code: "INF_ALB", Name: "Álbum ilustrado (3-5 años)", config: cfg{
				"dialogue":    cfg{"enabled": true, "analyze_dialog_tags": false},
				"repetition":  cfg{"tolerance": "very_high", "flag_lack_of_repetition": true},
				"sentence":    cfg{"max_length_words": 8},
				"style":       cfg{"enabled": false},
				"structure":   cfg{"timeline_enabled": false, "scenes_enabled": false},
				"readability": cfg{"enabled": true, "target_age_min": 3, "target_age_max": 5, "max_vocabulary_size": 500},
			}},
			{Code: "INF_PRI", Name: "Primeras lecturas (5-8 años)", config: cfg{
				"dialogue":    cfg{"enabled": true},
				"repetition":  cfg{"tolerance": "high"},
				"sentence":    cfg{"max_length_words": 12},
				"style":       cfg{"enabled": true, "analyze_sticky_sentences": false},
				"structure":   cfg{"timeline_enabled": true, "scenes_enabled": false},
				"readability": cfg{"enabled": true, "target_age_min": 5, "target_age_max": 8, "max_vocabulary_size": 2000},
			}},
			{Code: "INF_CAP", Name: "Novela por capítulos (6-10 años)", config: cfg{
				"dialogue":    cfg{"enabled": true},
				"repetition":  cfg{"tolerance": "medium"},
				"sentence":    cfg{"max_length_words": 15},
				"style":       cfg{"enabled": true},
				"structure":   cfg{"timeline_enabled": true, "scenes_enabled": true},
				"readability": cfg{"enabled": true, "target_age_min": 6, "target_age_max": 10, "max_vocabulary_size": 5000},
			}},
			{Code: "INF_MID", Name: "Middle grade (8-12 años)", config: cfg{
				"dialogue":    cfg{"enabled": true},
				"repetition":  cfg{"tolerance": "medium"},
				"sentence":    cfg{"max_length_words": 20},
				"style":       cfg{"enabled": true},
				"structure":   cfg{"timeline_enabled": true, "scenes_enabled": true},
				"readability": cfg{"enabled": true, "target_age_min": 8, "target_age_max": 12},
			}},
			{Code: "INF_YA", Name: "Young Adult (12+ años)", config: cfg{
				"dialogue":   cfg{"enabled": true, "analyze_dialog_tags": true},
				"repetition": cfg{"tolerance": "medium"},
				"sentence":   cfg{"max_length_words": 25},
				"style":      cfg{"enabled": true},
				"structure": cfg{
					"timeline_enabled":             true,
					"scenes_enabled":               true,
					"behavior_consistency_enabled": true,
				},
				"readability": cfg{"enabled": true, "target_age_min": 12, "target_age_max": 18},
			}},
		},
	},
	{
		Code:        "DRA",
		Name:        "Teatro/Guion",
		Description: "Obras de teatro, guiones de cine/TV",
		Aliases:     []string{"drama", "teatro", "script"},
		config: cfg{
			"dialogue":    cfg{"enabled": true, "analyze_dialog_tags": false},
			"repetition":  cfg{"tolerance": "medium"},
			"sentence":    cfg{"max_length_words": nil},
			"style":       cfg{"enabled": false},
			"structure":   allStructure(true),
			"readability": cfg{"enabled": false},
		},
		rules: baseRules(),
		Subtypes: []Subtype{
			{Code: "DRA_TEA", Name: "Teatro"},
			{Code: "DRA_GUI", Name: "Guion de cine/TV"},
			{Code: "DRA_RAD", Name: "Guion de radio/podcast", config: cfg{"dialogue": cfg{"enabled": true}}},
		},
	},
}
