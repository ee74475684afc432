package schema

import "sync"

// Category names of the correction configuration.
const (
	CategoryDialogue    = "dialogue"
	CategoryRepetition  = "repetition"
	CategorySentence    = "sentence"
	CategoryStyle       = "style"
	CategoryStructure   = "structure"
	CategoryReadability = "readability"
)

var (
	dashOptions      = []string{"em_dash", "en_dash", "hyphen", "none", "auto"}
	quoteOptions     = []string{"angular", "double", "single", "none", "auto"}
	toleranceOptions = []string{"very_high", "high", "medium", "low"}
	registerOptions  = []string{"formal", "neutral", "colloquial"}
	regionOptions    = []string{"es_ES", "es_MX", "es_AR", "es_CO", "es_CL", "es_PE", "es_US"}
)

var (
	correctionOnce   sync.Once
	correctionSchema *Schema
)

// Correction returns the built-in correction configuration schema.
func Correction() *Schema {
	correctionOnce.Do(func() {
		correctionSchema = MustNew(correctionFields()...)
	})
	return correctionSchema
}

func correctionFields() []Field {
	b := func(cat, name string, def bool, desc string) Field {
		return Field{Category: cat, Name: name, Kind: KindBoolean, Default: Bool(def), Description: desc}
	}
	enum := func(cat, name, def string, opts []string, desc string) Field {
		return Field{Category: cat, Name: name, Kind: KindEnum, Default: String(def), Options: opts, Description: desc}
	}
	bounded := func(cat, name string, def Value, lo, hi float64, nullable bool, desc string) Field {
		return Field{Category: cat, Name: name, Kind: KindBoundedInteger, Default: def, Min: lo, Max: hi, Nullable: nullable, Description: desc}
	}
	pct := func(cat, name string, def float64, desc string) Field {
		return Field{Category: cat, Name: name, Kind: KindNumber, Default: Number(def), Min: 0, Max: 100, Description: desc}
	}

	return []Field{
		b(CategoryDialogue, "enabled", true, "Analyze dialogue"),
		enum(CategoryDialogue, "detection_mode", "preset", []string{"auto", "preset", "custom"}, "How dialogue markers are determined"),
		enum(CategoryDialogue, "preset", MarkerSpanishTraditional, MarkerPresetNames(), "Dialogue marker preset"),
		enum(CategoryDialogue, "spoken_dialogue_dash", "em_dash", dashOptions, "Dash that opens spoken dialogue"),
		enum(CategoryDialogue, "spoken_dialogue_quote", "none", quoteOptions, "Quote used for spoken dialogue when no dash is used"),
		enum(CategoryDialogue, "thoughts_quote", "angular", quoteOptions, "Quote used for inner thoughts"),
		b(CategoryDialogue, "thoughts_use_italics", true, "Inner thoughts use italics"),
		enum(CategoryDialogue, "nested_dialogue_quote", "double", quoteOptions, "Quote used for dialogue inside dialogue"),
		enum(CategoryDialogue, "textual_quote", "angular", quoteOptions, "Quote used for verbatim citations"),
		b(CategoryDialogue, "flag_inconsistent_markers", true, "Alert when a marker differs from the configured one"),
		b(CategoryDialogue, "analyze_dialog_tags", true, "Analyze variation of speech verbs"),
		bounded(CategoryDialogue, "dialog_tag_variation_min", Int(3), 1, 10, false, "Distinct speech verbs required before alerting"),
		b(CategoryDialogue, "flag_consecutive_same_tag", true, "Alert on consecutive identical speech verbs"),

		b(CategoryRepetition, "enabled", true, "Analyze repetitions"),
		enum(CategoryRepetition, "tolerance", "medium", toleranceOptions, "Occurrences tolerated before alerting"),
		bounded(CategoryRepetition, "proximity_window_chars", Int(150), 20, 2000, false, "Proximity window in characters"),
		bounded(CategoryRepetition, "min_word_length", Int(4), 1, 15, false, "Minimum tracked word length"),
		{Category: CategoryRepetition, Name: "min_distance", Kind: KindInteger, Default: Int(50), Min: 0, Description: "Minimum distance in words between repeated terms"},
		{Category: CategoryRepetition, Name: "ignore_words", Kind: KindStringList, Default: List(), Description: "Words never reported"},
		b(CategoryRepetition, "flag_lack_of_repetition", false, "Alert on lack of repetition (early readers)"),

		b(CategorySentence, "enabled", true, "Analyze sentences"),
		bounded(CategorySentence, "max_length_words", Null(), 5, 100, true, "Maximum sentence length in words; null for no limit"),
		bounded(CategorySentence, "recommended_length_words", Int(25), 5, 100, true, "Recommended sentence length in words"),
		b(CategorySentence, "analyze_complexity", true, "Analyze syntactic complexity"),
		pct(CategorySentence, "passive_voice_tolerance_pct", 15, "Tolerated share of passive voice"),
		pct(CategorySentence, "adverb_tolerance_pct", 5, "Tolerated share of -mente adverbs"),

		b(CategoryStyle, "enabled", true, "Analyze style"),
		b(CategoryStyle, "analyze_sentence_starts", true, "Analyze variation of sentence starts"),
		b(CategoryStyle, "analyze_sticky_sentences", true, "Analyze sticky sentences"),
		pct(CategoryStyle, "sticky_threshold_pct", 45, "Share of glue words that makes a sentence sticky"),
		b(CategoryStyle, "analyze_register", true, "Analyze register shifts"),
		b(CategoryStyle, "analyze_emotions", true, "Analyze emotional tone"),
		enum(CategoryStyle, "register", "neutral", registerOptions, "Expected register"),
		enum(CategoryStyle, "target_region", "es_ES", regionOptions, "Target regional variant"),

		b(CategoryStructure, "timeline_enabled", true, "Analyze timeline"),
		b(CategoryStructure, "relationships_enabled", true, "Analyze character relationships"),
		b(CategoryStructure, "behavior_consistency_enabled", true, "Analyze behavior consistency"),
		b(CategoryStructure, "scenes_enabled", true, "Detect scene changes"),
		b(CategoryStructure, "location_tracking_enabled", true, "Track character locations"),
		b(CategoryStructure, "vital_status_enabled", true, "Track vital status"),

		b(CategoryReadability, "enabled", false, "Analyze readability for a target age"),
		bounded(CategoryReadability, "target_age_min", Null(), 0, 18, true, "Minimum target reader age"),
		bounded(CategoryReadability, "target_age_max", Null(), 0, 18, true, "Maximum target reader age"),
		b(CategoryReadability, "analyze_vocabulary_age", false, "Check vocabulary against reader age"),
		{Category: CategoryReadability, Name: "max_vocabulary_size", Kind: KindInteger, Default: Null(), Nullable: true, Min: 0, Description: "Maximum distinct vocabulary size"},
	}
}

// PathRepetitionTolerance is the leaf the repetition threshold derives from.
const PathRepetitionTolerance = CategoryRepetition + ".tolerance"

// ToleranceThreshold returns how many occurrences within the proximity
// window trigger a repetition alert for a tolerance level.
func ToleranceThreshold(tolerance string) (int, bool) {
	switch tolerance {
	case "very_high":
		return 5, true
	case "high":
		return 4, true
	case "medium":
		return 3, true
	case "low":
		return 2, true
	}
	return 0, false
}
