package detect

import (
	"strings"
	"unicode"
)

// Document fields.
const (
	FieldGeneral      = "general"
	FieldLiterary     = "literary"
	FieldJournalistic = "journalistic"
	FieldAcademic     = "academic"
	FieldTechnical    = "technical"
	FieldLegal        = "legal"
	FieldMedical      = "medical"
	FieldBusiness     = "business"
	FieldSelfhelp     = "selfhelp"
	FieldCulinary     = "culinary"
)

// Registers.
const (
	RegisterFormal     = "formal"
	RegisterNeutral    = "neutral"
	RegisterColloquial = "colloquial"
)

// Audiences.
const (
	AudienceGeneral    = "general"
	AudienceChildren   = "children"
	AudienceAdult      = "adult"
	AudienceSpecialist = "specialist"
	AudienceMixed      = "mixed"
)

// DefaultRegion is assumed when regional vocabulary is inconclusive.
const DefaultRegion = "es_ES"

// Features are the observable properties of a document that detection
// scores. Empty strings and a nil HasDialogue mean "unknown" and cast no vote.
type Features struct {
	Field           string  `json:"field,omitempty" yaml:"field,omitempty" toml:"field,omitempty"`
	Register        string  `json:"register,omitempty" yaml:"register,omitempty" toml:"register,omitempty"`
	Audience        string  `json:"audience,omitempty" yaml:"audience,omitempty" toml:"audience,omitempty"`
	HasDialogue     *bool   `json:"has_dialogue,omitempty" yaml:"has_dialogue,omitempty" toml:"has_dialogue,omitempty"`
	DialogueCount   int     `json:"dialogue_count,omitempty" yaml:"dialogue_count,omitempty" toml:"dialogue_count,omitempty"`
	DialogueDensity float64 `json:"dialogue_density,omitempty" yaml:"dialogue_density,omitempty" toml:"dialogue_density,omitempty"`
	Region          string  `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
}

// Normalize lower-cases categorical features, keeping the region code as is.
func (f Features) Normalize() Features {
	f.Field = strings.ToLower(strings.TrimSpace(f.Field))
	f.Register = strings.ToLower(strings.TrimSpace(f.Register))
	f.Audience = strings.ToLower(strings.TrimSpace(f.Audience))
	f.Region = strings.TrimSpace(f.Region)
	if f.HasDialogue != nil {
		v := *f.HasDialogue
		f.HasDialogue = &v
	}
	return f
}

// Dialogue returns a pointer to v, for building Features literals.
func Dialogue(v bool) *bool {
	return &v
}

const (
	sampleLimit        = 50000
	dialogueThreshold  = 10
	literaryFieldLimit = 20
	fieldMinScore      = 15
	regionMinScore     = 3
)

var (
	dialogueMarks = []string{"—", "–"}
	speechVerbs   = []string{
		"dijo", "preguntó", "respondió", "exclamó", "susurró",
		"murmuró", "gritó", "contestó", "añadió", "explicó",
	}
	formalIndicators = []string{
		"asimismo", "no obstante", "cabe destacar", "en consecuencia",
		"por consiguiente", "dicho lo cual", "en virtud de", "habida cuenta",
	}
	colloquialIndicators = []string{
		"vale", "tío", "mola", "guay", "flipar", "curro", "pasta",
		"joder", "hostia", "coño", "gilipollas", "mierda",
	}
	fieldTerms = []struct {
		field  string
		weight int
		terms  []string
	}{
		{FieldLegal, 2, []string{"demandante", "demandado", "sentencia", "recurso", "tribunal", "jurisprudencia", "ley", "artículo", "código", "contrato"}},
		{FieldMedical, 2, []string{"paciente", "diagnóstico", "tratamiento", "síntoma", "enfermedad", "medicamento", "dosis", "clínico"}},
		{FieldTechnical, 1, []string{"código", "programa", "sistema", "datos", "servidor", "aplicación", "usuario", "interfaz", "algoritmo"}},
	}
	regionalTerms = map[string][]string{
		"es_ES": {"ordenador", "móvil", "coche", "piso", "vale", "mola", "guay", "tío", "tíos", "curro", "pasta", "chaval", "majo", "gilipollas"},
		"es_MX": {"computadora", "celular", "carro", "departamento", "chido", "güey", "chamba", "lana", "chamaco"},
		"es_AR": {"laburo", "guita", "pibe", "copado", "boludo", "che", "dale"},
	}
	regionOrder = []string{"es_ES", "es_MX", "es_AR"}
)

// ExtractFeatures derives detection features from a manuscript sample. Only
// the first 50000 characters are inspected. Audience cannot be inferred from
// text and is left unknown.
func ExtractFeatures(text string) Features {
	sample := strings.ToLower(truncate(text, sampleLimit))
	words := tokenize(sample)
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	joined := " " + strings.Join(words, " ") + " "
	count := func(term string) int {
		if strings.Contains(term, " ") {
			return strings.Count(joined, " "+term+" ")
		}
		return counts[term]
	}

	var f Features

	dialogue := 0
	for _, m := range dialogueMarks {
		dialogue += strings.Count(sample, m)
	}
	for _, v := range speechVerbs {
		dialogue += count(v)
	}
	f.DialogueCount = dialogue
	f.HasDialogue = Dialogue(dialogue > dialogueThreshold)
	if len(words) > 0 {
		f.DialogueDensity = float64(dialogue) * 1000 / float64(len(words))
	}

	formal, colloquial := 0, 0
	for _, t := range formalIndicators {
		formal += count(t)
	}
	for _, t := range colloquialIndicators {
		colloquial += count(t)
	}
	switch {
	case formal > colloquial*2:
		f.Register = RegisterFormal
	case colloquial > formal*2:
		f.Register = RegisterColloquial
	default:
		f.Register = RegisterNeutral
	}

	scores := map[string]int{}
	for _, group := range fieldTerms {
		for _, t := range group.terms {
			scores[group.field] += count(t) * group.weight
		}
	}
	bestField, bestScore := FieldGeneral, 0
	for _, group := range fieldTerms {
		if scores[group.field] > bestScore {
			bestField, bestScore = group.field, scores[group.field]
		}
	}
	switch {
	case *f.HasDialogue && bestScore < literaryFieldLimit:
		f.Field = FieldLiterary
	case bestScore > fieldMinScore:
		f.Field = bestField
	default:
		f.Field = FieldGeneral
	}

	f.Region = DefaultRegion
	bestRegion := 0
	for _, region := range regionOrder {
		n := 0
		for _, t := range regionalTerms[region] {
			n += count(t)
		}
		if n > bestRegion {
			f.Region, bestRegion = region, n
		}
	}
	if bestRegion < regionMinScore {
		f.Region = DefaultRegion
	}
	return f
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func truncate(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
