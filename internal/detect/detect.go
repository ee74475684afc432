// Package detect scores observable document features against the preset
// catalog and proposes one preset as a candidate customization layer.
// Detection never mutates configuration; applying a suggestion is explicit.
package detect

import (
	"fmt"
	"slices"

	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// DefaultMinConfidence is the confidence below which no suggestion is made.
const DefaultMinConfidence = 0.4

// Result is the outcome of a detection. SuggestedLayer is set only when
// Detected is true.
type Result struct {
	Detected          bool               `json:"detected"`
	SuggestedPresetID string             `json:"suggested_preset_id,omitempty"`
	SuggestedLayer    *layer.Layer       `json:"suggested_layer,omitempty"`
	Reasons           []string           `json:"reasons"`
	Confidence        float64            `json:"confidence"`
	Scores            map[string]float64 `json:"scores,omitempty"`
	Features          Features           `json:"features"`
}

// Weights sets how much each feature contributes to its presets.
type Weights struct {
	Field    float64
	Register float64
	Audience float64
	Dialogue float64
}

// DefaultWeights favors the specialized field, then dialogue presence.
var DefaultWeights = Weights{Field: 3, Register: 1, Audience: 1, Dialogue: 2}

func (w Weights) total() float64 {
	return w.Field + w.Register + w.Audience + w.Dialogue
}

var fieldVotes = map[string][]string{
	FieldGeneral:      {PresetDefault},
	FieldLiterary:     {PresetNovel},
	FieldJournalistic: {PresetJournalism},
	FieldAcademic:     {PresetTechnical},
	FieldTechnical:    {PresetTechnical},
	FieldLegal:        {PresetLegal},
	FieldMedical:      {PresetMedical},
	FieldBusiness:     {PresetTechnical},
	FieldSelfhelp:     {PresetSelfhelp},
	FieldCulinary:     {PresetDefault},
}

var registerVotes = map[string][]string{
	RegisterFormal:     {PresetTechnical, PresetLegal, PresetMedical},
	RegisterNeutral:    {PresetDefault, PresetNovel, PresetJournalism},
	RegisterColloquial: {PresetSelfhelp},
}

var audienceVotes = map[string][]string{
	AudienceGeneral:    {PresetDefault, PresetJournalism, PresetSelfhelp},
	AudienceChildren:   {PresetNovel},
	AudienceAdult:      {PresetNovel, PresetJournalism},
	AudienceSpecialist: {PresetTechnical, PresetLegal, PresetMedical},
	AudienceMixed:      {PresetDefault},
}

var dialogueVotes = map[bool][]string{
	true:  {PresetNovel},
	false: {PresetTechnical, PresetLegal, PresetMedical, PresetJournalism, PresetSelfhelp},
}

// Detector scores features against a preset catalog. It holds no mutable
// state and is safe for concurrent use.
type Detector struct {
	schema        *schema.Schema
	presets       []Preset
	weights       Weights
	minConfidence float64
}

// Option configures a Detector.
type Option func(*Detector)

// WithMinConfidence sets the confidence below which Detected is false.
func WithMinConfidence(c float64) Option {
	return func(d *Detector) {
		d.minConfidence = c
	}
}

// WithWeights overrides the feature weights.
func WithWeights(w Weights) Option {
	return func(d *Detector) {
		d.weights = w
	}
}

// NewDetector creates a detector over the built-in preset catalog of s.
func NewDetector(s *schema.Schema, opts ...Option) *Detector {
	d := &Detector{
		schema:        s,
		presets:       Catalog(s),
		weights:       DefaultWeights,
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Presets returns the catalog the detector scores against.
func (d *Detector) Presets() []Preset {
	out := make([]Preset, len(d.presets))
	for i, p := range d.presets {
		p.Layer = p.Layer.Clone()
		out[i] = p
	}
	return out
}

type vote struct {
	presets []string
	weight  float64
	reason  string
}

// Detect scores f. The same features always produce the same result.
func (d *Detector) Detect(f Features) Result {
	f = f.Normalize()
	var votes []vote
	if ids, ok := fieldVotes[f.Field]; ok {
		votes = append(votes, vote{ids, d.weights.Field, fmt.Sprintf("field %s suggests %s", f.Field, ids[0])})
	}
	if ids, ok := registerVotes[f.Register]; ok {
		votes = append(votes, vote{ids, d.weights.Register, fmt.Sprintf("%s register", f.Register)})
	}
	if ids, ok := audienceVotes[f.Audience]; ok {
		votes = append(votes, vote{ids, d.weights.Audience, fmt.Sprintf("%s audience", f.Audience)})
	}
	if f.HasDialogue != nil {
		reason := "no dialogue detected"
		if *f.HasDialogue {
			reason = "dialogue detected"
			if f.DialogueCount > 0 {
				reason = fmt.Sprintf("dialogue detected (%d indicators)", f.DialogueCount)
			}
		}
		votes = append(votes, vote{dialogueVotes[*f.HasDialogue], d.weights.Dialogue, reason})
	}

	res := Result{Reasons: []string{}, Features: f}
	if len(votes) == 0 {
		return res
	}

	scores := make(map[string]float64, len(d.presets))
	for _, v := range votes {
		for _, id := range v.presets {
			scores[id] += v.weight
		}
	}

	var winner Preset
	best := -1.0
	for _, p := range d.presets {
		if scores[p.ID] > best {
			best = scores[p.ID]
			winner = p
		}
	}

	res.Scores = scores
	if total := d.weights.total(); total > 0 {
		res.Confidence = best / total
	}
	for _, v := range votes {
		if slices.Contains(v.presets, winner.ID) {
			res.Reasons = append(res.Reasons, v.reason)
		}
	}
	if best <= 0 || res.Confidence < d.minConfidence {
		return res
	}

	suggested := winner.Layer.Clone()
	if f.Register != "" && registerVotes[f.Register] != nil {
		suggested.Set("style.register", schema.String(f.Register))
	}
	region := schema.String(f.Region)
	if f.Region != "" && f.Region != DefaultRegion && d.schema.Validate("style.target_region", region) == nil {
		suggested.Set("style.target_region", region)
		res.Reasons = append(res.Reasons, fmt.Sprintf("regional variant %s", f.Region))
	}

	res.Detected = true
	res.SuggestedPresetID = winner.ID
	res.SuggestedLayer = suggested
	return res
}
