package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
)

// RuleRequest adds a custom rule.
type RuleRequest struct {
	Text string `json:"text"`
}

// RulePatchRequest edits a rule. Fields are applied in order: text,
// enabled, toggle.
type RulePatchRequest struct {
	Text    *string `json:"text,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
	Toggle  bool    `json:"toggle,omitempty"`
}

// DetectRequest carries either a text sample or precomputed features. With
// neither, the features recorded for the document are used.
type DetectRequest struct {
	Text     string           `json:"text,omitempty"`
	Features *detect.Features `json:"features,omitempty"`
}

// ApplyPresetRequest applies a catalog preset, or the last detection
// suggestion when PresetID is empty.
type ApplyPresetRequest struct {
	PresetID string `json:"preset_id,omitempty"`
}

// editorFor opens the editor of the request scope.
func (s *Server) editorFor(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	ed, err := s.engine.Open(r.Context(), requestScope(r))
	if err != nil {
		s.respondDomainError(w, r, err)
		return nil, false
	}
	return ed, true
}

// respondView writes the editor's view. With ?enabled_rules=1 only the
// rules in effect are listed.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
	view, err := ed.View()
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if enabled, _ := strconv.ParseBool(r.URL.Query().Get("enabled_rules")); enabled {
		view.Rules = rules.Enabled(view.Rules)
	}
	s.respondJSON(w, http.StatusOK, view)
}

// handleGetConfig opens the scope, picking up stored changes unless the
// editor holds unsaved edits.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ed, err := s.engine.Reload(r.Context(), requestScope(r))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeJSON(w, r, maxJSONBytes, &body); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	value, ok := body["value"]
	if !ok {
		s.respondDomainError(w, r, core.ErrValidation("MISSING_VALUE", `body must contain "value"`))
		return
	}
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	if err := ed.Set(chi.URLParam(r, "path"), value); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

func (s *Server) handleResetParam(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	if err := ed.Reset(chi.URLParam(r, "path")); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	if err := ed.ResetAll(); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := decodeJSON(w, r, maxJSONBytes, &req); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	rule, err := ed.AddRule(req.Text)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) handlePatchRule(w http.ResponseWriter, r *http.Request) {
	var req RulePatchRequest
	if err := decodeJSON(w, r, maxJSONBytes, &req); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if req.Text == nil && req.Enabled == nil && !req.Toggle {
		s.respondDomainError(w, r, core.ErrValidation("EMPTY_PATCH", "nothing to change"))
		return
	}
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "ruleID")
	var (
		rule rules.EditorialRule
		err  error
	)
	if req.Text != nil {
		if rule, err = ed.EditRuleText(id, *req.Text); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}
	if req.Enabled != nil {
		if rule, err = ed.SetRuleEnabled(id, *req.Enabled); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}
	if req.Toggle {
		if rule, err = ed.ToggleRule(id); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	if err := ed.RemoveRule(chi.URLParam(r, "ruleID")); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetRule(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	rule, err := ed.ResetRule(chi.URLParam(r, "ruleID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	// An empty body means "use the recorded features".
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, s.maxTextBytes+maxJSONBytes, &req); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}
	if int64(len(req.Text)) > s.maxTextBytes {
		s.respondDomainError(w, r, core.ErrValidation("BODY_TOO_LARGE", "text sample is too large"))
		return
	}

	scope := requestScope(r)
	var features *detect.Features
	switch {
	case req.Features != nil:
		features = req.Features
	case req.Text != "":
		f := detect.ExtractFeatures(req.Text)
		features = &f
	}
	if features != nil {
		if err := s.docs.RecordFeatures(r.Context(), scope.DocumentID, *features); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}

	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	res, err := ed.Detect(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	var req ApplyPresetRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, maxJSONBytes, &req); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	var err error
	if req.PresetID == "" {
		err = ed.ApplySuggestion()
	} else {
		err = ed.ApplyPreset(r.Context(), req.PresetID)
	}
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	if err := ed.Save(r.Context()); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

// handleClearConfig deletes the stored editing layer of a document or of a
// type or subtype override.
func (s *Server) handleClearConfig(w http.ResponseWriter, r *http.Request) {
	scope := requestScope(r)
	if _, err := s.engine.Clear(r.Context(), scope); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	ed, ok := s.engine.Lookup(scope)
	if !ok {
		s.respondDomainError(w, r, core.ErrInternal("editor vanished after clear"))
		return
	}
	s.respondView(w, r, ed)
}
