package api

import (
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/diff"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
)

// TypeDiffRequest is a partial update of type or subtype defaults. Set
// accepts nested ({"category": {"field": v}}) or flat ("category.field")
// keys.
type TypeDiffRequest struct {
	Set          map[string]any `json:"set"`
	Unset        []string       `json:"unset"`
	Rules        []layer.Rule   `json:"rules"`
	RemovedRules []string       `json:"removed_rules"`
}

// OverridesResponse lists the stored type and subtype overrides with a
// per-type summary.
type OverridesResponse struct {
	Overrides []store.Override                    `json:"overrides"`
	Status    map[string]store.TypeOverrideStatus `json:"status"`
	Count     int                                 `json:"count"`
}

// ClearOverridesResponse reports the scopes whose overrides were deleted.
type ClearOverridesResponse struct {
	Cleared      []core.Scope `json:"cleared"`
	DeletedCount int          `json:"deleted_count"`
}

// handleListTypes lists the type catalog, or fuzzy matches when ?q= is set.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	registry := s.docs.Registry()
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		s.respondJSON(w, http.StatusOK, registry.Search(q))
		return
	}
	s.respondJSON(w, http.StatusOK, registry.Types())
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.engine.Presets(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if presets == nil {
		presets = []detect.Preset{}
	}
	s.respondJSON(w, http.StatusOK, presets)
}

// handlePutTypeConfig persists a diff against type or subtype defaults
// directly, without going through an editing session, then refreshes the
// editors that inherit from them.
func (s *Server) handlePutTypeConfig(w http.ResponseWriter, r *http.Request) {
	var req TypeDiffRequest
	if err := decodeJSON(w, r, maxJSONBytes, &req); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	p, err := diff.Decode(s.engine.Schema(), req.Set, req.Unset, req.Rules, req.RemovedRules)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if p.IsEmpty() {
		s.respondDomainError(w, r, core.ErrValidation("EMPTY_PATCH", "nothing to change"))
		return
	}

	scope := requestScope(r)
	if err := s.engine.Store().PersistDiff(r.Context(), scope, p); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.logger.Info("type defaults updated", "scope", scope.Key(), "paths", len(p.Paths()))
	s.engine.Refresh(r.Context(), scope)

	ed, err := s.engine.Reload(r.Context(), scope)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondView(w, r, ed)
}

// handleConfigDiff reports the paths where a type differs from the schema
// defaults, or a subtype from its type.
func (s *Server) handleConfigDiff(w http.ResponseWriter, r *http.Request) {
	d, err := s.docs.DiffConfig(r.Context(), requestScope(r))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.docs.Overrides(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, OverridesResponse{
		Overrides: overrides,
		Status:    s.docs.OverrideStatus(overrides),
		Count:     len(overrides),
	})
}

// handleClearOverrides deletes every type and subtype override, then
// refreshes the open editors inheriting from them.
func (s *Server) handleClearOverrides(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.docs.ClearOverrides(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if len(cleared) > 0 {
		s.engine.Refresh(r.Context(), cleared[0])
	}
	if cleared == nil {
		cleared = []core.Scope{}
	}
	s.logger.Info("type overrides cleared", "count", len(cleared))
	s.respondJSON(w, http.StatusOK, ClearOverridesResponse{Cleared: cleared, DeletedCount: len(cleared)})
}
