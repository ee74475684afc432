package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
)

// DocumentRequest registers or updates a document.
type DocumentRequest struct {
	Title    string           `json:"title"`
	Type     string           `json:"type"`
	Subtype  string           `json:"subtype,omitempty"`
	Features *detect.Features `json:"features,omitempty"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.Documents(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	s.respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Document(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

// handlePutDocument registers a document. Changing its type or subtype
// changes the layers its configuration inherits from, so an open editor is
// reloaded.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := decodeJSON(w, r, maxJSONBytes, &req); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if req.Type == "" {
		s.respondDomainError(w, r, core.ErrValidation(core.CodeInvalidScope, "type is required"))
		return
	}
	if req.Features != nil {
		f := req.Features.Normalize()
		req.Features = &f
	}

	docID := chi.URLParam(r, "docID")
	doc, err := s.docs.RegisterDocument(r.Context(), store.Document{
		ID:          docID,
		Title:       req.Title,
		TypeCode:    req.Type,
		SubtypeCode: req.Subtype,
		Features:    req.Features,
	})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.engine.Refresh(r.Context(), core.DocumentScope(docID))
	s.respondJSON(w, http.StatusOK, doc)
}
