package core

import (
	"fmt"
	"strings"
)

// ScopeKind distinguishes document-level editing from type/subtype default editing.
type ScopeKind string

const (
	ScopeDocument ScopeKind = "document"
	ScopeType     ScopeKind = "type"
	ScopeSubtype  ScopeKind = "subtype"
)

// Scope addresses one configurable unit: a document, or a (type, subtype?) pair.
type Scope struct {
	DocumentID  string `json:"document_id,omitempty"`
	TypeCode    string `json:"type_code,omitempty"`
	SubtypeCode string `json:"subtype_code,omitempty"`
}

// DocumentScope returns the scope for a document.
func DocumentScope(id string) Scope {
	return Scope{DocumentID: id}
}

// TypeScope returns the scope for a type default, or a subtype default when
// subtype is non-empty.
func TypeScope(typeCode, subtypeCode string) Scope {
	return Scope{
		TypeCode:    strings.ToUpper(strings.TrimSpace(typeCode)),
		SubtypeCode: strings.ToUpper(strings.TrimSpace(subtypeCode)),
	}
}

// Kind reports which layer slot this scope edits.
func (s Scope) Kind() ScopeKind {
	switch {
	case s.DocumentID != "":
		return ScopeDocument
	case s.SubtypeCode != "":
		return ScopeSubtype
	default:
		return ScopeType
	}
}

// Validate checks that the scope addresses something.
func (s Scope) Validate() error {
	if s.DocumentID == "" && s.TypeCode == "" {
		return ErrValidation(CodeInvalidScope, "scope requires a document id or a type code")
	}
	if s.DocumentID == "" && s.SubtypeCode != "" && !strings.HasPrefix(s.SubtypeCode, s.TypeCode+"_") {
		return ErrValidation(CodeInvalidScope,
			fmt.Sprintf("subtype %s does not belong to type %s", s.SubtypeCode, s.TypeCode))
	}
	return nil
}

// Key returns a stable map key.
func (s Scope) Key() string {
	if s.DocumentID != "" {
		return "doc:" + s.DocumentID
	}
	if s.SubtypeCode != "" {
		return "type:" + s.TypeCode + "/" + s.SubtypeCode
	}
	return "type:" + s.TypeCode
}

func (s Scope) String() string {
	return s.Key()
}
