// Package store persists document customizations and type default overrides,
// and assembles the layer stacks the editor works on.
package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
)

// Backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Document is the metadata the store keeps for a manuscript.
type Document struct {
	ID          string           `json:"id" yaml:"id" toml:"id"`
	Title       string           `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	TypeCode    string           `json:"type_code" yaml:"type_code" toml:"type_code"`
	SubtypeCode string           `json:"subtype_code,omitempty" yaml:"subtype_code,omitempty" toml:"subtype_code,omitempty"`
	Features    *detect.Features `json:"features,omitempty" yaml:"features,omitempty" toml:"features,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"updated_at" toml:"updated_at"`
}

// Repository is the raw persistence behind ConfigStore. Layers are the
// editable layer of a scope only: a document's customizations, or the user
// override of a type or subtype.
type Repository interface {
	GetDocument(ctx context.Context, id string) (Document, error)
	PutDocument(ctx context.Context, doc Document) error
	ListDocuments(ctx context.Context) ([]Document, error)

	// LoadLayer returns nil when the scope has nothing stored.
	LoadLayer(ctx context.Context, scope core.Scope) (*layer.Layer, error)
	// UpdateLayer runs fn on the stored layer, or on an empty one, and
	// stores the result atomically. An empty result deletes the entry.
	UpdateLayer(ctx context.Context, scope core.Scope, fn func(*layer.Layer) error) error
	// DeleteLayer reports whether anything was stored.
	DeleteLayer(ctx context.Context, scope core.Scope) (bool, error)

	Close() error
}

var documentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateDocumentID rejects ids that cannot double as file names.
func ValidateDocumentID(id string) error {
	if !documentIDPattern.MatchString(id) {
		return core.ErrValidation(core.CodeInvalidScope,
			fmt.Sprintf("invalid document id %q", id)).WithDetail("document_id", id)
	}
	return nil
}

// LayerName returns the layer slot a scope edits.
func LayerName(scope core.Scope) layer.Name {
	switch scope.Kind() {
	case core.ScopeDocument:
		return layer.Custom
	case core.ScopeSubtype:
		return layer.Subtype
	default:
		return layer.Type
	}
}

// Options configures repository creation.
type Options struct {
	Backend string
	Path    string
	// Format is the file backend encoding: yaml or toml.
	Format string
}

// Open creates the repository for a backend.
func Open(opts Options) (Repository, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLiteRepository(opts.Path)
	case BackendFile:
		return NewFileRepository(opts.Path, WithFormat(opts.Format))
	case BackendMemory:
		return NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
