package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/diff"
	"github.com/hugo-lorenzo-mato/corrector/internal/doctype"
	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// DefaultCustomSourceName names a document's customizations when the
// document has no title.
const DefaultCustomSourceName = "Personalizado"

// OverrideSourceName is the display name of a user override of name.
func OverrideSourceName(name string) string {
	return name + " (personalizado)"
}

// ConfigStore assembles layer stacks from the built-in type registry and the
// stored customizations. It implements editor.Store.
type ConfigStore struct {
	repo     Repository
	schema   *schema.Schema
	registry *doctype.Registry
	detector *detect.Detector
	presets  []detect.Preset
	logger   *logging.Logger
}

var _ editor.Store = (*ConfigStore)(nil)

// ConfigStoreOption configures a ConfigStore.
type ConfigStoreOption func(*ConfigStore)

// WithRegistry replaces the built-in type registry.
func WithRegistry(r *doctype.Registry) ConfigStoreOption {
	return func(c *ConfigStore) {
		c.registry = r
	}
}

// WithDetector replaces the profile detector.
func WithDetector(d *detect.Detector) ConfigStoreOption {
	return func(c *ConfigStore) {
		c.detector = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ConfigStoreOption {
	return func(c *ConfigStore) {
		c.logger = l
	}
}

// NewConfigStore creates a ConfigStore over repo.
func NewConfigStore(repo Repository, opts ...ConfigStoreOption) *ConfigStore {
	c := &ConfigStore{
		repo:   repo,
		schema: schema.Correction(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = doctype.Default()
	}
	if c.detector == nil {
		c.detector = detect.NewDetector(c.schema)
	}
	c.presets = c.detector.Presets()
	c.logger = c.logger.WithComponent("store")
	return c
}

// Registry returns the type registry.
func (c *ConfigStore) Registry() *doctype.Registry {
	return c.registry
}

// Repository returns the underlying repository.
func (c *ConfigStore) Repository() Repository {
	return c.repo
}

// Close closes the repository.
func (c *ConfigStore) Close() error {
	return c.repo.Close()
}

// RegisterDocument creates or updates a document's metadata. Type and
// subtype codes are normalized; recorded features are kept when doc carries
// none.
func (c *ConfigStore) RegisterDocument(ctx context.Context, doc Document) (Document, error) {
	if err := ValidateDocumentID(doc.ID); err != nil {
		return Document{}, err
	}
	t, st, err := c.registry.Lookup(doc.TypeCode, doc.SubtypeCode)
	if err != nil {
		return Document{}, err
	}
	doc.TypeCode = t.Code
	doc.SubtypeCode = ""
	if st != nil {
		doc.SubtypeCode = st.Code
	}

	if doc.Features == nil {
		existing, err := c.repo.GetDocument(ctx, doc.ID)
		switch {
		case err == nil:
			doc.Features = existing.Features
		case !core.IsNotFound(err):
			return Document{}, persistenceError(core.CodeSaveFailed, "registering document", err)
		}
	}
	if err := c.repo.PutDocument(ctx, doc); err != nil {
		return Document{}, persistenceError(core.CodeSaveFailed, "registering document", err)
	}
	return c.Document(ctx, doc.ID)
}

// Document returns a document's metadata.
func (c *ConfigStore) Document(ctx context.Context, id string) (Document, error) {
	doc, err := c.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, persistenceError(core.CodeLoadFailed, "loading document", err)
	}
	return doc, nil
}

// Documents lists every registered document.
func (c *ConfigStore) Documents(ctx context.Context) ([]Document, error) {
	docs, err := c.repo.ListDocuments(ctx)
	if err != nil {
		return nil, persistenceError(core.CodeLoadFailed, "listing documents", err)
	}
	return docs, nil
}

// RecordFeatures stores the observed features of a document for later
// detection.
func (c *ConfigStore) RecordFeatures(ctx context.Context, id string, f detect.Features) error {
	doc, err := c.Document(ctx, id)
	if err != nil {
		return err
	}
	f = f.Normalize()
	doc.Features = &f
	if err := c.repo.PutDocument(ctx, doc); err != nil {
		return persistenceError(core.CodeDetectFailed, "recording features", err)
	}
	return nil
}

// stackFor resolves scope to its normalized form, the read-only layers
// outside its editable layer, and the editable layer's display name.
func (c *ConfigStore) stackFor(ctx context.Context, scope core.Scope) (core.Scope, layer.Stack, string, error) {
	if err := scope.Validate(); err != nil {
		return scope, nil, "", err
	}

	switch scope.Kind() {
	case core.ScopeDocument:
		doc, err := c.Document(ctx, scope.DocumentID)
		if err != nil {
			return scope, nil, "", err
		}
		t, st, err := c.registry.Lookup(doc.TypeCode, doc.SubtypeCode)
		if err != nil {
			return scope, nil, "", err
		}
		outer, err := c.typeLayers(ctx, t, st)
		if err != nil {
			return scope, nil, "", err
		}
		name := doc.Title
		if name == "" {
			name = DefaultCustomSourceName
		}
		return scope, outer, name, nil

	case core.ScopeSubtype:
		t, ok := c.registry.Type(scope.TypeCode)
		if !ok {
			return scope, nil, "", core.ErrNotFound("type", scope.TypeCode)
		}
		st, ok := c.registry.Subtype(scope.SubtypeCode)
		if !ok {
			return scope, nil, "", core.ErrNotFound("subtype", scope.SubtypeCode)
		}
		if st.Parent != t.Code {
			return scope, nil, "", core.ErrValidation(core.CodeInvalidScope,
				fmt.Sprintf("subtype %s belongs to %s, not %s", st.Code, st.Parent, t.Code))
		}
		outer, err := c.typeLayers(ctx, t, nil)
		if err != nil {
			return scope, nil, "", err
		}
		outer = append(outer, st.Layer())
		return core.TypeScope(t.Code, st.Code), outer, OverrideSourceName(st.Name), nil

	default:
		t, ok := c.registry.Type(scope.TypeCode)
		if !ok {
			return scope, nil, "", core.ErrNotFound("type", scope.TypeCode)
		}
		return core.TypeScope(t.Code, ""), layer.NewStack(t.Layer()), OverrideSourceName(t.Name), nil
	}
}

// typeLayers returns the built-in type layer, its override, and, when st is
// set, the built-in subtype layer and its override.
func (c *ConfigStore) typeLayers(ctx context.Context, t doctype.Type, st *doctype.Subtype) (layer.Stack, error) {
	typeOverride, err := c.loadOverride(ctx, core.TypeScope(t.Code, ""), t.Name)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return layer.NewStack(t.Layer(), typeOverride), nil
	}
	subtypeOverride, err := c.loadOverride(ctx, core.TypeScope(t.Code, st.Code), st.Name)
	if err != nil {
		return nil, err
	}
	return layer.NewStack(t.Layer(), typeOverride, st.Layer(), subtypeOverride), nil
}

func (c *ConfigStore) loadOverride(ctx context.Context, scope core.Scope, name string) (*layer.Layer, error) {
	l, err := c.repo.LoadLayer(ctx, scope)
	if err != nil {
		return nil, persistenceError(core.CodeLoadFailed, "loading "+scope.String(), err)
	}
	if l != nil {
		l.SourceName = OverrideSourceName(name)
	}
	return l, nil
}

// FetchEffectiveConfig loads the layers of scope.
func (c *ConfigStore) FetchEffectiveConfig(ctx context.Context, scope core.Scope) (editor.LoadResult, error) {
	scope, outer, sourceName, err := c.stackFor(ctx, scope)
	if err != nil {
		return editor.LoadResult{}, err
	}
	target := LayerName(scope)

	custom, err := c.repo.LoadLayer(ctx, scope)
	if err != nil {
		return editor.LoadResult{}, persistenceError(core.CodeLoadFailed, "loading "+scope.String(), err)
	}
	if custom != nil {
		custom.Name = target
		custom.SourceName = sourceName
	}

	full := append(outer.Clone(), layer.NewStack(custom)...)
	c.logger.WithScope(scope).Debug("loaded configuration",
		"layers", len(full), "custom_values", custom.Len(), "custom_rules", len(custom.Rules()))
	return editor.LoadResult{
		Layers:     outer,
		Custom:     custom,
		Target:     target,
		SourceName: sourceName,
		Provenance: resolver.Resolve(c.schema, full),
	}, nil
}

// FetchPresetCatalog lists the candidate presets.
func (c *ConfigStore) FetchPresetCatalog(_ context.Context) ([]detect.Preset, error) {
	out := make([]detect.Preset, len(c.presets))
	for i, p := range c.presets {
		p.Layer = p.Layer.Clone()
		out[i] = p
	}
	return out, nil
}

// DetectProfile runs detection on the features recorded for a document.
// A document without features is reported as not detected.
func (c *ConfigStore) DetectProfile(ctx context.Context, scope core.Scope) (detect.Result, error) {
	if scope.Kind() != core.ScopeDocument {
		return detect.Result{}, core.ErrValidation(core.CodeInvalidScope,
			"profile detection needs a document scope")
	}
	doc, err := c.Document(ctx, scope.DocumentID)
	if err != nil {
		return detect.Result{}, err
	}
	if doc.Features == nil {
		return detect.Result{Reasons: []string{"no features recorded for document"}}, nil
	}
	return c.detector.Detect(*doc.Features), nil
}

// PersistDiff applies p to the editable layer of scope.
func (c *ConfigStore) PersistDiff(ctx context.Context, scope core.Scope, p diff.PartialLayer) error {
	scope, _, _, err := c.stackFor(ctx, scope)
	if err != nil {
		return err
	}
	err = c.repo.UpdateLayer(ctx, scope, func(l *layer.Layer) error {
		diff.ApplyLayer(p, l)
		return l.Validate(c.schema)
	})
	if err != nil {
		return persistenceError(core.CodeSaveFailed, "saving "+scope.String(), err)
	}
	c.logger.WithScope(scope).Debug("persisted diff",
		"set", len(p.Set), "unset", len(p.Unset), "rules", len(p.Rules), "removed_rules", len(p.RemovedRules))
	return nil
}

// ClearCustomizations deletes the editable layer of scope.
func (c *ConfigStore) ClearCustomizations(ctx context.Context, scope core.Scope) (*resolver.Snapshot, error) {
	scope, _, _, err := c.stackFor(ctx, scope)
	if err != nil {
		return nil, err
	}
	existed, err := c.repo.DeleteLayer(ctx, scope)
	if err != nil {
		return nil, persistenceError(core.CodeClearFailed, "clearing "+scope.String(), err)
	}
	c.logger.WithScope(scope).Info("cleared customizations", "existed", existed)

	res, err := c.FetchEffectiveConfig(ctx, scope)
	if err != nil {
		return nil, err
	}
	return res.Provenance, nil
}

// persistenceError passes domain errors through and wraps anything else as
// a retryable persistence failure.
func persistenceError(code, op string, err error) error {
	var de *core.DomainError
	if errors.As(err, &de) {
		return err
	}
	return core.ErrPersistence(code, op).WithCause(err)
}
