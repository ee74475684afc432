package editor

import (
	"context"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/diff"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
)

// LoadResult is what a load returns for one scope.
type LoadResult struct {
	// Layers are the read-only layers outside the editable one, least
	// specific first.
	Layers layer.Stack
	// Custom is the editable layer as stored; nil when nothing is stored.
	Custom *layer.Layer
	// Target names the editable layer.
	Target layer.Name
	// SourceName is the display name of the editable layer.
	SourceName string
	// Provenance is the resolved configuration of Layers plus Custom.
	Provenance *resolver.Snapshot
}

// Store is the storage collaborator of the editor.
type Store interface {
	// FetchEffectiveConfig loads the layers of scope.
	FetchEffectiveConfig(ctx context.Context, scope core.Scope) (LoadResult, error)
	// FetchPresetCatalog lists the candidate presets.
	FetchPresetCatalog(ctx context.Context) ([]detect.Preset, error)
	// DetectProfile suggests a preset for a document scope.
	DetectProfile(ctx context.Context, scope core.Scope) (detect.Result, error)
	// PersistDiff applies p to the editable layer of scope atomically.
	PersistDiff(ctx context.Context, scope core.Scope, p diff.PartialLayer) error
	// ClearCustomizations deletes the editable layer of scope and returns
	// the configuration that is then in effect.
	ClearCustomizations(ctx context.Context, scope core.Scope) (*resolver.Snapshot, error)
}
