package store

import (
	"context"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/resolver"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// Override is a stored user override of a type or subtype default.
type Override struct {
	Scope  core.Scope   `json:"scope"`
	Name   string       `json:"name"`
	Values int          `json:"values"`
	Rules  int          `json:"rules"`
	Layer  *layer.Layer `json:"layer"`
}

// TypeOverrideStatus summarizes the overrides stored for one type.
type TypeOverrideStatus struct {
	HasTypeOverride  bool     `json:"has_type_override"`
	SubtypeOverrides []string `json:"subtype_overrides"`
	Total            int      `json:"total"`
}

// Bases a ConfigDiff compares against.
const (
	DiffAgainstDefaults = "defaults"
	DiffAgainstType     = "type"
)

// ParamChange is one path whose value differs from the inherited one.
type ParamChange struct {
	Path       string              `json:"path"`
	Value      schema.Value        `json:"value"`
	Base       schema.Value        `json:"base"`
	Provenance resolver.Provenance `json:"provenance"`
}

// ConfigDiff compares the effective configuration of a type with the schema
// defaults, or of a subtype with its type.
type ConfigDiff struct {
	Scope   core.Scope    `json:"scope"`
	Against string        `json:"against"`
	Changes []ParamChange `json:"changes"`
}

type namedScope struct {
	scope core.Scope
	name  string
}

// overrideScopes lists every type scope of the registry, each followed by
// its subtypes.
func (c *ConfigStore) overrideScopes() []namedScope {
	var out []namedScope
	for _, t := range c.registry.Types() {
		out = append(out, namedScope{core.TypeScope(t.Code, ""), t.Name})
		for _, st := range t.Subtypes {
			out = append(out, namedScope{core.TypeScope(t.Code, st.Code), st.Name})
		}
	}
	return out
}

// Overrides lists the stored type and subtype overrides in registry order.
func (c *ConfigStore) Overrides(ctx context.Context) ([]Override, error) {
	out := []Override{}
	for _, ns := range c.overrideScopes() {
		l, err := c.loadOverride(ctx, ns.scope, ns.name)
		if err != nil {
			return nil, err
		}
		if l.IsEmpty() {
			continue
		}
		l.Name = LayerName(ns.scope)
		out = append(out, Override{
			Scope:  ns.scope,
			Name:   l.SourceName,
			Values: l.Len(),
			Rules:  len(l.Rules()),
			Layer:  l,
		})
	}
	return out, nil
}

// OverrideStatus groups overrides by type code. Every registry type has an
// entry.
func (c *ConfigStore) OverrideStatus(overrides []Override) map[string]TypeOverrideStatus {
	status := make(map[string]TypeOverrideStatus)
	for _, t := range c.registry.Types() {
		status[t.Code] = TypeOverrideStatus{SubtypeOverrides: []string{}}
	}
	for _, o := range overrides {
		st := status[o.Scope.TypeCode]
		if o.Scope.Kind() == core.ScopeSubtype {
			st.SubtypeOverrides = append(st.SubtypeOverrides, o.Scope.SubtypeCode)
		} else {
			st.HasTypeOverride = true
		}
		st.Total++
		status[o.Scope.TypeCode] = st
	}
	return status
}

// ClearOverrides deletes every stored type and subtype override and returns
// the scopes that had one.
func (c *ConfigStore) ClearOverrides(ctx context.Context) ([]core.Scope, error) {
	var cleared []core.Scope
	for _, ns := range c.overrideScopes() {
		existed, err := c.repo.DeleteLayer(ctx, ns.scope)
		if err != nil {
			return cleared, persistenceError(core.CodeClearFailed, "clearing "+ns.scope.String(), err)
		}
		if existed {
			cleared = append(cleared, ns.scope)
		}
	}
	c.logger.Info("cleared type overrides", "count", len(cleared))
	return cleared, nil
}

// DiffConfig compares the effective configuration of a type or subtype
// scope with the configuration it inherits from.
func (c *ConfigStore) DiffConfig(ctx context.Context, scope core.Scope) (ConfigDiff, error) {
	if scope.Kind() == core.ScopeDocument {
		return ConfigDiff{}, core.ErrValidation(core.CodeInvalidScope,
			"config diff needs a type or subtype scope")
	}
	scope, _, _, err := c.stackFor(ctx, scope)
	if err != nil {
		return ConfigDiff{}, err
	}
	res, err := c.FetchEffectiveConfig(ctx, scope)
	if err != nil {
		return ConfigDiff{}, err
	}

	against := DiffAgainstDefaults
	base := resolver.Resolve(c.schema, nil)
	if scope.Kind() == core.ScopeSubtype {
		against = DiffAgainstType
		parent, err := c.FetchEffectiveConfig(ctx, core.TypeScope(scope.TypeCode, ""))
		if err != nil {
			return ConfigDiff{}, err
		}
		base = parent.Provenance
	}

	out := ConfigDiff{Scope: scope, Against: against, Changes: []ParamChange{}}
	for _, path := range res.Provenance.Diff(base) {
		v, _ := res.Provenance.Value(path)
		b, _ := base.Value(path)
		prov, _ := res.Provenance.Provenance(path)
		out.Changes = append(out.Changes, ParamChange{Path: path, Value: v, Base: b, Provenance: prov})
	}
	return out, nil
}
