package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/corrector/internal/config"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// runtime is the wired stack a command works on.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	repo   store.Repository
	store  *store.ConfigStore
	engine *editor.Engine
	bus    *events.EventBus

	closers []io.Closer
}

type runtimeOptions struct {
	autosave bool
	bus      bool
}

// newLogger builds the logger from config. CLI commands log to stderr so
// their stdout stays machine readable.
func newLogger(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	level := cfg.Log.Level
	if quiet {
		level = "error"
	}
	return logging.Open(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
		File:   cfg.Log.File,
	})
}

// openRuntime opens the configured store and an engine over it. One-shot
// commands run without autosave and save explicitly.
func openRuntime(opts runtimeOptions) (*runtime, error) {
	cfg := appConfig
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := store.Open(store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Format:  cfg.Store.Format,
	})
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	detector := detect.NewDetector(schema.Correction(), detect.WithMinConfidence(cfg.Detect.MinConfidence))
	cs := store.NewConfigStore(repo, store.WithDetector(detector), store.WithLogger(logger))

	engineOpts := []editor.Option{editor.WithLogger(logger), editor.WithAutosave(0)}
	if opts.autosave && cfg.Autosave.Enabled {
		engineOpts[1] = editor.WithAutosave(cfg.Autosave.DelayDuration())
	}
	rt := &runtime{cfg: cfg, logger: logger, repo: repo, store: cs}
	if opts.bus {
		rt.bus = events.New(256)
		engineOpts = append(engineOpts, editor.WithEventBus(rt.bus))
	}
	rt.engine = editor.NewEngine(cs, engineOpts...)
	rt.closers = []io.Closer{logCloser}
	return rt, nil
}

// Close flushes editors and releases the store.
func (rt *runtime) Close() error {
	var errs []error
	if err := rt.engine.Close(); err != nil {
		errs = append(errs, err)
	}
	if rt.bus != nil {
		rt.bus.Close()
	}
	if err := rt.store.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range rt.closers {
		_ = c.Close()
	}
	return errors.Join(errs...)
}

// scopeFromArgs builds a document scope from the first argument, or a type
// scope from --type/--subtype.
func scopeFromArgs(args []string, typeCode, subtypeCode string) (core.Scope, error) {
	switch {
	case len(args) > 0 && typeCode != "":
		return core.Scope{}, fmt.Errorf("pass either a document id or --type, not both")
	case len(args) > 0:
		return core.DocumentScope(args[0]), nil
	case typeCode != "":
		s := core.TypeScope(typeCode, subtypeCode)
		return s, s.Validate()
	}
	return core.Scope{}, fmt.Errorf("a document id or --type is required")
}

// parseValue reads a command line value as YAML, so 12, true, null and
// [a, b] arrive typed while bare words stay strings.
func parseValue(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parsing value %q: %w", raw, err)
	}
	return v, nil
}
