package editor

import (
	"time"

	"github.com/hugo-lorenzo-mato/corrector/internal/autosave"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

type options struct {
	schema        *schema.Schema
	bus           *events.EventBus
	logger        *logging.Logger
	autosaveDelay time.Duration
	ruleOpts      []rules.SetOption
}

func defaultOptions() options {
	return options{
		schema:        schema.Correction(),
		logger:        logging.NewNop(),
		autosaveDelay: autosave.DefaultDelay,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithSchema replaces the correction schema.
func WithSchema(s *schema.Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithEventBus publishes editing events on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithAutosave sets the autosave quiet period. Zero or negative disables
// autosave; edits then wait for an explicit Save.
func WithAutosave(delay time.Duration) Option {
	return func(o *options) {
		o.autosaveDelay = delay
	}
}

// WithRuleIDGenerator overrides how custom rule ids are minted.
func WithRuleIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.ruleOpts = append(o.ruleOpts, rules.WithIDGenerator(fn))
	}
}
