// Package resolve turns an installed MQ version, the requested features and
// the tables into one validated build configuration.
package resolve

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/classify"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/feature"
	"github.com/teranos/mqbuild/logger"
	"github.com/teranos/mqbuild/mqver"
	"github.com/teranos/mqbuild/table"
)

// Config is the resolved configuration handed to the binding generator.
type Config struct {
	RunID       string               `json:"run_id" yaml:"run_id" toml:"run_id"`
	Version     mqver.Version        `json:"version" yaml:"version" toml:"version"`
	VersionText string               `json:"version_text" yaml:"version_text" toml:"version_text"`
	VersionInt  string               `json:"version_int" yaml:"version_int" toml:"version_int"`
	Features    []string             `json:"features" yaml:"features" toml:"features"`
	Outcomes    []capability.Outcome `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
	Active      []string             `json:"active" yaml:"active" toml:"active"`
	Markers     capability.Markers   `json:"markers" yaml:"markers" toml:"markers"`
	Headers     []string             `json:"headers" yaml:"headers" toml:"headers"`
	Functions   []string             `json:"functions" yaml:"functions" toml:"functions"`
	Types       []string             `json:"types" yaml:"types" toml:"types"`
	Sources     []string             `json:"sources" yaml:"sources" toml:"sources"`
	Rules       []classify.Rule      `json:"constant_rules" yaml:"constant_rules" toml:"constant_rules"`

	classifier *classify.Classifier
}

// ClassifyConstant returns the integer kind for a constant name, or ok=false
// when the generator default should apply.
func (c *Config) ClassifyConstant(name string) (classify.IntKind, bool) {
	if c.classifier == nil {
		return classify.IntKind{}, false
	}
	return c.classifier.Classify(name)
}

// Classifier returns the classifier closure.
func (c *Config) Classifier() func(string) (classify.IntKind, bool) {
	return c.ClassifyConstant
}

// IsActive reports whether a capability is active.
func (c *Config) IsActive(name string) bool {
	for _, a := range c.Active {
		if a == name {
			return true
		}
	}
	return false
}

// Resolver resolves configurations from one set of tables.
type Resolver struct {
	tables     table.Tables
	registry   *capability.Registry
	classifier *classify.Classifier
	prober     capability.Prober
	logger     *zap.SugaredLogger
	newRunID   func() string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProber sets the compile prober. Without one every probe-gated
// capability is absent.
func WithProber(p capability.Prober) Option {
	return func(r *Resolver) { r.prober = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithRunID overrides run ID generation.
func WithRunID(f func() string) Option {
	return func(r *Resolver) { r.newRunID = f }
}

// New validates the tables and returns a Resolver.
func New(tables table.Tables, opts ...Option) (*Resolver, error) {
	r := &Resolver{tables: tables, newRunID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrNop(r.logger)

	registry, err := capability.NewRegistry(tables.Capabilities, tables.Requirements,
		capability.WithLogger(r.logger.Named("capability")))
	if err != nil {
		return nil, errors.Wrapf(err, "capability table from %s", tables.Origin)
	}
	classifier, err := classify.New(tables.Rules)
	if err != nil {
		return nil, errors.Wrapf(err, "constant rules from %s", tables.Origin)
	}
	r.registry = registry
	r.classifier = classifier
	return r, nil
}

// Registry exposes the capability registry.
func (r *Resolver) Registry() *capability.Registry { return r.registry }

// Resolve runs one resolution. versionText must contain an N.N.N.N version.
// An unparseable version or an unmet minimum version aborts with no output.
func (r *Resolver) Resolve(ctx context.Context, versionText string, enabled feature.Set) (*Config, error) {
	start := time.Now()
	runID := r.newRunID()
	log := logger.ChildLogger(r.logger, logger.FieldRunID, runID)

	installed, err := mqver.Parse(versionText)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "installed version"),
			"check the version reported by dspmqver under MQ_HOME")
	}
	log.Infow("Resolving configuration",
		logger.FieldVersion, installed.String(),
		logger.FieldFeatures, enabled.Names())

	if err := r.registry.Validate(installed, enabled); err != nil {
		return nil, err
	}
	for _, name := range enabled.Names() {
		if !r.tables.Known(name) {
			log.Warnw("Unknown feature requested", logger.FieldFeature, name)
		}
	}

	cfg := &Config{
		RunID:       runID,
		Version:     installed,
		VersionText: versionText,
		VersionInt:  installed.Hex(),
		Features:    enabled.Names(),
		Headers:     nonNil(feature.Filter(r.tables.Headers, enabled)),
		Functions:   nonNil(feature.Filter(r.tables.Functions, enabled)),
		Types:       nonNil(feature.Filter(r.tables.Types, enabled)),
		Sources:     nonNil(feature.Filter(r.tables.Sources, enabled)),
		Rules:       r.tables.Rules,
		classifier:  r.classifier,
	}

	cfg.Outcomes = r.registry.Resolve(ctx, installed, r.prober)
	cfg.Active = nonNil(capability.Active(cfg.Outcomes))
	cfg.Markers = r.registry.Markers(installed, cfg.Outcomes)

	log.Infow("Configuration resolved",
		logger.FieldActive, cfg.Active,
		logger.FieldCount, len(cfg.Headers),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return cfg, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
