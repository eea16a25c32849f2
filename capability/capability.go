// Package capability resolves which optional pieces of the MQ binding surface
// are present, from version gates and compile probes, and validates the
// minimum versions implied by requested features.
package capability

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
	"github.com/teranos/mqbuild/mqver"
	"github.com/teranos/mqbuild/probe"
)

var capabilityName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Gate decides whether a capability is active.
type Gate interface {
	gate()
	// Describe renders the gate for display, e.g. ">= 9.3.0.0" or "probe mqbno".
	Describe() string
}

// MinVersion gates on installed >= Min.
type MinVersion struct {
	Min mqver.Version
}

func (MinVersion) gate() {}

func (g MinVersion) Describe() string { return ">= " + g.Min.String() }

// Probe gates on a successful compilation of Snippet.
type Probe struct {
	Snippet probe.Snippet
}

func (Probe) gate() {}

func (g Probe) Describe() string { return "probe " + g.Snippet.Name }

// Capability is a named optional piece of the binding surface.
type Capability struct {
	Name        string
	Description string
	Gate        Gate
}

// Requirement declares that enabling Feature needs at least Min installed.
type Requirement struct {
	Feature string        `json:"feature" toml:"feature" yaml:"feature"`
	Min     mqver.Version `json:"min" toml:"min" yaml:"min"`
}

// Prober compiles probe snippets. *probe.Runner satisfies it.
type Prober interface {
	Probe(ctx context.Context, s probe.Snippet) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, s probe.Snippet) bool

func (f ProberFunc) Probe(ctx context.Context, s probe.Snippet) bool { return f(ctx, s) }

// Outcome is the resolved state of one capability.
type Outcome struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Gate   string `json:"gate" yaml:"gate" toml:"gate"`
	Active bool   `json:"active" yaml:"active" toml:"active"`
	// Probed is true when the outcome came from a compilation.
	Probed bool `json:"probed,omitempty" yaml:"probed,omitempty" toml:"probed,omitempty"`
	// Threshold is the gate version for version-gated capabilities.
	Threshold *mqver.Version `json:"threshold,omitempty" yaml:"threshold,omitempty" toml:"threshold,omitempty"`
}

// Registry is the ordered, immutable capability table plus the declared
// feature requirements.
type Registry struct {
	caps   []Capability
	reqs   []Requirement
	logger *zap.SugaredLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry validates the table: names must be unique and well-formed,
// every capability needs a gate, probe snippets must be valid.
func NewRegistry(caps []Capability, reqs []Requirement, opts ...Option) (*Registry, error) {
	seen := make(map[string]bool, len(caps))
	for i, c := range caps {
		if !capabilityName.MatchString(c.Name) {
			return nil, errors.NewInvalidInputError("capability %d: invalid name %q", i, c.Name)
		}
		if seen[c.Name] {
			return nil, errors.NewInvalidInputError("duplicate capability %q", c.Name)
		}
		if mqver.IsFeature(c.Name) {
			return nil, errors.WithHint(
				errors.NewInvalidInputError("capability %q clashes with a version threshold marker", c.Name),
				"mqc_A_B_C_D names are reserved for version thresholds")
		}
		seen[c.Name] = true

		switch g := c.Gate.(type) {
		case MinVersion:
		case Probe:
			if err := g.Snippet.Validate(); err != nil {
				return nil, errors.Wrapf(err, "capability %q", c.Name)
			}
		case nil:
			return nil, errors.NewInvalidInputError("capability %q has no gate", c.Name)
		default:
			return nil, errors.NewInvalidInputError("capability %q has unknown gate %T", c.Name, g)
		}
	}
	for i, req := range reqs {
		if req.Feature == "" {
			return nil, errors.NewInvalidInputError("requirement %d: empty feature", i)
		}
	}

	r := &Registry{
		caps: append([]Capability(nil), caps...),
		reqs: append([]Requirement(nil), reqs...),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrNop(r.logger)
	return r, nil
}

// Capabilities returns the table in declaration order.
func (r *Registry) Capabilities() []Capability {
	return append([]Capability(nil), r.caps...)
}

// Requirements returns the declared requirements.
func (r *Registry) Requirements() []Requirement {
	return append([]Requirement(nil), r.reqs...)
}

// Resolve evaluates every gate in table order. Probes run sequentially; a nil
// prober reports every probe-gated capability absent.
func (r *Registry) Resolve(ctx context.Context, installed mqver.Version, prober Prober) []Outcome {
	out := make([]Outcome, 0, len(r.caps))
	for _, c := range r.caps {
		o := Outcome{Name: c.Name, Gate: c.Gate.Describe()}
		switch g := c.Gate.(type) {
		case MinVersion:
			min := g.Min
			o.Threshold = &min
			o.Active = installed.AtLeast(g.Min)
		case Probe:
			o.Probed = true
			if prober != nil {
				start := time.Now()
				o.Active = prober.Probe(ctx, g.Snippet)
				r.logger.Debugw("Capability probed",
					logger.FieldCapability, c.Name,
					logger.FieldActive, o.Active,
					logger.FieldDurationMS, time.Since(start).Milliseconds())
			}
		}
		r.logger.Infow("Capability resolved",
			logger.FieldCapability, c.Name,
			logger.FieldGate, o.Gate,
			logger.FieldActive, o.Active)
		out = append(out, o)
	}
	return out
}

// Active returns the names of the active outcomes, in table order.
func Active(outcomes []Outcome) []string {
	var names []string
	for _, o := range outcomes {
		if o.Active {
			names = append(names, o.Name)
		}
	}
	return names
}
