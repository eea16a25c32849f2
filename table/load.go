package table

import (
	"bytes"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/classify"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/feature"
	"github.com/teranos/mqbuild/mqver"
	"github.com/teranos/mqbuild/probe"
	"github.com/teranos/mqbuild/version"
)

// ErrIncompatible is returned when a table's requires constraint excludes the
// running mqbuild version.
var ErrIncompatible = errors.New("table requires a different mqbuild version")

// file is the on-disk TOML form. Sections present in the file replace the
// corresponding default section; absent sections are inherited.
type file struct {
	Requires     string                   `toml:"requires"`
	Headers      []feature.Tagged[string] `toml:"headers"`
	Functions    []feature.Tagged[string] `toml:"functions"`
	Types        []feature.Tagged[string] `toml:"types"`
	Sources      []feature.Tagged[string] `toml:"sources"`
	Capabilities []capabilityEntry        `toml:"capabilities"`
	Requirements []requirementEntry       `toml:"requirements"`
	Rules        []classify.Rule          `toml:"rules"`
	Features     []string                 `toml:"features"`
}

type capabilityEntry struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	MinVersion  string         `toml:"min_version"`
	Probe       *probe.Snippet `toml:"probe"`
}

type requirementEntry struct {
	Feature string        `toml:"feature"`
	Min     mqver.Version `toml:"min"`
}

// Load reads a TOML table file over the defaults.
func Load(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, errors.Wrapf(err, "read table %s", path)
	}
	t, err := Decode(data, Default(), version.Get())
	if err != nil {
		return Tables{}, errors.Wrapf(err, "table %s", path)
	}
	t.Origin = path
	return t, nil
}

// Decode parses a TOML table over base. Unknown keys are rejected.
func Decode(data []byte, base Tables, tool version.Info) (Tables, error) {
	var f file
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
	if err != nil {
		return Tables{}, errors.Wrap(err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Tables{}, errors.NewInvalidInputError("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := CheckRequires(f.Requires, tool); err != nil {
		return Tables{}, err
	}

	out := base
	if md.IsDefined("headers") {
		out.Headers = f.Headers
	}
	if md.IsDefined("functions") {
		out.Functions = f.Functions
	}
	if md.IsDefined("types") {
		out.Types = f.Types
	}
	if md.IsDefined("sources") {
		out.Sources = f.Sources
	}
	if md.IsDefined("rules") {
		out.Rules = f.Rules
	}
	if md.IsDefined("features") {
		out.Features = f.Features
	}
	if md.IsDefined("capabilities") {
		caps, err := convertCapabilities(f.Capabilities)
		if err != nil {
			return Tables{}, err
		}
		out.Capabilities = caps
	}
	if md.IsDefined("requirements") {
		out.Requirements = make([]capability.Requirement, len(f.Requirements))
		for i, r := range f.Requirements {
			out.Requirements[i] = capability.Requirement{Feature: r.Feature, Min: r.Min}
		}
	}
	return out, nil
}

func convertCapabilities(entries []capabilityEntry) ([]capability.Capability, error) {
	caps := make([]capability.Capability, 0, len(entries))
	for _, e := range entries {
		c := capability.Capability{Name: e.Name, Description: e.Description}
		switch {
		case e.MinVersion != "" && e.Probe != nil:
			return nil, errors.NewInvalidInputError("capability %q declares both min_version and probe", e.Name)
		case e.MinVersion != "":
			v, err := mqver.Parse(e.MinVersion)
			if err != nil {
				return nil, errors.Wrapf(err, "capability %q", e.Name)
			}
			c.Gate = capability.MinVersion{Min: v}
		case e.Probe != nil:
			snippet := *e.Probe
			if snippet.Name == "" {
				snippet.Name = e.Name
			}
			c.Gate = capability.Probe{Snippet: snippet}
		default:
			return nil, errors.NewInvalidInputError("capability %q needs min_version or probe", e.Name)
		}
		caps = append(caps, c)
	}
	return caps, nil
}

// CheckRequires checks a semver constraint against the mqbuild version.
// An empty constraint and dev builds always pass.
func CheckRequires(requires string, tool version.Info) error {
	if strings.TrimSpace(requires) == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(requires)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "invalid requires constraint %q", requires), errors.ErrInvalidInput)
	}
	current, err := tool.Semver()
	if err != nil {
		return errors.Wrapf(err, "invalid mqbuild version %s", tool.Version)
	}
	if current == nil {
		return nil
	}
	if !constraint.Check(current) {
		return errors.WithHint(
			errors.Wrapf(ErrIncompatible, "table requires mqbuild %s, but running %s", requires, tool.Version),
			"upgrade mqbuild or use a table written for this version")
	}
	return nil
}
