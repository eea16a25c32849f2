package capability

import (
	"sort"

	"github.com/teranos/mqbuild/mqver"
)

// Markers are conditional-compilation switches for downstream code. Every
// possible switch is declared; only the applicable subset is set.
type Markers struct {
	Declared []string `json:"declared" yaml:"declared" toml:"declared"`
	Set      []string `json:"set" yaml:"set" toml:"set"`
}

// IsSet reports whether name is a set marker.
func (m Markers) IsSet(name string) bool {
	for _, s := range m.Set {
		if s == name {
			return true
		}
	}
	return false
}

// Markers declares every capability name, in table order, followed by every
// version threshold (mqc_A_B_C_D) found in version gates and requirements,
// ascending. A capability marker is set when its outcome is active; a
// threshold marker is set when installed reaches it.
func (r *Registry) Markers(installed mqver.Version, outcomes []Outcome) Markers {
	active := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		active[o.Name] = o.Active
	}

	m := Markers{Declared: []string{}, Set: []string{}}
	for _, c := range r.caps {
		m.Declared = append(m.Declared, c.Name)
		if active[c.Name] {
			m.Set = append(m.Set, c.Name)
		}
	}

	for _, v := range r.thresholds() {
		name := v.FeatureName()
		m.Declared = append(m.Declared, name)
		if installed.AtLeast(v) {
			m.Set = append(m.Set, name)
		}
	}
	return m
}

func (r *Registry) thresholds() []mqver.Version {
	seen := make(map[uint32]bool)
	var out []mqver.Version
	add := func(v mqver.Version) {
		if !seen[v.Encode()] {
			seen[v.Encode()] = true
			out = append(out, v)
		}
	}
	for _, c := range r.caps {
		if g, ok := c.Gate.(MinVersion); ok {
			add(g.Min)
		}
	}
	for _, req := range r.reqs {
		add(req.Min)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
