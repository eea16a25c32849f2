// Package feature holds the set of requested capability groups and filters
// feature-tagged tables against it.
package feature

import (
	"sort"
	"strings"
)

// DefaultPrefix marks feature flag environment variables, e.g. MQBUILD_FEATURE_PCF.
const DefaultPrefix = "MQBUILD_FEATURE_"

// Set is an immutable set of enabled feature names. The zero value is empty.
type Set struct {
	names map[string]struct{}
}

// NewSet builds a Set from explicit names. Names are matched case-insensitively.
func NewSet(names ...string) Set {
	s := Set{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = normalize(n)
		if n != "" {
			s.names[n] = struct{}{}
		}
	}
	return s
}

// FromEnviron enables every feature whose variable prefix+UPPER(name) is present
// in environ (os.Environ format). The value is ignored.
func FromEnviron(environ []string, prefix string) Set {
	var names []string
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if prefix == "" || !strings.HasPrefix(key, prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(key, prefix))
	}
	return NewSet(names...)
}

// Lookup reports whether prefix+UPPER(name) is set according to lookup,
// e.g. os.LookupEnv.
func Lookup(lookup func(string) (string, bool), prefix, name string) bool {
	_, ok := lookup(prefix + strings.ToUpper(name))
	return ok
}

// Enabled reports whether name is in the set.
func (s Set) Enabled(name string) bool {
	_, ok := s.names[normalize(name)]
	return ok
}

// Any reports whether at least one of names is enabled.
func (s Set) Any(names ...string) bool {
	for _, n := range names {
		if s.Enabled(n) {
			return true
		}
	}
	return false
}

// Names returns the enabled names in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len is the number of enabled features.
func (s Set) Len() int { return len(s.names) }

// With returns a new Set with names added.
func (s Set) With(names ...string) Set {
	return NewSet(append(s.Names(), names...)...)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
