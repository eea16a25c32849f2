package feature

// Tagged is a group of payloads with optional feature tags. An untagged group
// is always included; a tagged group is included when any tag is enabled.
type Tagged[T any] struct {
	Items    []T      `json:"items" yaml:"items" toml:"items"`
	Features []string `json:"features,omitempty" yaml:"features,omitempty" toml:"features,omitempty"`
}

// Always returns an untagged group.
func Always[T any](items ...T) Tagged[T] {
	return Tagged[T]{Items: items}
}

// When returns a group included when any of features is enabled.
func When[T any](features []string, items ...T) Tagged[T] {
	return Tagged[T]{Items: items, Features: features}
}

// Included reports whether the group passes the enabled set.
func (g Tagged[T]) Included(enabled Set) bool {
	return len(g.Features) == 0 || enabled.Any(g.Features...)
}

// Select returns the groups that pass the enabled set, in input order.
func Select[T any](groups []Tagged[T], enabled Set) []Tagged[T] {
	out := make([]Tagged[T], 0, len(groups))
	for _, g := range groups {
		if g.Included(enabled) {
			out = append(out, g)
		}
	}
	return out
}

// Filter returns the payloads of the selected groups, flattened in order.
// Each group is visited once, so a group matched by several enabled tags
// contributes its items once.
func Filter[T any](groups []Tagged[T], enabled Set) []T {
	var out []T
	for _, g := range Select(groups, enabled) {
		out = append(out, g.Items...)
	}
	return out
}
