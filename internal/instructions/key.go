// Package instructions resolves hierarchical authoring instructions against
// concrete row keys.
//
// An instruction rule is keyed by one component per key column. A component is
// either a concrete value or the wildcard, which matches any value in its
// position. This lets a single rule apply to a whole campaign, to every
// version of an ad group, or to everything at once.
package instructions

import "strings"

// Wildcard is the serialized form of a wildcard key component. The literal is
// shared with existing spreadsheets and must not change.
const Wildcard = "__ALL__"

// Component is one position of a rule key: a concrete value or the wildcard.
type Component struct {
	value    string
	wildcard bool
}

// Concrete returns a component matching exactly v.
func Concrete(v string) Component {
	return Component{value: v}
}

// Any returns the wildcard component.
func Any() Component {
	return Component{wildcard: true}
}

// ParseComponent decodes a serialized component, mapping Wildcard to Any().
func ParseComponent(s string) Component {
	if s == Wildcard {
		return Any()
	}
	return Concrete(s)
}

// IsWildcard reports whether the component matches any value.
func (c Component) IsWildcard() bool {
	return c.wildcard
}

// Matches reports whether the component accepts the concrete value v.
func (c Component) Matches(v string) bool {
	return c.wildcard || c.value == v
}

// String serializes the component; the wildcard renders as Wildcard.
func (c Component) String() string {
	if c.wildcard {
		return Wildcard
	}
	return c.value
}

// Key is a rule key, one component per key column.
type Key []Component

// ParseKey decodes serialized components.
func ParseKey(values ...string) Key {
	k := make(Key, len(values))
	for i, v := range values {
		k[i] = ParseComponent(v)
	}
	return k
}

// Matches reports whether every component accepts the value at the same
// position of concrete. Keys of different length never match.
func (k Key) Matches(concrete []string) bool {
	if len(k) != len(concrete) {
		return false
	}
	for i, c := range k {
		if !c.Matches(concrete[i]) {
			return false
		}
	}
	return true
}

// Wildcards counts the wildcard components.
func (k Key) Wildcards() int {
	n := 0
	for _, c := range k {
		if c.wildcard {
			n++
		}
	}
	return n
}

// String renders the key as "(a, b, __ALL__)".
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, c := range k {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
