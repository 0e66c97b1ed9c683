package instructions

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrUnknownOrder indicates an instruction order name that is not recognised.
const ErrUnknownOrder = constError("unknown instruction order")

// lineSeparator joins the texts of matching rules.
const lineSeparator = "\n"

// Rule is one authoring instruction and the key it applies to.
type Rule struct {
	Key  Key
	Text string
}

// Order selects how the texts of matching rules are sequenced.
type Order int

const (
	// OrderSpecificity emits rules with fewer wildcards first; rules with the
	// same wildcard count keep their input order.
	OrderSpecificity Order = iota

	// OrderLexical emits rule texts in lexicographic order, keeping input order
	// for equal texts. This matches the line order of spreadsheets produced by
	// earlier versions of the tool.
	OrderLexical
)

// Order names used in configuration.
const (
	orderSpecificityName = "specificity"
	orderLexicalName     = "lexical"
)

// ParseOrder decodes a configured order name. The empty string selects OrderSpecificity.
func ParseOrder(name string) (Order, error) {
	switch name {
	case "", orderSpecificityName:
		return OrderSpecificity, nil
	case orderLexicalName:
		return OrderLexical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, name)
	}
}

// String returns the configuration name of the order.
func (o Order) String() string {
	switch o {
	case OrderSpecificity:
		return orderSpecificityName
	case OrderLexical:
		return orderLexicalName
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Resolve returns the texts of all rules matching concrete, one per line, or
// the empty string when none match.
func Resolve(rules []Rule, concrete []string, order Order) string {
	var matched []Rule
	for _, r := range rules {
		if r.Key.Matches(concrete) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return ""
	}

	switch order {
	case OrderLexical:
		slices.SortStableFunc(matched, func(a, b Rule) int {
			return strings.Compare(a.Text, b.Text)
		})
	default:
		slices.SortStableFunc(matched, func(a, b Rule) int {
			return cmp.Compare(a.Key.Wildcards(), b.Key.Wildcards())
		})
	}

	texts := make([]string, len(matched))
	for i, r := range matched {
		texts[i] = r.Text
	}
	return strings.Join(texts, lineSeparator)
}

// Resolver holds a rule set for repeated lookups.
type Resolver struct {
	rules []Rule
	order Order
}

// NewResolver creates a resolver over a copy of rules.
func NewResolver(rules []Rule, order Order) *Resolver {
	return &Resolver{rules: slices.Clone(rules), order: order}
}

// Resolve returns the instructions for concrete; see the package-level Resolve.
func (r *Resolver) Resolve(concrete []string) string {
	return Resolve(r.rules, concrete, r.order)
}

// Len returns the number of rules.
func (r *Resolver) Len() int {
	return len(r.rules)
}
