// Package reshape converts ad text between the spreadsheet "wide" layout, with
// one column per numbered slot ("Headline 1", "Headline 2", ...), and the
// "long" layout, with one list-valued column per slot family ("headlines").
package reshape

import (
	"slices"
	"strconv"
	"strings"
)

// Removed marks a slot that intentionally holds no text. The literal is shared
// with existing spreadsheets and must not change.
const Removed = "--"

// Default slot families.
const (
	HeadlinePrefix     = "Headline"
	DescriptionPrefix  = "Description"
	HeadlinesColumn    = "headlines"
	DescriptionsColumn = "descriptions"
)

// SlotSpec pairs a wide-format slot prefix with its long-format list column.
type SlotSpec struct {
	// Prefix names the numbered slot columns, e.g. "Headline" for "Headline 1".
	Prefix string

	// Column is the list-valued column in the long layout, e.g. "headlines".
	Column string

	// MinSlots is the minimum number of slot columns Explode emits. Zero means
	// only as many as the longest list needs.
	MinSlots int
}

// DefaultSlots returns the headline and description slot families.
func DefaultSlots() []SlotSpec {
	return []SlotSpec{
		{Prefix: HeadlinePrefix, Column: HeadlinesColumn},
		{Prefix: DescriptionPrefix, Column: DescriptionsColumn},
	}
}

// SlotColumn returns the wide column name for slot n (1-based).
func (s SlotSpec) SlotColumn(n int) string {
	return s.Prefix + " " + strconv.Itoa(n)
}

// slotNumber returns n if column is exactly "{prefix} {n}" with n a canonical positive integer.
func (s SlotSpec) slotNumber(column string) (int, bool) {
	rest, ok := strings.CutPrefix(column, s.Prefix+" ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// slotColumn is a wide column belonging to a slot family.
type slotColumn struct {
	name string
	n    int
}

// findSlotColumns returns the slot columns of family s in ascending slot order.
func findSlotColumns(columns []string, s SlotSpec) []slotColumn {
	var found []slotColumn
	for _, c := range columns {
		if n, ok := s.slotNumber(c); ok {
			found = append(found, slotColumn{name: c, n: n})
		}
	}
	slices.SortFunc(found, func(a, b slotColumn) int { return a.n - b.n })
	return found
}

func resolveSlots(slots []SlotSpec) []SlotSpec {
	if len(slots) == 0 {
		return DefaultSlots()
	}
	return slots
}
