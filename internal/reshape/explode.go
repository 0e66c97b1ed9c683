package reshape

import (
	"fmt"

	"github.com/rshade/copycat/internal/table"
)

// Explode converts a long table back into the wide layout.
//
// Each list column is replaced, in place, by "{Prefix} 1".."{Prefix} N" where N
// is the longest list for that family (at least MinSlots). Shorter lists are
// padded with Removed; a row whose list is empty gets an empty first slot
// instead. A family with no elements in any row and no MinSlots produces no
// columns at all.
//
// Explode returns ErrIndexNotUnique if the row identifier repeats,
// ErrMissingColumn if a list column is absent and ErrNotSequence if a list
// column holds anything other than lists of strings.
func Explode(t *table.Table, slots ...SlotSpec) (*table.Table, error) {
	slots = resolveSlots(slots)

	if !t.IndexIsUnique() {
		return nil, fmt.Errorf("%w: index %v", ErrIndexNotUnique, t.Index())
	}

	lists := make([][][]string, len(slots))
	widths := make([]int, len(slots))
	for i, s := range slots {
		if !t.HasColumn(s.Column) {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, s.Column)
		}

		lists[i] = make([][]string, t.Len())
		width := s.MinSlots
		for r := range t.Len() {
			v := t.Value(r, s.Column)
			values, ok := table.ToStrings(v)
			if !ok {
				return nil, fmt.Errorf("%w: column %q row %d holds %T", ErrNotSequence, s.Column, r, v)
			}
			lists[i][r] = values
			width = max(width, len(values))
		}
		widths[i] = width
	}

	out := explodedColumns(t.Columns(), slots, widths)

	res := table.New(out...)
	for r := range t.Len() {
		rec := t.Record(r)
		for i, s := range slots {
			values := lists[i][r]
			for n := 1; n <= widths[i]; n++ {
				rec[s.SlotColumn(n)] = slotValue(values, n)
			}
		}
		res.AppendRecord(rec)
	}

	return withSurvivingIndex(res, t.Index()), nil
}

// explodedColumns lays out the wide columns: each list column is replaced by
// its slot columns; passthrough columns colliding with a slot name are dropped.
func explodedColumns(columns []string, slots []SlotSpec, widths []int) []string {
	listIndex := make(map[string]int, len(slots))
	generated := make(map[string]struct{})
	for i, s := range slots {
		listIndex[s.Column] = i
		for n := 1; n <= widths[i]; n++ {
			generated[s.SlotColumn(n)] = struct{}{}
		}
	}

	var out []string
	for _, c := range columns {
		if i, ok := listIndex[c]; ok {
			for n := 1; n <= widths[i]; n++ {
				out = append(out, slots[i].SlotColumn(n))
			}
			continue
		}
		if _, clash := generated[c]; clash {
			continue
		}
		out = append(out, c)
	}
	return out
}

// slotValue returns the wide cell for slot n (1-based) of a list.
func slotValue(values []string, n int) string {
	switch {
	case n <= len(values):
		return values[n-1]
	case len(values) == 0 && n == 1:
		return ""
	default:
		return Removed
	}
}
