package reshape

import (
	"slices"

	"github.com/rshade/copycat/internal/table"
)

// Collapse converts a wide table into the long layout.
//
// For every slot family it reads the "{Prefix} {n}" columns in ascending n and
// builds a []string per row, skipping empty cells and the Removed marker. Each
// family always yields its list column, holding empty lists when the input has
// no slot columns for it. The list column takes the position of the family's
// first slot column, or is appended when there is none. Passthrough columns,
// row count and row order are kept. With no slots given, DefaultSlots is used.
func Collapse(t *table.Table, slots ...SlotSpec) *table.Table {
	slots = resolveSlots(slots)
	columns := t.Columns()

	found := make([][]slotColumn, len(slots))
	owner := make(map[string]int)
	listColumns := make(map[string]struct{}, len(slots))
	for i, s := range slots {
		found[i] = findSlotColumns(columns, s)
		for _, c := range found[i] {
			if _, taken := owner[c.name]; !taken {
				owner[c.name] = i
			}
		}
		listColumns[s.Column] = struct{}{}
	}

	var out []string
	emitted := make([]bool, len(slots))
	for _, c := range columns {
		if i, ok := owner[c]; ok {
			if !emitted[i] {
				out = append(out, slots[i].Column)
				emitted[i] = true
			}
			continue
		}
		if _, clash := listColumns[c]; clash {
			continue
		}
		out = append(out, c)
	}
	for i, s := range slots {
		if !emitted[i] {
			out = append(out, s.Column)
		}
	}

	res := table.New(out...)
	for r := range t.Len() {
		rec := t.Record(r)
		for i, s := range slots {
			rec[s.Column] = collapseRow(t, r, found[i])
		}
		res.AppendRecord(rec)
	}

	return withSurvivingIndex(res, t.Index())
}

// collapseRow gathers the non-empty slot values of row r in slot order.
func collapseRow(t *table.Table, r int, columns []slotColumn) []string {
	values := make([]string, 0, len(columns))
	for _, c := range columns {
		v := t.Value(r, c.name)
		if v == nil {
			continue
		}
		s := table.ToString(v)
		if s == "" || s == Removed {
			continue
		}
		values = append(values, s)
	}
	return values
}

// withSurvivingIndex re-applies the index columns that still exist in t.
func withSurvivingIndex(t *table.Table, index []string) *table.Table {
	kept := slices.DeleteFunc(index, func(c string) bool { return !t.HasColumn(c) })
	if len(kept) == 0 {
		return t
	}
	indexed, err := t.WithIndex(kept...)
	if err != nil {
		return t
	}
	return indexed
}
