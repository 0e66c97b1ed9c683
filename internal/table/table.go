// Package table provides the in-memory tabular representation shared by the
// reshaping, batching and request-building stages.
//
// A Table is an ordered list of columns, an ordered list of rows and an
// optional set of index columns that together identify a row. Tables handed
// out by this module are treated as immutable: every transformation returns a
// new Table and never writes to its input.
package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// keySeparator joins stringified key parts. It cannot appear in spreadsheet text.
const keySeparator = "\x00"

// Row maps column names to cell values.
type Row map[string]any

// Table is an ordered collection of rows sharing a column layout.
type Table struct {
	columns []string
	index   []string
	rows    []Row
}

// New creates an empty table with the given columns.
// Column names must be unique; use FromRows when the header comes from untrusted input.
func New(columns ...string) *Table {
	return &Table{columns: slices.Clone(columns)}
}

// FromRows creates a table from positional row values.
// It returns ErrDuplicateColumn if a column is declared twice and
// ErrColumnMismatch if a row does not have exactly one value per column.
func FromRows(columns []string, rows ...[]any) (*Table, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}

	t := New(columns...)
	for _, values := range rows {
		if err := t.Append(values...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a row given one value per column, in column order.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrColumnMismatch, len(values), len(t.columns))
	}
	row := make(Row, len(t.columns))
	for i, c := range t.columns {
		row[c] = values[i]
	}
	t.rows = append(t.rows, row)
	return nil
}

// AppendRecord adds a row from a record. Columns missing from the record are nil;
// keys that are not table columns are ignored.
func (t *Table) AppendRecord(record Row) {
	row := make(Row, len(t.columns))
	for _, c := range t.columns {
		row[c] = record[c]
	}
	t.rows = append(t.rows, row)
}

// WithIndex returns a copy of the table whose row identifier is formed by the given columns.
// Passing no columns clears the index so row positions identify rows.
func (t *Table) WithIndex(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: index column %q", ErrUnknownColumn, c)
		}
	}
	return &Table{
		columns: slices.Clone(t.columns),
		index:   slices.Clone(columns),
		rows:    t.rows,
	}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Index returns the index column names, or nil when rows are identified by position.
func (t *Table) Index() []string {
	return slices.Clone(t.index)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.columns, name)
}

// Value returns the cell at row i in the named column (nil when absent).
func (t *Table) Value(i int, column string) any {
	return t.rows[i][column]
}

// Record returns a copy of row i.
func (t *Table) Record(i int) Row {
	out := make(Row, len(t.columns))
	for _, c := range t.columns {
		out[c] = t.rows[i][c]
	}
	return out
}

// Records returns copies of all rows in order.
func (t *Table) Records() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Record(i)
	}
	return out
}

// Slice returns the rows in [start, end) as a new table sharing the underlying rows.
// Bounds are clamped to the table.
func (t *Table) Slice(start, end int) *Table {
	start = max(0, min(start, len(t.rows)))
	end = max(start, min(end, len(t.rows)))
	return &Table{
		columns: slices.Clone(t.columns),
		index:   slices.Clone(t.index),
		rows:    t.rows[start:end:end],
	}
}

// Key returns the stringified index values of row i. Without an index the
// row position is the key.
func (t *Table) Key(i int) []string {
	if len(t.index) == 0 {
		return []string{strconv.Itoa(i)}
	}
	key := make([]string, len(t.index))
	for j, c := range t.index {
		key[j] = ToString(t.rows[i][c])
	}
	return key
}

// IndexIsUnique reports whether no two rows share the same key.
func (t *Table) IndexIsUnique() bool {
	if len(t.index) == 0 {
		return true
	}
	seen := make(map[string]struct{}, len(t.rows))
	for i := range t.rows {
		k := JoinKey(t.Key(i))
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

// RenameColumns returns a copy of the table with columns renamed according to mapping.
// Index columns are renamed as well. Unmapped columns keep their names.
func (t *Table) RenameColumns(mapping map[string]string) *Table {
	rename := func(c string) string {
		if to, ok := mapping[c]; ok {
			return to
		}
		return c
	}

	out := &Table{
		columns: make([]string, len(t.columns)),
		index:   make([]string, len(t.index)),
		rows:    make([]Row, len(t.rows)),
	}
	for i, c := range t.columns {
		out.columns[i] = rename(c)
	}
	for i, c := range t.index {
		out.index[i] = rename(c)
	}
	for i, row := range t.rows {
		r := make(Row, len(row))
		for _, c := range t.columns {
			r[rename(c)] = row[c]
		}
		out.rows[i] = r
	}
	return out
}

// Concat stacks tables vertically. All tables must declare the same set of
// columns; the column order and index of the first table are kept.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(), nil
	}

	first := tables[0]
	out := &Table{
		columns: slices.Clone(first.columns),
		index:   slices.Clone(first.index),
	}
	want := slices.Sorted(slices.Values(first.columns))
	for i, t := range tables {
		got := slices.Sorted(slices.Values(t.columns))
		if !slices.Equal(want, got) {
			return nil, fmt.Errorf("%w: table %d has columns %v, want %v", ErrColumnMismatch, i, t.columns, first.columns)
		}
		out.rows = append(out.rows, t.rows...)
	}
	return out, nil
}

// JoinKey encodes a key tuple as a single map key.
func JoinKey(parts []string) string {
	return strings.Join(parts, keySeparator)
}

// ToString renders a cell value as text. Nil renders as the empty string.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ToStrings converts a sequence-valued cell to a string slice.
// It accepts []string and []any holding only strings; anything else reports false.
func ToStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return slices.Clone(x), true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
