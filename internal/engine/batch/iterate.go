package batch

import (
	"iter"

	"github.com/rshade/copycat/internal/table"
)

// Batches returns a lazy sequence of contiguous row slices of t, each holding
// at most batchSize rows, covering the first min(t.Len(), limitRows) rows in
// order. A limitRows of zero or less means every row. The yielded index is
// the 0-based batch number. Batches share rows with t; nothing is copied.
//
// A non-positive batchSize yields nothing.
func Batches(t *table.Table, batchSize, limitRows int) iter.Seq2[int, *table.Table] {
	return func(yield func(int, *table.Table) bool) {
		if batchSize < 1 {
			return
		}
		total := effectiveRows(t.Len(), limitRows)
		for i, start := 0, 0; start < total; i, start = i+1, start+batchSize {
			end := min(start+batchSize, total)
			if !yield(i, t.Slice(start, end)) {
				return
			}
		}
	}
}

// CountBatches returns how many batches Batches yields for the given sizes.
func CountBatches(totalRows, batchSize, limitRows int) int {
	if batchSize < 1 {
		return 0
	}
	total := effectiveRows(totalRows, limitRows)
	return (total + batchSize - 1) / batchSize
}

// effectiveRows clamps limitRows to totalRows; non-positive limits mean all rows.
func effectiveRows(totalRows, limitRows int) int {
	if limitRows <= 0 || limitRows > totalRows {
		return totalRows
	}
	return limitRows
}
