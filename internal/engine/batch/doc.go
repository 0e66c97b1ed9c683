// Package batch splits request tables into contiguous row batches for
// downstream processing.
//
// Batches is the lazy primitive: it yields row slices of a table on demand and
// holds nothing but a cursor between batches. Processor builds on it to drive
// a callback per batch, with:
//   - Configurable batch size (default 15 rows per batch)
//   - An optional cap on the total number of rows processed
//   - An optional rate limit between batches for rate-limited downstream calls
//   - Sequential or bounded-concurrency processing
//   - Progress tracking with callbacks for UI updates or logging
//   - Context-aware cancellation support
package batch
