package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rshade/copycat/internal/table"
)

// Default batch processing configuration.
const (
	// DefaultBatchSize is the default number of rows per batch.
	DefaultBatchSize = 15

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size.
	MaxBatchSize = 1000
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 1000")
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrEmptyTable       = errors.New("table has no rows to process")
)

// Callback processes a single batch of rows.
// It receives the batch, its 0-based index, and returns an error if processing fails.
type Callback func(ctx context.Context, batch *table.Table, batchIndex int) error

// ProgressCallback is an optional callback invoked after each batch is processed.
// Calls are serialized even when batches run concurrently.
type ProgressCallback func(progress *Progress)

// Processor drives a callback over the row batches of a table.
type Processor struct {
	batchSize int

	// limitRows caps the rows processed; 0 means all rows.
	limitRows int

	// limiter, when set, is waited on before every batch.
	limiter *rate.Limiter

	onProgress ProgressCallback

	// mu serializes progress updates and callbacks.
	mu sync.Mutex
}

// NewProcessor creates a new batch processor with the given batch size.
func NewProcessor(batchSize int) (*Processor, error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}

	return &Processor{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults creates a processor with the default batch size.
func NewProcessorWithDefaults() *Processor {
	return &Processor{batchSize: DefaultBatchSize}
}

// WithLimit caps the number of rows processed. Zero or less processes every row.
func (p *Processor) WithLimit(rows int) *Processor {
	p.limitRows = max(rows, 0)
	return p
}

// WithRateLimit makes the processor wait on limiter before sending each batch.
func (p *Processor) WithRateLimit(limiter *rate.Limiter) *Processor {
	p.limiter = limiter
	return p
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor) WithProgressCallback(callback ProgressCallback) *Processor {
	p.onProgress = callback
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor) BatchSize() int {
	return p.batchSize
}

// Process runs callback on each batch in order.
// Processing is sequential and stops on the first error or on cancellation.
func (p *Processor) Process(ctx context.Context, t *table.Table, callback Callback) error {
	if err := p.validate(t, callback); err != nil {
		return err
	}

	progress := p.newProgress(t.Len())

	for batchIndex, batch := range Batches(t, p.batchSize, p.limitRows) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.wait(ctx); err != nil {
			return err
		}

		if err := callback(ctx, batch, batchIndex); err != nil {
			return fmt.Errorf("batch %d failed: %w", batchIndex, err)
		}

		p.report(progress, batch.Len())
	}

	return nil
}

// ProcessConcurrent runs callback on up to maxConcurrency batches at a time.
// The first failing batch cancels the context passed to the others, and its
// error is returned. Batches are still started in order and the rate limit,
// when set, applies to batch starts.
func (p *Processor) ProcessConcurrent(
	ctx context.Context,
	t *table.Table,
	callback Callback,
	maxConcurrency int,
) error {
	if err := p.validate(t, callback); err != nil {
		return err
	}

	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	progress := p.newProgress(t.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	var startErr error
	for batchIndex, batch := range Batches(t, p.batchSize, p.limitRows) {
		if err := p.wait(gctx); err != nil {
			startErr = err
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := callback(gctx, batch, batchIndex); err != nil {
				return fmt.Errorf("batch %d failed: %w", batchIndex, err)
			}
			p.report(progress, batch.Len())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return startErr
}

// CalculateBatches returns the [start, end) row bounds of each batch for a
// table of totalRows rows, honouring the row limit.
func (p *Processor) CalculateBatches(totalRows int) [][2]int {
	total := effectiveRows(totalRows, p.limitRows)
	bounds := make([][2]int, 0, CountBatches(totalRows, p.batchSize, p.limitRows))
	for start := 0; start < total; start += p.batchSize {
		bounds = append(bounds, [2]int{start, min(start+p.batchSize, total)})
	}
	return bounds
}

func (p *Processor) validate(t *table.Table, callback Callback) error {
	if t.Len() == 0 {
		return ErrEmptyTable
	}
	if callback == nil {
		return ErrNilCallback
	}
	return nil
}

func (p *Processor) newProgress(totalRows int) *Progress {
	return NewProgress(
		effectiveRows(totalRows, p.limitRows),
		CountBatches(totalRows, p.batchSize, p.limitRows),
		p.batchSize,
	)
}

func (p *Processor) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// report records a finished batch and notifies the progress callback.
func (p *Processor) report(progress *Progress, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress.AddProcessed(rows)
	if p.onProgress != nil {
		p.onProgress(progress)
	}
}
