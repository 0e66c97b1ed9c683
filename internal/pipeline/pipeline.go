// Package pipeline wires request preparation, batching and reshaping around an
// external ad copy generator.
//
// A run collapses the existing ads sheet into lists, builds one generation
// request per keyword group and version, hands the requests to the generator
// batch by batch and explodes the generated copy back into the spreadsheet
// layout of the configured ad format.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/rshade/copycat/internal/config"
	"github.com/rshade/copycat/internal/engine/batch"
	"github.com/rshade/copycat/internal/generation"
	"github.com/rshade/copycat/internal/logging"
	"github.com/rshade/copycat/internal/reshape"
	"github.com/rshade/copycat/internal/table"
)

// Pipeline errors.
var (
	ErrNilGenerator   = errors.New("generator cannot be nil")
	ErrResultMismatch = errors.New("generator returned a different number of rows than requested")
)

// Generator produces ad copy for a batch of generation requests. It returns
// one row per request row, in the same order, holding the list-valued
// reshape.HeadlinesColumn and reshape.DescriptionsColumn.
type Generator interface {
	Generate(ctx context.Context, requests *table.Table) (*table.Table, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, requests *table.Table) (*table.Table, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, requests *table.Table) (*table.Table, error) {
	return f(ctx, requests)
}

// Inputs are the tables a run starts from.
type Inputs struct {
	// Keywords is indexed by the keyword group columns and has a "keyword" column.
	Keywords *table.Table

	// ExistingAds is an optional wide sheet of previously generated ads,
	// keyed by the group columns and "version".
	ExistingAds *table.Table

	// Instructions is an optional table of instruction rules.
	Instructions *table.Table
}

// Runner executes generation runs with a fixed configuration.
type Runner struct {
	cfg *config.Config
	gen Generator
}

// New creates a Runner. A nil cfg uses the defaults.
func New(cfg *config.Config, gen Generator) (*Runner, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, gen: gen}, nil
}

// Prepare builds the generation request table for in.
func (r *Runner) Prepare(ctx context.Context, in Inputs) (*table.Table, error) {
	opts := generation.Options{
		Instructions:     in.Instructions,
		Versions:         r.cfg.Generation.Versions,
		InstructionOrder: r.cfg.Generation.Order(),
	}
	if in.ExistingAds != nil {
		opts.ExistingGenerations = reshape.Collapse(in.ExistingAds).RenameColumns(map[string]string{
			reshape.HeadlinesColumn:    generation.ExistingHeadlinesColumn,
			reshape.DescriptionsColumn: generation.ExistingDescriptionsColumn,
		})
	}

	requests, err := generation.Build(ctx, in.Keywords, opts)
	if err != nil {
		return nil, fmt.Errorf("building generation requests: %w", err)
	}
	return requests, nil
}

// Run prepares the requests, generates ads for them batch by batch and returns
// the request rows joined with the generated copy in the wide layout of the
// configured ad format. Rows beyond the configured row limit are not sent and
// not returned. Output rows keep request order regardless of concurrency.
func (r *Runner) Run(ctx context.Context, in Inputs) (*table.Table, error) {
	ctx = logging.ContextWithTraceID(ctx, logging.GetOrGenerateTraceID(ctx))
	log := logging.FromContext(ctx)

	requests, err := r.Prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	bc := r.cfg.Batch
	processor, err := batch.NewProcessor(bc.Size)
	if err != nil {
		return nil, err
	}
	processor.WithLimit(bc.LimitRows)
	if bc.RequestsPerSecond > 0 {
		processor.WithRateLimit(rate.NewLimiter(rate.Limit(bc.RequestsPerSecond), 1))
	}
	processor.WithProgressCallback(func(p *batch.Progress) {
		s := p.Snapshot()
		log.Debug().
			Str("component", "pipeline").
			Str("operation", "generate").
			Int("batches_done", s.ProcessedBatches).
			Int("batches_total", s.TotalBatches).
			Float64("percent", s.PercentComplete).
			Msg("batch generated")
	})

	results := make([]*table.Table, batch.CountBatches(requests.Len(), bc.Size, bc.LimitRows))
	if len(results) > 0 {
		generate := func(ctx context.Context, b *table.Table, batchIndex int) error {
			generated, err := r.gen.Generate(ctx, b)
			if err != nil {
				return err
			}
			joined, err := attachGenerated(b, generated)
			if err != nil {
				return err
			}
			results[batchIndex] = joined
			return nil
		}

		if bc.Concurrency > 1 {
			err = processor.ProcessConcurrent(ctx, requests, generate, bc.Concurrency)
		} else {
			err = processor.Process(ctx, requests, generate)
		}
		if err != nil {
			return nil, fmt.Errorf("generating ads: %w", err)
		}
	}

	combined, err := combine(requests, results)
	if err != nil {
		return nil, err
	}

	format := r.cfg.Generation.Format()
	if err := format.Check(combined); err != nil {
		return nil, err
	}

	out, err := reshape.Explode(combined, format.Slots()...)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("component", "pipeline").
		Str("operation", "run").
		Int("requests", requests.Len()).
		Int("generated", out.Len()).
		Int("batches", len(results)).
		Str("ad_format", format.Name).
		Msg("generation run complete")

	return out, nil
}

// attachGenerated appends the generated headline and description lists to the
// request rows of one batch.
func attachGenerated(requests, generated *table.Table) (*table.Table, error) {
	for _, c := range []string{reshape.HeadlinesColumn, reshape.DescriptionsColumn} {
		if !generated.HasColumn(c) {
			return nil, fmt.Errorf("%w: generator output has no %q column", reshape.ErrMissingColumn, c)
		}
	}
	if generated.Len() != requests.Len() {
		return nil, fmt.Errorf("%w: got %d rows for %d requests", ErrResultMismatch, generated.Len(), requests.Len())
	}

	out := table.New(resultColumns(requests)...)
	for i := range requests.Len() {
		row := requests.Record(i)
		row[reshape.HeadlinesColumn] = generated.Value(i, reshape.HeadlinesColumn)
		row[reshape.DescriptionsColumn] = generated.Value(i, reshape.DescriptionsColumn)
		out.AppendRecord(row)
	}
	return out.WithIndex(requests.Index()...)
}

// combine stacks the batch results in order. With no batches it returns an
// empty table with the result layout.
func combine(requests *table.Table, results []*table.Table) (*table.Table, error) {
	if len(results) == 0 {
		return table.New(resultColumns(requests)...).WithIndex(requests.Index()...)
	}
	return table.Concat(results...)
}

func resultColumns(requests *table.Table) []string {
	return append(requests.Columns(), reshape.HeadlinesColumn, reshape.DescriptionsColumn)
}
