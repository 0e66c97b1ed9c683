package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rshade/copycat/internal/config"
	"github.com/rshade/copycat/internal/generation"
	"github.com/rshade/copycat/internal/logging"
	"github.com/rshade/copycat/internal/pipeline"
	"github.com/rshade/copycat/internal/reshape"
	"github.com/rshade/copycat/internal/table"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func keywordsData(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(
		[]string{"campaign", "ad_group", "keyword"},
		[]any{"a", "c", "keyword 1"},
		[]any{"a", "d", "keyword 2"},
		[]any{"b", "d", "keyword 3"},
		[]any{"b", "d", "keyword 4"},
	)
	require.NoError(t, err)
	tbl, err = tbl.WithIndex("campaign", "ad_group")
	require.NoError(t, err)
	return tbl
}

// echoGenerator writes one headline derived from the keywords and one
// description derived from the version of every request row.
func echoGenerator() pipeline.GeneratorFunc {
	return func(_ context.Context, requests *table.Table) (*table.Table, error) {
		out := table.New(reshape.HeadlinesColumn, reshape.DescriptionsColumn)
		for i := range requests.Len() {
			kw := table.ToString(requests.Value(i, generation.KeywordsColumn))
			version := table.ToString(requests.Value(i, generation.VersionColumn))
			if err := out.Append([]string{"H: " + kw}, []string{"D: " + version}); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

func textAdConfig() *config.Config {
	cfg := config.New()
	cfg.Generation.AdFormat = reshape.TextAd
	return cfg
}

func TestNew(t *testing.T) {
	_, err := pipeline.New(config.New(), nil)
	require.ErrorIs(t, err, pipeline.ErrNilGenerator)

	cfg := config.New()
	cfg.Batch.Size = 0
	_, err = pipeline.New(cfg, echoGenerator())
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	r, err := pipeline.New(nil, echoGenerator())
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRunner_Prepare(t *testing.T) {
	existing, err := table.FromRows(
		[]string{"campaign", "ad_group", "version", "Headline 1", "Headline 2", "Description 1"},
		[]any{"a", "c", "1", "old headline", reshape.Removed, "old description"},
	)
	require.NoError(t, err)

	r, err := pipeline.New(config.New(), echoGenerator())
	require.NoError(t, err)

	requests, err := r.Prepare(context.Background(), pipeline.Inputs{
		Keywords:    keywordsData(t),
		ExistingAds: existing,
	})
	require.NoError(t, err)

	require.Equal(t, 3, requests.Len())
	assert.Equal(t, []string{"campaign", "ad_group", "version"}, requests.Index())
	assert.Equal(t, []string{"old headline"}, requests.Value(0, generation.ExistingHeadlinesColumn))
	assert.Equal(t, []string{"old description"}, requests.Value(0, generation.ExistingDescriptionsColumn))
	assert.Equal(t, []string{}, requests.Value(2, generation.ExistingHeadlinesColumn))
}

func TestRunner_Run(t *testing.T) {
	r, err := pipeline.New(textAdConfig(), echoGenerator())
	require.NoError(t, err)

	got, err := r.Run(context.Background(), pipeline.Inputs{Keywords: keywordsData(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"campaign", "ad_group", "version", "keywords",
		"Headline 1", "Headline 2", "Headline 3",
		"Description 1", "Description 2",
	}, got.Columns())
	assert.Equal(t, []string{"campaign", "ad_group", "version"}, got.Index())

	want := []table.Row{
		{
			"campaign": "a", "ad_group": "c", "version": "1", "keywords": "keyword 1",
			"Headline 1": "H: keyword 1", "Headline 2": "--", "Headline 3": "--",
			"Description 1": "D: 1", "Description 2": "--",
		},
		{
			"campaign": "a", "ad_group": "d", "version": "1", "keywords": "keyword 2",
			"Headline 1": "H: keyword 2", "Headline 2": "--", "Headline 3": "--",
			"Description 1": "D: 1", "Description 2": "--",
		},
		{
			"campaign": "b", "ad_group": "d", "version": "1", "keywords": "keyword 3, keyword 4",
			"Headline 1": "H: keyword 3, keyword 4", "Headline 2": "--", "Headline 3": "--",
			"Description 1": "D: 1", "Description 2": "--",
		},
	}
	if diff := cmp.Diff(want, got.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_RunBatching(t *testing.T) {
	cfg := textAdConfig()
	cfg.Generation.Versions = 3
	cfg.Batch.Size = 2
	cfg.Batch.LimitRows = 7

	var mu sync.Mutex
	var sizes []int
	gen := pipeline.GeneratorFunc(func(ctx context.Context, requests *table.Table) (*table.Table, error) {
		mu.Lock()
		sizes = append(sizes, requests.Len())
		mu.Unlock()
		return echoGenerator()(ctx, requests)
	})

	r, err := pipeline.New(cfg, gen)
	require.NoError(t, err)

	got, err := r.Run(context.Background(), pipeline.Inputs{Keywords: keywordsData(t)})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 2, 1}, sizes)
	assert.Equal(t, 7, got.Len())
}

func TestRunner_RunConcurrentKeepsOrder(t *testing.T) {
	sequential := textAdConfig()
	sequential.Generation.Versions = 4
	sequential.Batch.Size = 1

	concurrent := textAdConfig()
	concurrent.Generation.Versions = 4
	concurrent.Batch.Size = 1
	concurrent.Batch.Concurrency = 4

	in := pipeline.Inputs{Keywords: keywordsData(t)}

	r1, err := pipeline.New(sequential, echoGenerator())
	require.NoError(t, err)
	want, err := r1.Run(context.Background(), in)
	require.NoError(t, err)

	r2, err := pipeline.New(concurrent, echoGenerator())
	require.NoError(t, err)
	got, err := r2.Run(context.Background(), in)
	require.NoError(t, err)

	if diff := cmp.Diff(want.Records(), got.Records()); diff != "" {
		t.Errorf("concurrent run differs (-sequential +concurrent):\n%s", diff)
	}
}

func TestRunner_RunErrors(t *testing.T) {
	in := pipeline.Inputs{Keywords: keywordsData(t)}

	t.Run("generator error", func(t *testing.T) {
		errGen := errors.New("model unavailable")
		r, err := pipeline.New(textAdConfig(), pipeline.GeneratorFunc(
			func(context.Context, *table.Table) (*table.Table, error) { return nil, errGen },
		))
		require.NoError(t, err)

		_, err = r.Run(context.Background(), in)
		assert.ErrorIs(t, err, errGen)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		r, err := pipeline.New(textAdConfig(), pipeline.GeneratorFunc(
			func(context.Context, *table.Table) (*table.Table, error) {
				return table.New(reshape.HeadlinesColumn, reshape.DescriptionsColumn), nil
			},
		))
		require.NoError(t, err)

		_, err = r.Run(context.Background(), in)
		assert.ErrorIs(t, err, pipeline.ErrResultMismatch)
	})

	t.Run("missing column", func(t *testing.T) {
		r, err := pipeline.New(textAdConfig(), pipeline.GeneratorFunc(
			func(_ context.Context, requests *table.Table) (*table.Table, error) {
				out := table.New(reshape.HeadlinesColumn)
				for range requests.Len() {
					if err := out.Append([]string{"h"}); err != nil {
						return nil, err
					}
				}
				return out, nil
			},
		))
		require.NoError(t, err)

		_, err = r.Run(context.Background(), in)
		assert.ErrorIs(t, err, reshape.ErrMissingColumn)
	})

	t.Run("too many headlines", func(t *testing.T) {
		r, err := pipeline.New(textAdConfig(), pipeline.GeneratorFunc(
			func(_ context.Context, requests *table.Table) (*table.Table, error) {
				out := table.New(reshape.HeadlinesColumn, reshape.DescriptionsColumn)
				for range requests.Len() {
					if err := out.Append([]string{"1", "2", "3", "4"}, []string{"d"}); err != nil {
						return nil, err
					}
				}
				return out, nil
			},
		))
		require.NoError(t, err)

		_, err = r.Run(context.Background(), in)
		assert.ErrorIs(t, err, reshape.ErrTooManySlots)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, err := pipeline.New(textAdConfig(), echoGenerator())
		require.NoError(t, err)

		_, err = r.Run(ctx, in)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunner_RunEmptyKeywords(t *testing.T) {
	kw, err := table.New("campaign", "keyword").WithIndex("campaign")
	require.NoError(t, err)

	r, err := pipeline.New(textAdConfig(), echoGenerator())
	require.NoError(t, err)

	got, err := r.Run(context.Background(), pipeline.Inputs{Keywords: kw})
	require.NoError(t, err)

	assert.Zero(t, got.Len())
	assert.Equal(t, []string{
		"campaign", "version", "keywords",
		"Headline 1", "Headline 2", "Headline 3",
		"Description 1", "Description 2",
	}, got.Columns())
}

func TestRunner_RunTraceID(t *testing.T) {
	var seen string
	gen := pipeline.GeneratorFunc(func(ctx context.Context, requests *table.Table) (*table.Table, error) {
		seen = logging.TraceIDFromContext(ctx)
		return echoGenerator()(ctx, requests)
	})

	r, err := pipeline.New(textAdConfig(), gen)
	require.NoError(t, err)

	t.Run("generated", func(t *testing.T) {
		_, err := r.Run(context.Background(), pipeline.Inputs{Keywords: keywordsData(t)})
		require.NoError(t, err)
		assert.Len(t, seen, 26)
	})

	t.Run("propagated", func(t *testing.T) {
		ctx := logging.ContextWithTraceID(context.Background(), "run-42")
		_, err := r.Run(ctx, pipeline.Inputs{Keywords: keywordsData(t)})
		require.NoError(t, err)
		assert.Equal(t, "run-42", seen)
	})
}
